package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Auther exchanges credentials for session tokens and resolves raw tokens
// back into claims.
type Auther struct {
	store                AccountStore
	tokens               TokenService
	config               Config
	allowUnverifiedLogin bool
	activitySink         ActivitySink
	logger               Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store AccountStore, tokens TokenService, config Config) *Auther {
	return &Auther{
		store:                store,
		tokens:               tokens,
		config:               config,
		allowUnverifiedLogin: config.GetAllowUnverifiedLogin(),
		activitySink:         noopActivitySink{},
		logger:               defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies the password against the stored hash and, when the policy
// requires it, that the account redeemed its verification link. Unknown
// emails and bad passwords both come back as ErrInvalidCredentials.
func (s *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// burn a compare anyway so unknown emails cost the same
			// as a wrong password
			ComparePasswordAndHash(password, unknownAccountHash)
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", email, map[string]any{
				"reason": "unknown email",
			})
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("login account lookup failed: %v", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		s.logger.Debug("login password mismatch for %s", email)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, account.ID.String(), email, map[string]any{
			"reason": "password mismatch",
		})
		return nil, ErrInvalidCredentials
	}

	if !account.IsVerified && !s.allowUnverifiedLogin {
		s.logger.Debug("login blocked, %s is not verified", email)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, account.ID.String(), email, map[string]any{
			"reason": "not verified",
		})
		return nil, ErrAccountNotVerified
	}

	token, err := s.tokens.Issue(account.ID.String(), account.Email, s.config.GetSessionDuration())
	if err != nil {
		s.logger.Error("login token issuance failed: %v", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, account.ID.String(), email, nil)

	return &LoginResult{
		Token: token,
		Name:  account.Name,
	}, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, accountID, email string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		AccountID:  accountID,
		Email:      email,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

// SessionFromToken validates a raw session token and returns its claims.
func (s *Auther) SessionFromToken(raw string) (*IdentityClaims, error) {
	claims, err := s.tokens.Validate(raw)
	if err != nil {
		s.logger.Debug("session token validation failed: %v", err)
		return nil, err
	}
	return claims, nil
}

// unknownAccountHash is a throwaway bcrypt digest used to equalize timing
// between unknown email and wrong password failures.
var unknownAccountHash = func() string {
	h, err := HashPassword("login-timing-pad")
	if err != nil {
		return ""
	}
	return h
}()

var _ Authenticator = (*Auther)(nil)
