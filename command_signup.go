package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const (
	// SignupCreated means a new account was provisioned and mailed.
	SignupCreated = "created"
	// SignupResent means the account existed unverified and got a fresh link.
	SignupResent = "resent"
)

type SignupMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(s *SignupResponse)
}

func (e SignupMessage) Type() string { return "identity.signup" }

type SignupResponse struct {
	Stage string `json:"stage" example:"created" doc:"Signup outcome, created or resent."`
	Email string `json:"email" example:"user@example.com" doc:"Address the verification link was sent to."`
}

// SignupHandler provisions accounts and dispatches verification mail.
// Re-running signup for an unverified address reissues the link instead of
// erroring; a verified address is a hard conflict.
type SignupHandler struct {
	store  AccountStore
	tokens TokenService
	mailer Mailer
	config Config
	sink   ActivitySink
	logger Logger
}

func NewSignupHandler(store AccountStore, tokens TokenService, mailer Mailer, config Config) *SignupHandler {
	return &SignupHandler{
		store:  store,
		tokens: tokens,
		mailer: mailer,
		config: config,
		sink:   noopActivitySink{},
		logger: defLogger{},
	}
}

func (h *SignupHandler) WithLogger(l Logger) *SignupHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

// WithActivitySink configures an ActivitySink for emitting signup events.
func (h *SignupHandler) WithActivitySink(sink ActivitySink) *SignupHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during signup")
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	resp := &SignupResponse{Email: event.Email}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	existing, err := h.store.GetByEmail(ctx, event.Email)
	if err != nil && !repository.IsRecordNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account by email")
	}

	if existing != nil {
		if existing.IsVerified {
			return ErrEmailInUse
		}

		// unverified re-signup keeps the stored record and just reissues
		// the link, so a lost email never strands the account
		if err := h.sendVerification(ctx, existing); err != nil {
			return err
		}

		h.recordActivity(ctx, ActivityEventSignupResend, existing)

		resp.Stage = SignupResent
		event.OnResponse(resp)
		return nil
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account := &Account{
		Name:         event.Name,
		Email:        event.Email,
		PasswordHash: hash,
	}

	if account, err = h.store.Create(ctx, account); err != nil {
		// a concurrent signup can slip past the lookup and hit the
		// unique email index instead
		if IsDuplicateKeyError(err) {
			return ErrEmailInUse
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create account")
	}

	if err := h.sendVerification(ctx, account); err != nil {
		return err
	}

	h.recordActivity(ctx, ActivityEventSignup, account)

	resp.Stage = SignupCreated
	event.OnResponse(resp)

	return nil
}

func (h *SignupHandler) recordActivity(ctx context.Context, eventType ActivityEventType, account *Account) {
	err := h.sink.Record(ctx, ActivityEvent{
		EventType:  eventType,
		AccountID:  account.ID.String(),
		Email:      account.Email,
		Metadata:   map[string]any{},
		OccurredAt: time.Now(),
	})
	if err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}

func (h *SignupHandler) sendVerification(ctx context.Context, account *Account) error {
	token, err := h.tokens.Issue(account.ID.String(), account.Email, h.config.GetVerificationDuration())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
	}

	link := VerificationLink(h.config.GetVerificationBaseURL(), token)

	if err := h.mailer.SendVerification(ctx, account.Email, account.Name, link); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to send verification email")
	}

	h.logger.Debug("verification link issued for %s", account.Email)

	return nil
}
