package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type VerifyEmailMessage struct {
	Token      string `json:"token" example:"eyJhbGciOi..." doc:"Verification token from the emailed link."`
	OnResponse func(v *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "identity.verify_email" }

type VerifyEmailResponse struct {
	Email    string `json:"email" example:"user@example.com" doc:"Address that was verified."`
	Redirect string `json:"redirect" example:"https://app.example.com/verified" doc:"Where to send the browser next."`
}

// VerifyEmailHandler redeems a verification token and flips the account to
// verified. Redemption is idempotent: a second click on the same link
// succeeds as long as the token is still within its window.
type VerifyEmailHandler struct {
	store  AccountStore
	tokens TokenService
	config Config
	sink   ActivitySink
	logger Logger
}

func NewVerifyEmailHandler(store AccountStore, tokens TokenService, config Config) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		store:  store,
		tokens: tokens,
		config: config,
		sink:   noopActivitySink{},
		logger: defLogger{},
	}
}

func (h *VerifyEmailHandler) WithLogger(l Logger) *VerifyEmailHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

// WithActivitySink configures an ActivitySink for emitting verification events.
func (h *VerifyEmailHandler) WithActivitySink(sink ActivitySink) *VerifyEmailHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	if event.Token == "" {
		return ErrMissingToken
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	claims, err := h.tokens.Validate(event.Token)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryAuth, "invalid verification token")
	}

	id, err := claims.AccountUUID()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryAuth, "verification token carries an invalid account id").
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	account, err := h.store.MarkVerified(ctx, id)
	if err != nil {
		// valid token but the account is gone, e.g. deleted between
		// signup and the click
		if repository.IsRecordNotFound(err) {
			return ErrAccountNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark account as verified")
	}

	h.logger.Info("account %s verified", account.Email)

	if err := h.sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventEmailVerified,
		AccountID:  account.ID.String(),
		Email:      account.Email,
		Metadata:   map[string]any{},
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}

	event.OnResponse(&VerifyEmailResponse{
		Email:    account.Email,
		Redirect: h.config.GetVerifiedRedirectURL(),
	})

	return nil
}
