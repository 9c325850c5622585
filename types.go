package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds identity service options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetIssuer() string
	GetAudience() []string
	GetAuthScheme() string
	GetTokenLookup() string
	GetSessionDuration() time.Duration
	GetVerificationDuration() time.Duration
	GetVerificationBaseURL() string
	GetVerifiedRedirectURL() string
	GetAllowUnverifiedLogin() bool
}

// AccountStore is the narrow view of the accounts repository the workflows
// need. The bun backed Accounts repository satisfies it.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	MarkVerified(ctx context.Context, id uuid.UUID) (*Account, error)
}

// Mailer delivers outbound identity mail. Dispatch is synchronous in the
// request path; swapping in an outbox/retry implementation must not touch
// workflow logic.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, link string) error
}

// TokenService issues and validates self-contained identity tokens.
type TokenService interface {
	Issue(subjectID, email string, ttl time.Duration) (string, error)
	Validate(raw string) (*IdentityClaims, error)
}

// Authenticator holds methods to deal with session issuance
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	SessionFromToken(raw string) (*IdentityClaims, error)
}

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
