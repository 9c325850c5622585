package identity_test

import (
	"context"
	"sync"
	"time"

	identity "github.com/goliatone/go-identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// testConfig satisfies identity.Config with sensible test defaults.
type testConfig struct {
	signingKey      string
	allowUnverified bool
	baseURL         string
	redirectURL     string
	sessionTTL      time.Duration
	verificationTTL time.Duration
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:      "test-signing-key",
		baseURL:         "http://localhost:8572",
		redirectURL:     "http://localhost:8572/verified",
		sessionTTL:      time.Hour,
		verificationTTL: 3 * time.Hour,
	}
}

func (c *testConfig) GetSigningKey() string                  { return c.signingKey }
func (c *testConfig) GetSigningMethod() string               { return "HS256" }
func (c *testConfig) GetContextKey() string                  { return "user" }
func (c *testConfig) GetIssuer() string                      { return "identity-test" }
func (c *testConfig) GetAudience() []string                  { return nil }
func (c *testConfig) GetAuthScheme() string                  { return "Bearer" }
func (c *testConfig) GetTokenLookup() string                 { return "header:Authorization" }
func (c *testConfig) GetSessionDuration() time.Duration      { return c.sessionTTL }
func (c *testConfig) GetVerificationDuration() time.Duration { return c.verificationTTL }
func (c *testConfig) GetVerificationBaseURL() string         { return c.baseURL }
func (c *testConfig) GetVerifiedRedirectURL() string         { return c.redirectURL }
func (c *testConfig) GetAllowUnverifiedLogin() bool          { return c.allowUnverified }

// stubAccountStore is an in-memory AccountStore keyed by email.
type stubAccountStore struct {
	mu        sync.Mutex
	byEmail   map[string]*identity.Account
	getErr    error
	createErr error
	markErr   error
}

func newStubAccountStore(seed ...*identity.Account) *stubAccountStore {
	s := &stubAccountStore{byEmail: map[string]*identity.Account{}}
	for _, acc := range seed {
		s.byEmail[acc.Email] = acc
	}
	return s
}

func (s *stubAccountStore) GetByEmail(ctx context.Context, email string) (*identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}

	acc, ok := s.byEmail[email]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return acc, nil
}

func (s *stubAccountStore) Create(ctx context.Context, record *identity.Account, criteria ...repository.InsertCriteria) (*identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return nil, s.createErr
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.byEmail[record.Email] = record
	return record, nil
}

func (s *stubAccountStore) MarkVerified(ctx context.Context, id uuid.UUID) (*identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.markErr != nil {
		return nil, s.markErr
	}

	for _, acc := range s.byEmail {
		if acc.ID == id {
			acc.IsVerified = true
			return acc, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

type sentMail struct {
	to   string
	name string
	link string
}

// stubMailer records outbound verification mail.
type stubMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *stubMailer) SendVerification(ctx context.Context, to, name, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, name: name, link: link})
	return nil
}

// captureSink records activity events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []identity.ActivityEvent
}

func (s *captureSink) Record(ctx context.Context, event identity.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) types() []identity.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]identity.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func newTestTokens(cfg *testConfig) identity.TokenService {
	return identity.NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetIssuer(), cfg.GetAudience(), nil)
}

func seedAccount(email, name, password string, verified bool) *identity.Account {
	hash, err := identity.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return &identity.Account{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   verified,
	}
}
