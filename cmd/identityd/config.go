package main

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the identity service.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8572"`

	SigningKey           string        `envconfig:"JWT_SIGNING_KEY" required:"true"`
	SigningMethod        string        `envconfig:"JWT_SIGNING_METHOD" default:"HS256"`
	Issuer               string        `envconfig:"JWT_ISSUER" default:"identityd"`
	Audience             []string      `envconfig:"JWT_AUDIENCE"`
	ContextKey           string        `envconfig:"JWT_CONTEXT_KEY" default:"user"`
	AuthScheme           string        `envconfig:"JWT_AUTH_SCHEME" default:"Bearer"`
	TokenLookup          string        `envconfig:"JWT_TOKEN_LOOKUP" default:"header:Authorization"`
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"1h"`
	VerificationTTL      time.Duration `envconfig:"VERIFICATION_TTL" default:"3h"`
	VerificationBaseURL  string        `envconfig:"VERIFICATION_BASE_URL" default:"http://localhost:8572"`
	VerifiedRedirectURL  string        `envconfig:"VERIFIED_REDIRECT_URL" default:"http://localhost:8572/verified"`
	AllowUnverifiedLogin bool          `envconfig:"ALLOW_UNVERIFIED_LOGIN" default:"false"`

	DBDriver      string        `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN         string        `envconfig:"DB_DSN" default:"file:identity.db?cache=shared&mode=rwc"`
	DBDebug       bool          `envconfig:"DB_DEBUG" default:"false"`
	DBPingTimeout time.Duration `envconfig:"DB_PING_TIMEOUT" default:"5s"`

	SMTPHost     string `envconfig:"SMTP_HOST" default:"127.0.0.1"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"no-reply@identity.local"`
	SMTPSubject  string `envconfig:"SMTP_SUBJECT" default:"Verify your email"`
}

// LoadConfig reads configuration from environment variables. A missing
// signing key is fatal, we never fall back to a baked in secret.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SigningKey == "" {
		return nil, errors.New("jwt signing key must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

func (c *Config) GetSigningKey() string    { return c.SigningKey }
func (c *Config) GetSigningMethod() string { return c.SigningMethod }
func (c *Config) GetContextKey() string    { return c.ContextKey }
func (c *Config) GetIssuer() string        { return c.Issuer }
func (c *Config) GetAudience() []string    { return c.Audience }
func (c *Config) GetAuthScheme() string    { return c.AuthScheme }
func (c *Config) GetTokenLookup() string   { return c.TokenLookup }

func (c *Config) GetSessionDuration() time.Duration      { return c.SessionTTL }
func (c *Config) GetVerificationDuration() time.Duration { return c.VerificationTTL }
func (c *Config) GetVerificationBaseURL() string         { return c.VerificationBaseURL }
func (c *Config) GetVerifiedRedirectURL() string         { return c.VerifiedRedirectURL }
func (c *Config) GetAllowUnverifiedLogin() bool          { return c.AllowUnverifiedLogin }

// PersistenceConfig adapts the flat env config to the persistence client.
type PersistenceConfig struct {
	cfg *Config
}

func (c *Config) GetPersistence() PersistenceConfig { return PersistenceConfig{cfg: c} }

func (p PersistenceConfig) GetDebug() bool                { return p.cfg.DBDebug }
func (p PersistenceConfig) GetDriver() string             { return p.cfg.DBDriver }
func (p PersistenceConfig) GetDSN() string                { return p.cfg.DBDSN }
func (p PersistenceConfig) GetServer() string             { return "" }
func (p PersistenceConfig) GetDatabase() string           { return p.cfg.DBDSN }
func (p PersistenceConfig) GetPingTimeout() time.Duration { return p.cfg.DBPingTimeout }
func (p PersistenceConfig) GetOtelIdentifier() string     { return "" }
