package identity

import (
	"context"
	"fmt"
	"net/url"

	"github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"
)

// VerificationLink builds the link embedded in outbound verification mail.
func VerificationLink(baseURL, token string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL + "/verify-email?token=" + url.QueryEscape(token)
	}
	u.Path = "/verify-email"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// SMTPMailerConfig holds the outbound mail transport options.
type SMTPMailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
}

// SMTPMailer delivers verification mail over SMTP. Constructed once at
// startup and shared; the client dials per send.
type SMTPMailer struct {
	client *mail.Client
	config SMTPMailerConfig
	logger Logger
}

func NewSMTPMailer(config SMTPMailerConfig, logger Logger) (*SMTPMailer, error) {
	if logger == nil {
		logger = defLogger{}
	}

	if config.From == "" {
		return nil, errors.New("mailer requires a from address", errors.CategoryBadInput)
	}

	if config.Subject == "" {
		config.Subject = "Verify your email"
	}

	client, err := mail.NewClient(config.Host,
		mail.WithPort(config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(config.Username),
		mail.WithPassword(config.Password),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to build smtp client")
	}

	return &SMTPMailer{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

func (m *SMTPMailer) WithLogger(l Logger) *SMTPMailer {
	if l != nil {
		m.logger = l
	}
	return m
}

// SendVerification dispatches the verification link to the account address.
// Synchronous: the caller is still inside the signup request.
func (m *SMTPMailer) SendVerification(ctx context.Context, to, name, link string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.config.From); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "invalid mail from address")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid mail to address")
	}

	msg.Subject(m.config.Subject)
	msg.SetBodyString(mail.TypeTextHTML, verificationBody(name, link))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Error("verification mail dispatch to %s failed: %v", to, err)
		return errors.Wrap(err, errors.CategoryExternal, "failed to send verification email")
	}

	m.logger.Debug("verification mail dispatched to %s", to)
	return nil
}

func verificationBody(name, link string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Click the link below to verify your email:</p>
<a href=%q>Verify Email</a>`, name, link)
}

var _ Mailer = (*SMTPMailer)(nil)
