// internal/infra/mailer/smtp.go
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	gomail "github.com/wneessen/go-mail"

	"seller_escalation_bot/internal/domain/mail"
)

const defaultSendTimeout = 30 * time.Second

// Config holds the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string // authentication is skipped when empty
	Password string
	From     string
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	cfg Config
	log *logrus.Entry
}

var _ mail.Sender = (*SMTPSender)(nil)

func NewSMTPSender(cfg Config, log *logrus.Entry) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log.WithField("component", "mailer")}
}

// Send opens a connection per message. Runs send at most a few hundred
// messages a week, so connection reuse is not worth the state.
func (s *SMTPSender) Send(ctx context.Context, msg mail.Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)

	client, err := gomail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to deliver mail to %s: %w", msg.To, err)
	}

	s.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Debug("Mail delivered")
	return nil
}

func (s *SMTPSender) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTimeout(defaultSendTimeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}
