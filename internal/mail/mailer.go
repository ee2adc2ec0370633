package mail

import (
	"fmt"

	"github.com/fabworks/workshop-api/internal/config"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// Mailer sends notification email over SMTP. Delivery is best-effort: callers
// treat a failed send as a logged warning, never as an operation failure.
type Mailer struct {
	cfg    *config.MailConfig
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewMailer creates a new Mailer. When mail is disabled the returned Mailer
// silently drops all messages.
func NewMailer(cfg *config.MailConfig, logger *zap.Logger) *Mailer {
	var dialer *gomail.Dialer
	if cfg.Enabled {
		dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return &Mailer{
		cfg:    cfg,
		dialer: dialer,
		logger: logger,
	}
}

// Enabled reports whether outbound mail is configured
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled && m.dialer != nil
}

// Send delivers a plain-text message to a single recipient
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		m.logger.Debug("mail disabled, dropping message",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	m.logger.Debug("mail sent",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
