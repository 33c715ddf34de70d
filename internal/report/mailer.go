package report

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jonesrussell/tenderscan/internal/logger"
	"github.com/jordan-wright/email"
)

// DefaultSubject is the digest email subject.
const DefaultSubject = "Tender List"

// EmailConfig holds SMTP delivery configuration.
type EmailConfig struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Mailer delivers digest reports over an authenticated SMTP relay.
type Mailer struct {
	cfg EmailConfig
	log logger.Interface
}

// NewMailer creates a new mailer.
func NewMailer(cfg EmailConfig, log logger.Interface) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// Send delivers one HTML report to the configured recipient. Delivery is
// attempted once; failures are the caller's to log, not retry.
func (m *Mailer) Send(ctx context.Context, subject, htmlBody string) error {
	msg := email.NewEmail()
	msg.From = m.cfg.From
	msg.To = []string{m.cfg.To}
	msg.Subject = subject
	msg.HTML = []byte(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)

	if err := msg.Send(addr, auth); err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}

	m.log.Info("digest email sent", "to", m.cfg.To, "bytes", len(htmlBody))

	return nil
}
