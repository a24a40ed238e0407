package mailer

import (
	"fmt"
	"log"
	"net/smtp"
)

// Mailer delivers verification email. The auth service only depends on this
// interface; delivery mechanics stay out of the core.
type Mailer interface {
	SendVerificationEmail(to, code, link string) error
}

// SMTPConfig holds SMTP delivery settings
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through a plain SMTP relay
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates an SMTP-backed mailer
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendVerificationEmail sends the verification code and link to the address
func (m *SMTPMailer) SendVerificationEmail(to, code, link string) error {
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Verify Email\r\n\r\n"+
			"Your verification code is %s.\r\nOr open: %s\r\n",
		m.cfg.From, to, code, link,
	)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(body))
}

// LogMailer logs mail instead of sending it. Used in development and tests
// when SMTP is unconfigured.
type LogMailer struct{}

// NewLogMailer creates a log-only mailer
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// SendVerificationEmail logs the verification code and link
func (m *LogMailer) SendVerificationEmail(to, code, link string) error {
	log.Printf("verification email for %s: code=%s link=%s", to, code, link)
	return nil
}
