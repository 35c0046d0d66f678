package auth

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

const appName = "Species Catalog"

// Mailer delivers magic links by SMTP, or logs them in dev mode.
type Mailer struct {
	config Config
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a mailer with the given config.
func NewMailer(config Config) *Mailer {
	return &Mailer{config: config, send: smtp.SendMail}
}

// SendMagicLink emails a browser login link and returns it.
func (m *Mailer) SendMagicLink(email, token string) (string, error) {
	return m.deliver(email, "/auth/verify", token, appName)
}

// SendCLIMagicLink emails a link that finishes a CLI login and returns it.
func (m *Mailer) SendCLIMagicLink(email, token string) (string, error) {
	return m.deliver(email, "/cli/auth/verify", token, appName+" CLI")
}

func (m *Mailer) deliver(email, path, token, product string) (string, error) {
	link := fmt.Sprintf("%s%s?token=%s", strings.TrimRight(m.config.BaseURL, "/"), path, token)

	if m.config.DevMode {
		slog.Info("magic link", "email", email, "link", link)
		return link, nil
	}

	body := fmt.Sprintf(
		"Click the link below to log in to the %s:\n\n%s\n\nThis link expires in 15 minutes and can only be used once.",
		product, link,
	)
	msg := buildEmail(m.config.SMTPFrom, email, product+" login link", body)

	addr := fmt.Sprintf("%s:%s", m.config.SMTPHost, m.config.SMTPPort)
	var auth smtp.Auth
	if m.config.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.config.SMTPUser, m.config.SMTPPass, m.config.SMTPHost)
	}

	if err := m.send(addr, auth, m.config.SMTPFrom, []string{email}, msg); err != nil {
		return "", fmt.Errorf("sending email: %w", err)
	}

	return link, nil
}

func buildEmail(from, to, subject, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}
