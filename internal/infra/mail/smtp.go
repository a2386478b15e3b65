package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/port"
	"github.com/NeuroDev204/neuro-pet-backend/internal/infra/config"
)

// SMTPMailer delivers transactional mail over SMTP. Port 465 gets an
// implicit TLS connection; any other port upgrades via STARTTLS when
// the server offers it.
type SMTPMailer struct {
	cfg config.MailSettings
}

// NewSMTPMailer constructs a mailer from the mail settings.
func NewSMTPMailer(cfg config.MailSettings) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendVerificationCode emails the plaintext one-time code to the
// recipient. The caller owns retry and failure policy.
func (m *SMTPMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	subject := "Verify your email address"
	body := fmt.Sprintf(
		"Welcome to NeuroPet!\r\n\r\nYour verification code is: %s\r\n\r\nThe code expires in 10 minutes. If you did not create an account, ignore this message.",
		code,
	)

	if err := m.send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}

	return nil
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	message := buildMessage(m.cfg.From, to, subject, body)

	client, err := m.dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(parseAddress(m.cfg.From)); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func (m *SMTPMailer) dial(addr string) (*smtp.Client, error) {
	if m.cfg.Port == 465 {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, m.cfg.Host)
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return nil, err
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}

func buildMessage(from, to, subject, body string) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}
	return strings.Join(headers, "\r\n")
}

func parseAddress(from string) string {
	start := strings.Index(from, "<")
	end := strings.Index(from, ">")
	if start >= 0 && end > start {
		return strings.TrimSpace(from[start+1 : end])
	}
	return strings.TrimSpace(from)
}

var _ port.Mailer = (*SMTPMailer)(nil)
