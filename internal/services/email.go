package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/nomadland/nomadland/internal/config"
)

// EmailService handles sending emails via SMTP
type EmailService struct {
	cfg *config.Config
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

// IsConfigured returns true if SMTP is properly configured
func (s *EmailService) IsConfigured() bool {
	return s.cfg.SMTPEnabled && s.cfg.SMTPHost != "" && s.cfg.SMTPFromAddr != ""
}

// SendVerificationEmail sends an email-address verification link
func (s *EmailService) SendVerificationEmail(to, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify-email?token=%s", s.cfg.BaseURL, token)

	subject := "Verify your NomadLand email address"
	htmlBody := fmt.Sprintf(`
		<h2>Welcome to NomadLand</h2>
		<p>Click the link below to verify your email address:</p>
		<p><a href="%s">Verify email</a></p>
		<p>This link expires in 48 hours. If you didn't create an account, you can ignore this email.</p>
	`, link)
	textBody := fmt.Sprintf("Welcome to NomadLand!\n\nVerify your email address: %s\n\nThis link expires in 48 hours.", link)

	return s.sendMail([]string{to}, subject, htmlBody, textBody)
}

// SendEventCancelledEmail tells an RSVP'd user that an event was cancelled.
// when describes the affected dates ("2026-03-04", or a range for a whole
// template).
func (s *EmailService) SendEventCancelledEmail(to, eventTitle, when string) error {
	subject := fmt.Sprintf("Cancelled: %s (%s)", eventTitle, when)
	htmlBody := fmt.Sprintf(`
		<h2>Event cancelled</h2>
		<p><strong>%s</strong> (%s) has been cancelled by the organizer.</p>
	`, eventTitle, when)
	textBody := fmt.Sprintf("%q (%s) has been cancelled by the organizer.", eventTitle, when)

	return s.sendMail([]string{to}, subject, htmlBody, textBody)
}

// sendMail sends a multipart text/html email over SMTP
func (s *EmailService) sendMail(to []string, subject, htmlBody, textBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("SMTP is not configured")
	}

	from := fmt.Sprintf("%s <%s>", s.cfg.SMTPFromName, s.cfg.SMTPFromAddr)
	boundary := "nomadland-mail-boundary"

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%s\r\n", boundary))
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(textBody)
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	// Port 465 expects implicit TLS; everything else uses STARTTLS when offered
	if s.cfg.SMTPPort == 465 {
		return s.sendMailTLS(addr, auth, to, msg.String())
	}

	if err := smtp.SendMail(addr, auth, s.cfg.SMTPFromAddr, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// sendMailTLS sends over an implicit-TLS connection (typically port 465)
func (s *EmailService) sendMailTLS(addr string, auth smtp.Auth, to []string, msg string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.SMTPHost})
	if err != nil {
		return fmt.Errorf("failed to connect with TLS: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(s.cfg.SMTPFromAddr); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}
