package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"

	"github.com/redmonkez12/go-auth-flow/internal/logging"
	"github.com/redmonkez12/go-auth-flow/templates"
)

const verificationSubject = "Verification mail"

var verificationTemplate = template.Must(template.ParseFS(templates.EmailFS, "email/verification.html"))

type verificationData struct {
	Name             string
	VerificationLink string
}

// Service sends verification mail through an SMTP relay.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	logger       *logging.Logger
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromEmail string, logger *logging.Logger) *Service {
	if fromEmail == "" {
		fromEmail = smtpUser
	}
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    fromEmail,
		logger:       logger,
	}
}

// SendVerificationEmail sends the verification link to toEmail.
// The SMTP exchange is abandoned when ctx is done.
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, name, link string) error {
	body, err := renderVerificationEmail(name, link)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(ctx, toEmail, verificationSubject, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("verification email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(s.smtpHost, s.smtpPort))
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.smtpHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.smtpHost}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.smtpUser != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(s.fromEmail); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(buildMessage(s.fromEmail, to, subject, body)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}

	return client.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

func renderVerificationEmail(name, link string) (string, error) {
	var buf bytes.Buffer
	data := verificationData{Name: name, VerificationLink: link}
	if err := verificationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
