package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender delivers transactional merchant emails over plain SMTP
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates a sender for the given SMTP endpoint. Username may be
// empty for unauthenticated relays.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

var sendMail = smtp.SendMail

func (s *SMTPSender) send(to, subject, body string) error {
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := sendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

// SendWelcome delivers the generated login credential after registration
// completes. The credential travels only through this channel.
func (s *SMTPSender) SendWelcome(ctx context.Context, to, businessName, username, password string) error {
	body := fmt.Sprintf(
		"Welcome to RAPEX, %s!\n\n"+
			"Your merchant registration has been received and is pending review.\n\n"+
			"Your login credentials:\n"+
			"Username: %s\n"+
			"Password: %s\n\n"+
			"Please change your password after your first login.\n",
		businessName, username, password)
	return s.send(to, "Your RAPEX merchant account", body)
}

// SendOTP delivers a password reset code
func (s *SMTPSender) SendOTP(ctx context.Context, to, code string) error {
	body := fmt.Sprintf(
		"Your RAPEX password reset code is: %s\n\n"+
			"This code expires in 10 minutes. If you did not request a password "+
			"reset, you can ignore this email.\n",
		code)
	return s.send(to, "RAPEX password reset code", body)
}

// SendStatusUpdate notifies a merchant that review of their account finished
func (s *SMTPSender) SendStatusUpdate(ctx context.Context, to, businessName, status, notes string) error {
	body := fmt.Sprintf("Hello %s,\n\nYour merchant account status is now: %s.\n", businessName, status)
	if notes != "" {
		body += fmt.Sprintf("\nReviewer notes: %s\n", notes)
	}
	return s.send(to, "RAPEX merchant account update", body)
}
