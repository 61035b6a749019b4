package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers auth notification emails. Callers treat sends as
// fire-and-forget; errors are returned for logging only.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

func NewSMTPMailer(host string, port int, user, password, from, baseURL string) *SMTPMailer {
	return &SMTPMailer{
		dialer:  gomail.NewDialer(host, port, user, password),
		from:    from,
		baseURL: baseURL,
	}
}

func (m *SMTPMailer) SendVerificationEmail(to, token string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your email address")

	body := fmt.Sprintf(`
		<h3>Welcome!</h3>
		<p>Please confirm your email address by following the link below:</p>
		<p><a href="%s/verify-email?token=%s">Verify email</a></p>
		<p>If you did not create an account, you can ignore this email.</p>
	`, m.baseURL, token)

	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

func (m *SMTPMailer) SendPasswordResetEmail(to, token string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password reset request")

	body := fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>We received a request to reset the password for your account.</p>
		<p><a href="%s/reset-password?token=%s">Reset password</a></p>
		<p>The link expires in one hour. If you did not request this change,
		you can ignore this email.</p>
	`, m.baseURL, token)

	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}
