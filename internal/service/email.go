package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pageza/pantrypal/backend/config"
	"github.com/pageza/pantrypal/backend/internal/models"
)

// ContactMessage is a submission of the public contact form.
type ContactMessage struct {
	Name    string
	Email   string
	Message string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailService struct {
	smtpHost        string
	smtpPort        string
	smtpUsername    string
	smtpPassword    string
	fromEmail       string
	fromName        string
	contactReceiver string
	sendMail        sendMailFunc
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		smtpHost:        cfg.SMTPHost,
		smtpPort:        cfg.SMTPPort,
		smtpUsername:    cfg.SMTPUsername,
		smtpPassword:    cfg.SMTPPassword,
		fromEmail:       cfg.EmailFrom,
		fromName:        cfg.EmailFromName,
		contactReceiver: cfg.ContactReceiver,
		sendMail:        smtp.SendMail,
	}
}

var (
	resetTemplate = template.Must(template.New("reset").Parse(`<div style="padding: 20px; font-family: Arial;">
  <h2>Password Reset Request</h2>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>You have requested to reset your password.</p>
  <p>Click the link below to reset:</p>
  <a href="{{.URL}}" style="display:inline-block; padding:10px 20px; background:#B57655; color:white; text-decoration:none; border-radius:5px;">Reset Your Password</a>
  <p style="margin-top:20px;">This link expires in 15 minutes. If you didn't request this, ignore this email.</p>
  <p>PantryPal Team</p>
</div>`))

	contactNotificationTemplate = template.Must(template.New("contact").Parse(`<div style="font-family: Arial; padding: 20px;">
  <h2>New Contact Form Message</h2>
  <p><strong>Name:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> {{.Email}}</p>
  <p><strong>Message:</strong></p>
  <p>{{.Message}}</p>
</div>`))

	contactConfirmationTemplate = template.Must(template.New("confirmation").Parse(`<div style="font-family: Arial; padding: 20px;">
  <h2>Thank You for Contacting PantryPal!</h2>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>We received your message and will get back to you soon.</p>
  <p>Here is a copy of your message:</p>
  <blockquote>{{.Message}}</blockquote>
  <p>PantryPal Support Team</p>
</div>`))
)

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, user *models.User, resetURL string) error {
	body, err := render(resetTemplate, struct{ Name, URL string }{user.Name, resetURL})
	if err != nil {
		return err
	}
	return s.SendEmail(ctx, user.Email, "Reset Your Password - PantryPal", body)
}

func (s *EmailService) SendContactNotification(ctx context.Context, msg ContactMessage) error {
	to := s.contactReceiver
	if to == "" {
		to = s.fromEmail
	}
	body, err := render(contactNotificationTemplate, msg)
	if err != nil {
		return err
	}
	caser := cases.Title(language.English)
	return s.SendEmail(ctx, to, "New Contact Form Submission from "+caser.String(msg.Name), body)
}

func (s *EmailService) SendContactConfirmation(ctx context.Context, msg ContactMessage) error {
	body, err := render(contactConfirmationTemplate, msg)
	if err != nil {
		return err
	}
	return s.SendEmail(ctx, msg.Email, "We Received Your Message - PantryPal", body)
}

func (s *EmailService) SendEmail(ctx context.Context, to, subject, body string) error {
	// If SMTP is not configured, log the email instead
	if s.smtpHost == "" || s.smtpPort == "" {
		log.Ctx(ctx).Info().
			Str("to", to).
			Str("subject", subject).
			Str("body", body).
			Msg("SMTP not configured, logging email")
		return nil
	}

	auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", to, from, sanitizeHeader(subject), body))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	if err := s.sendMail(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// sanitizeHeader keeps user text from injecting extra headers.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
