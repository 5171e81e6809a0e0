package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"

	gomail "github.com/wneessen/go-mail"

	"crcsite/internal/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Mailer renders and delivers the site's transactional email over SMTP.
type Mailer struct {
	client    *gomail.Client
	from      string
	adminTo   string
	domain    string
	templates *template.Template
}

func New(cfg config.SMTPConfig, domain string) (*Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	templates, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Mailer{
		client:    client,
		from:      cfg.From,
		adminTo:   cfg.AdminTo,
		domain:    domain,
		templates: templates,
	}, nil
}

// SendContactMessage forwards a contact-form submission to the site
// owner. senderEmail may be empty for anonymous submissions.
func (m *Mailer) SendContactMessage(ctx context.Context, first, last, message, senderEmail, category string) error {
	body, err := m.render("contact.txt.tmpl", map[string]string{
		"First":    first,
		"Last":     last,
		"Message":  message,
		"Email":    senderEmail,
		"Category": category,
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Site User Message : %s %s", first, last)
	return m.send(ctx, m.adminTo, subject, body)
}

// SendWelcome greets a new account and notifies the site owner of the
// registration.
func (m *Mailer) SendWelcome(ctx context.Context, email string) error {
	body, err := m.render("welcome.txt.tmpl", map[string]string{
		"Email":   email,
		"SiteURL": fmt.Sprintf("http://%s/login", m.domain),
	})
	if err != nil {
		return err
	}

	if err := m.send(ctx, email, "Welcome", body); err != nil {
		return err
	}
	return m.send(ctx, m.adminTo, "New User", email)
}

// SendRecovery emails the password-reset link carrying the token.
func (m *Mailer) SendRecovery(ctx context.Context, email, token string) error {
	body, err := m.render("password_reset.txt.tmpl", map[string]string{
		"Email":    email,
		"ResetURL": fmt.Sprintf("http://%s/reset?token=%s", m.domain, token),
	})
	if err != nil {
		return err
	}

	return m.send(ctx, email, "Password Reset", body)
}

func (m *Mailer) render(name string, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send %q to %s: %w", subject, to, err)
	}
	return nil
}
