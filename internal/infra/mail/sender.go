// Package mail delivers lead notifications by email over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/boddenberg/lead-console-go/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var tracer = otel.Tracer("mail")

const (
	DefaultSubject = "Lead baru: {{.LeadName}} ({{.ProductName}})"
	DefaultBody    = `Halo {{.AdminName}},

Ada lead baru untuk kamu.

Nama    : {{.LeadName}}
Telepon : {{.LeadPhone}}
Produk  : {{.ProductName}}{{if .PackageName}} - {{.PackageName}}{{end}}
Sumber  : {{.Source}}
`
)

// Dialer is the part of gomail.Dialer the sender needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Sender emails a LeadNotification to the assigned admin.
type Sender struct {
	dialer  Dialer
	from    string
	subject *template.Template
	body    *template.Template
	logger  *zap.Logger
}

// NewSMTPDialer builds the gomail dialer for the configured server.
func NewSMTPDialer(host string, port int, user, password string) *gomail.Dialer {
	return gomail.NewDialer(host, port, user, password)
}

// NewSender parses the templates up front. Empty templates fall back to
// the built-in Indonesian text.
func NewSender(dialer Dialer, from, subjectTmpl, bodyTmpl string, logger *zap.Logger) (*Sender, error) {
	if subjectTmpl == "" {
		subjectTmpl = DefaultSubject
	}
	if bodyTmpl == "" {
		bodyTmpl = DefaultBody
	}
	subject, err := template.New("subject").Parse(subjectTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse email subject template: %w", err)
	}
	body, err := template.New("body").Parse(bodyTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse email body template: %w", err)
	}
	return &Sender{dialer: dialer, from: from, subject: subject, body: body, logger: logger}, nil
}

// SendLead emails n to n.AdminEmail. Nothing is sent when the admin has
// no email address.
func (s *Sender) SendLead(ctx context.Context, n *domain.LeadNotification) error {
	_, span := tracer.Start(ctx, "Mail.SendLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", n.LeadID))

	if n.AdminEmail == "" {
		return nil
	}

	m, err := s.Message(n)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Warn("mail: send failed", zap.String("to", n.AdminEmail), zap.Error(err))
		return &domain.ErrExternalService{Service: "smtp", Err: err}
	}
	s.logger.Debug("mail: lead notification sent", zap.String("to", n.AdminEmail))
	return nil
}

// Message renders the email for n without sending it.
func (s *Sender) Message(n *domain.LeadNotification) (*gomail.Message, error) {
	var subject, body bytes.Buffer
	if err := s.subject.Execute(&subject, n); err != nil {
		return nil, fmt.Errorf("render email subject: %w", err)
	}
	if err := s.body.Execute(&body, n); err != nil {
		return nil, fmt.Errorf("render email body: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", n.AdminEmail)
	m.SetHeader("Subject", subject.String())
	m.SetBody("text/plain", body.String())
	return m, nil
}
