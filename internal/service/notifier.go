package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/observability"
	"github.com/boddenberg/lead-console-go/internal/infra/resilience"
	"github.com/boddenberg/lead-console-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var notifyTracer = otel.Tracer("service/notify")

// DefaultWhatsAppTemplate is rendered with a domain.LeadNotification.
const DefaultWhatsAppTemplate = `Halo {{.AdminName}}, ada lead baru!
Nama: {{.LeadName}}
No. HP: {{.LeadPhone}}
Produk: {{.ProductName}}{{if .PackageName}} - {{.PackageName}}{{end}}
Sumber: {{.Source}}`

// EmailSender is the optional email channel.
type EmailSender interface {
	SendLead(ctx context.Context, n *domain.LeadNotification) error
}

// Notifier renders a lead notification and sends it on every configured
// channel.
type Notifier struct {
	messenger port.Messenger
	email     EmailSender
	tmpl      *template.Template
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewNotifier parses tmpl (DefaultWhatsAppTemplate when empty). email may
// be nil.
func NewNotifier(messenger port.Messenger, email EmailSender, tmpl string, metrics *observability.Metrics, logger *zap.Logger) (*Notifier, error) {
	if tmpl == "" {
		tmpl = DefaultWhatsAppTemplate
	}
	t, err := template.New("whatsapp").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse whatsapp template: %w", err)
	}
	return &Notifier{messenger: messenger, email: email, tmpl: t, metrics: metrics, logger: logger}, nil
}

// Render returns the WhatsApp text for n.
func (n *Notifier) Render(ln *domain.LeadNotification) (string, error) {
	var buf bytes.Buffer
	if err := n.tmpl.Execute(&buf, ln); err != nil {
		return "", fmt.Errorf("render whatsapp message: %w", err)
	}
	return buf.String(), nil
}

// Notify sends ln on each channel. Every failure is logged and counted;
// the joined failures are returned so a queue consumer can dead-letter.
func (n *Notifier) Notify(ctx context.Context, ln *domain.LeadNotification) error {
	ctx, span := notifyTracer.Start(ctx, "Notifier.Notify")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", ln.LeadID), attribute.String("admin.id", ln.AdminID))

	var errs []error

	if ln.WhatsApp != "" {
		text, err := n.Render(ln)
		if err == nil {
			err = n.messenger.Send(ctx, ln.WhatsApp, text)
		}
		n.record("whatsapp", ln, err)
		errs = append(errs, err)
	}

	if n.email != nil && ln.AdminEmail != "" {
		err := n.email.SendLead(ctx, ln)
		n.record("email", ln, err)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (n *Notifier) record(channel string, ln *domain.LeadNotification, err error) {
	if err != nil {
		n.metrics.IncrNotification(channel, "failed")
		n.logger.Warn("lead notification failed",
			zap.String("channel", channel),
			zap.String("lead_id", ln.LeadID),
			zap.String("admin_id", ln.AdminID),
			zap.Error(err),
		)
		return
	}
	n.metrics.IncrNotification(channel, "sent")
}

// Dispatcher hands a notification off without blocking the caller.
// Dispatch never reports failure.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *domain.LeadNotification)
}

// AsyncDispatcher runs the notifier in a goroutine bounded by a bulkhead.
// When every slot is busy the notification is dropped.
type AsyncDispatcher struct {
	notifier *Notifier
	bulkhead *resilience.Bulkhead
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewAsyncDispatcher(notifier *Notifier, bulkhead *resilience.Bulkhead, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{notifier: notifier, bulkhead: bulkhead, timeout: timeout, metrics: metrics, logger: logger}
}

func (d *AsyncDispatcher) Dispatch(_ context.Context, n *domain.LeadNotification) {
	if !d.bulkhead.TryAcquire() {
		d.metrics.IncrNotification("dispatch", "dropped")
		d.logger.Warn("notification dropped: dispatcher saturated", zap.String("lead_id", n.LeadID))
		return
	}
	go func() {
		defer d.bulkhead.Release()
		// Detached from the request: the response is already on its way.
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		_ = d.notifier.Notify(ctx, n)
	}()
}

// QueueDispatcher publishes notifications for the worker to deliver.
type QueueDispatcher struct {
	publisher port.NotificationPublisher
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewQueueDispatcher(publisher port.NotificationPublisher, metrics *observability.Metrics, logger *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher, metrics: metrics, logger: logger}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, n *domain.LeadNotification) {
	if err := d.publisher.Publish(ctx, n); err != nil {
		d.metrics.IncrNotification("queue", "failed")
		d.logger.Warn("notification publish failed", zap.String("lead_id", n.LeadID), zap.Error(err))
		return
	}
	d.metrics.IncrNotification("queue", "published")
}
