// Package events publishes the factory's two notifications: template-changed
// and instance-created. Publishing is fire-and-forget; a failed publish is
// logged and never aborts the operation that triggered it.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/natsclient"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

// Subjects the notifications are published on.
const (
	SubjectTemplateChanged = "luxuryx.factory.events.template.changed"
	SubjectInstanceCreated = "luxuryx.factory.events.instance.created"
)

// TemplateChangedEvent is emitted after a template pointer is overwritten.
type TemplateChangedEvent struct {
	Product  types.ProductType `json:"product"`
	Template types.TemplateRef `json:"template"`
	At       time.Time         `json:"at"`
}

// InstanceCreatedEvent is emitted after a deployment is registered.
type InstanceCreatedEvent struct {
	Instance types.InstanceID  `json:"instance"`
	Product  types.ProductType `json:"product"`
	Owner    types.Identity    `json:"owner"`
	At       time.Time         `json:"at"`
}

// Publisher emits factory notifications.
type Publisher interface {
	TemplateChanged(ctx context.Context, product types.ProductType, ref types.TemplateRef)
	InstanceCreated(ctx context.Context, instance types.InstanceID, product types.ProductType, owner types.Identity)
}

// NATSPublisher publishes notifications as plain NATS messages. It is
// nil-connection safe: without a client it silently does nothing, which keeps
// tests and offline tooling free of transport plumbing.
type NATSPublisher struct {
	client  *natsclient.Client
	logger  *slog.Logger
	enabled bool
}

// NewNATSPublisher creates a publisher over the given client.
func NewNATSPublisher(client *natsclient.Client, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{
		client:  client,
		logger:  logger,
		enabled: client != nil,
	}
}

// TemplateChanged publishes a template-changed notification.
func (p *NATSPublisher) TemplateChanged(ctx context.Context, product types.ProductType, ref types.TemplateRef) {
	p.publish(ctx, SubjectTemplateChanged, TemplateChangedEvent{
		Product:  product,
		Template: ref,
		At:       time.Now().UTC(),
	})
}

// InstanceCreated publishes an instance-created notification.
func (p *NATSPublisher) InstanceCreated(
	ctx context.Context, instance types.InstanceID, product types.ProductType, owner types.Identity,
) {
	p.publish(ctx, SubjectInstanceCreated, InstanceCreatedEvent{
		Instance: instance,
		Product:  product,
		Owner:    owner,
		At:       time.Now().UTC(),
	})
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, event any) {
	if !p.enabled {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", "subject", subject, "error", err)
		return
	}

	if err := p.client.Publish(ctx, subject, data); err != nil {
		p.logger.Error("failed to publish event", "subject", subject, "error", err)
	}
}

// Nop is a Publisher that discards all notifications.
type Nop struct{}

// TemplateChanged implements Publisher.
func (Nop) TemplateChanged(context.Context, types.ProductType, types.TemplateRef) {}

// InstanceCreated implements Publisher.
func (Nop) InstanceCreated(context.Context, types.InstanceID, types.ProductType, types.Identity) {}
