// Package events publishes post lifecycle events to a message broker.
// Publishing is best-effort: a broker failure is logged and never fails
// the mutation that triggered it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/wanderblog/apiserver/config"
	"github.com/wanderblog/apiserver/types"
)

// Channel is the broker channel post lifecycle events are published to.
const Channel = "post-events"

const (
	PostCreated = "post.created"
	PostUpdated = "post.updated"
	PostDeleted = "post.deleted"
)

// Backend defines the broker-agnostic operations used by the publisher.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// NewBackend constructs the configured broker backend. A nil Backend with
// a nil error means events are disabled.
func NewBackend(ctx context.Context, cfg config.MQConfig) (Backend, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		return NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq backend: %s", cfg.Backend)
	}
}

// Publisher fans post mutations out to the configured broker. A Publisher
// with a nil backend is a valid disabled instance.
type Publisher struct {
	backend Backend
	logger  *slog.Logger
}

func NewPublisher(backend Backend, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{backend: backend, logger: logger}
}

// Enabled reports whether a broker backend is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.backend != nil
}

// PostEvent publishes one of the post.* events with the post as payload.
func (p *Publisher) PostEvent(ctx context.Context, event string, post types.Post) {
	if !p.Enabled() {
		return
	}

	data, err := json.Marshal(post)
	if err != nil {
		p.logger.Warn("post event not published", "event", event, "post", post.ID, "error", err)
		return
	}

	attrs := map[string]string{"event": event}
	if _, err := p.backend.Publish(ctx, Channel, data, attrs); err != nil {
		p.logger.Warn("post event not published", "event", event, "post", post.ID, "error", err)
	}
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.backend.Close()
}
