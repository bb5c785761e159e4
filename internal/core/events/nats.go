// Package events publishes card change notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/duynhne/card-service/config"
	"github.com/duynhne/card-service/internal/core/domain"
)

// NATSPublisher publishes CardEvents as JSON on "<prefix>.<type>".
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// Connect dials NATS using NATS_URL and the optional NATS_TOKEN.
func Connect(cfg *config.EventsConfig, serviceName string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(serviceName),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS %s: %w", cfg.URL, err)
	}
	return NewNATSPublisher(conn, cfg.SubjectPrefix), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

// Publish sends the event; delivery is fire-and-forget.
func (p *NATSPublisher) Publish(ctx context.Context, event domain.CardEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	if err := p.conn.Publish(p.Subject(event.Type), data); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}

// Noop discards events; used when NATS_URL is unset.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, domain.CardEvent) error { return nil }
