package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/shotclock/go/internal/panel"
)

type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "shotclock",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Connect dials NATS with reconnect handling that only logs.
func Connect(cfg NATSConfig) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("shotclock"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// msgPublisher is the subset of *nats.Conn used for publishing.
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// Envelope is the JSON body of a published buzzer event.
type Envelope struct {
	EventID   string         `json:"eventId"`
	EventType string         `json:"eventType"`
	PanelID   string         `json:"panelId"`
	PulseMS   int64          `json:"pulseMs"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   panel.Snapshot `json:"payload"`
}

// NATSPublisher publishes expiry events so remote buzzers can react to them.
type NATSPublisher struct {
	conn   msgPublisher
	prefix string
}

func NewNATSPublisher(conn msgPublisher, subjectPrefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: subjectPrefix}
}

// Subject returns <prefix>.panel.<panel id>.<event>.
func (p *NATSPublisher) Subject(n panel.Notification) string {
	return fmt.Sprintf("%s.panel.%s.%s", p.prefix, n.PanelID, strings.ToLower(n.Event.String()))
}

// Publish sends n and reports any failure.
func (p *NATSPublisher) Publish(n panel.Notification) error {
	env := Envelope{
		EventID:   uuid.NewString(),
		EventType: n.Event.String(),
		PanelID:   n.PanelID,
		PulseMS:   n.Pulse.Milliseconds(),
		Timestamp: n.At.UTC(),
		Payload:   n.Snapshot,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := p.Subject(n)
	err = p.conn.PublishMsg(&nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{env.EventType},
			"Panel-ID":   []string{env.PanelID},
			"Event-ID":   []string{env.EventID},
		},
	})
	if err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", env.EventID).
		Int("size", len(data)).
		Msg("published buzzer event")
	return nil
}

// Notify publishes n, logging instead of returning failures.
func (p *NATSPublisher) Notify(_ context.Context, n panel.Notification) {
	if err := p.Publish(n); err != nil {
		log.Error().Err(err).Str("panel_id", n.PanelID).Str("event", n.Event.String()).Msg("failed to publish buzzer event")
	}
}
