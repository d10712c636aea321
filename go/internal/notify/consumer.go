package notify

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// msgSubscriber is the subset of *nats.Conn used for subscribing.
type msgSubscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// SubjectFilter matches every buzzer event published under prefix.
func SubjectFilter(prefix string) string {
	return prefix + ".panel.>"
}

// DecodeEnvelope parses a published buzzer event.
func DecodeEnvelope(msg *nats.Msg) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return env, nil
}

// Subscribe delivers every buzzer event under prefix to handle. Messages that
// cannot be decoded are logged and skipped.
func Subscribe(conn msgSubscriber, prefix string, handle func(subject string, env Envelope)) (*nats.Subscription, error) {
	subject := SubjectFilter(prefix)
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		env, err := DecodeEnvelope(msg)
		if err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("skipping malformed buzzer event")
			return
		}
		handle(msg.Subject, env)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	return sub, nil
}
