package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/trivia/go/internal/trivia/session"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

var ErrUnknownSubject = errors.New("unknown subject")

// Subscriber is the consuming side of a NATS connection.
type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Relay replays bus envelopes into the local connection manager.
type Relay struct {
	conn   Subscriber
	local  session.Broadcaster
	prefix string
}

func NewRelay(conn Subscriber, local session.Broadcaster, prefix string) *Relay {
	if prefix == "" {
		prefix = DefaultConfig().SubjectPrefix
	}
	return &Relay{conn: conn, local: local, prefix: prefix}
}

// Start subscribes to <prefix>.> and blocks until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	subject := r.prefix + ".>"
	sub, err := r.conn.Subscribe(subject, r.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	log.Info().Str("subject", subject).Msg("bus relay started")

	<-ctx.Done()

	log.Info().Msg("bus relay shutting down")
	if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (r *Relay) handle(msg *nats.Msg) {
	if err := r.processMessage(msg.Subject, msg.Data); err != nil {
		log.Error().
			Err(err).
			Str("subject", msg.Subject).
			Msg("failed to process bus message")
	}
}

func (r *Relay) processMessage(subject string, data []byte) error {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}

	var payload any
	if len(envelope.Payload) > 0 {
		payload = envelope.Payload
	}

	switch kindOf(r.prefix, subject) {
	case KindRooms:
		r.local.Broadcast(envelope.RoomID, envelope.EventType, payload)
	case KindUsers:
		r.local.NotifyUser(envelope.UserID, envelope.EventType, payload)
	case KindMembership:
		switch subject {
		case MembershipSubject(r.prefix, MembershipJoin):
			r.local.Join(envelope.RoomID, envelope.SocketID)
		case MembershipSubject(r.prefix, MembershipLeave):
			r.local.Leave(envelope.RoomID, envelope.SocketID)
		default:
			return fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
	}

	log.Debug().
		Str("event_id", envelope.EventID).
		Str("event_type", string(envelope.EventType)).
		Str("subject", subject).
		Msg("bus event relayed")

	return nil
}
