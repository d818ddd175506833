package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/trivia/go/internal/trivia/events"
	"github.com/rs/zerolog/log"
)

// Conn is the publishing side of a NATS connection.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher fans session events out over NATS so every instance's Relay can deliver
// them to its own websocket clients. It implements session.Broadcaster.
type Publisher struct {
	conn   Conn
	prefix string
}

func NewPublisher(conn Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultConfig().SubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix}
}

func (p *Publisher) Broadcast(roomID string, event events.Type, data any) {
	p.publish(RoomSubject(p.prefix, roomID, event), Envelope{EventType: event, RoomID: roomID}, data)
}

func (p *Publisher) NotifyUser(userID string, event events.Type, data any) {
	p.publish(UserSubject(p.prefix, userID, event), Envelope{EventType: event, UserID: userID}, data)
}

func (p *Publisher) Join(roomID, socketID string) {
	p.publish(MembershipSubject(p.prefix, MembershipJoin), Envelope{RoomID: roomID, SocketID: socketID}, nil)
}

func (p *Publisher) Leave(roomID, socketID string) {
	p.publish(MembershipSubject(p.prefix, MembershipLeave), Envelope{RoomID: roomID, SocketID: socketID}, nil)
}

func (p *Publisher) publish(subject string, envelope Envelope, data any) {
	messageBytes, err := p.encode(envelope, data)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to encode bus event")
		return
	}

	if err := p.conn.Publish(subject, messageBytes); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to publish bus event")
	}
}

func (p *Publisher) encode(envelope Envelope, data any) ([]byte, error) {
	envelope.EventID = uuid.New().String()
	envelope.Timestamp = time.Now().UTC()

	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		envelope.Payload = payload
	}

	messageBytes, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return messageBytes, nil
}
