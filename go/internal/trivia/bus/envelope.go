package bus

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/mcdev12/trivia/go/internal/trivia/events"
)

// Subject kinds under the configured prefix.
const (
	KindRooms      = "rooms"
	KindUsers      = "users"
	KindMembership = "membership"

	MembershipJoin  = "join"
	MembershipLeave = "leave"
)

// Envelope is the message published for every broadcast.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType events.Type     `json:"eventType"`
	RoomID    string          `json:"roomId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	SocketID  string          `json:"socketId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// RoomSubject is <prefix>.rooms.<room>.<event>.
func RoomSubject(prefix, roomID string, event events.Type) string {
	return strings.Join([]string{prefix, KindRooms, token(roomID), token(string(event))}, ".")
}

// UserSubject is <prefix>.users.<user>.<event>.
func UserSubject(prefix, userID string, event events.Type) string {
	return strings.Join([]string{prefix, KindUsers, token(userID), token(string(event))}, ".")
}

// MembershipSubject is <prefix>.membership.<join|leave>.
func MembershipSubject(prefix, action string) string {
	return strings.Join([]string{prefix, KindMembership, action}, ".")
}

// kindOf returns the subject kind following prefix, or "" when subject is outside it.
func kindOf(prefix, subject string) string {
	rest, ok := strings.CutPrefix(subject, prefix+".")
	if !ok {
		return ""
	}
	kind, _, _ := strings.Cut(rest, ".")
	return kind
}

var tokenReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

// token makes s usable as a single subject token. Ids travel in the envelope, so
// the mapping does not need to be reversible.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return tokenReplacer.Replace(s)
}
