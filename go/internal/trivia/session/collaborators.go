package session

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/trivia/go/internal/trivia/events"
	"github.com/mcdev12/trivia/go/internal/trivia/question"
)

// QuestionSource supplies one validated question per round.
type QuestionSource interface {
	Fetch(ctx context.Context, category int, difficulty question.Difficulty) (question.Question, error)
}

// Broadcaster delivers events to the sockets subscribed to a room. Implementations
// must not block; delivery is best effort.
type Broadcaster interface {
	Broadcast(roomID string, event events.Type, data any)
	NotifyUser(userID string, event events.Type, data any)
	Join(roomID, socketID string)
	Leave(roomID, socketID string)
}

// MembershipStore persists which room a user is currently in. An empty roomID
// clears it.
type MembershipStore interface {
	SetCurrentRoom(ctx context.Context, userID, roomID string) error
}

// Deps are the collaborators a session needs. Clock defaults to the real clock.
type Deps struct {
	Questions   QuestionSource
	Broadcaster Broadcaster
	Membership  MembershipStore
	Clock       clockwork.Clock
}
