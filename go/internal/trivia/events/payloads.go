package events

// Event types shared between the session core, the websocket gateway and the bus.

// Type identifies a room or user event.
type Type string

const (
	// Invalidate tells room members that game state changed and should be refetched.
	Invalidate Type = "INVALIDATE"
	// InvalidateUser tells a single user that their own record changed.
	InvalidateUser Type = "INVALIDATE_USER"
	// GameTick carries the live cursor map.
	GameTick Type = "GAME_TICK"
	// EndGame is sent once when the last round's results have been shown.
	EndGame Type = "END_GAME"
	// Connected is sent to a new websocket with its socket id.
	Connected Type = "CONNECTED"
	// MoveCursor is the only inbound client event.
	MoveCursor Type = "MOVE_CURSOR"
)

// Cursor is a cursor position in client coordinates.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TickPayload maps user id to cursor position.
type TickPayload map[string]Cursor

// MoveCursorPayload is sent by clients as they move their cursor.
type MoveCursorPayload struct {
	UserID string  `json:"userID"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// ConnectedPayload tells a client which socket id to present when joining games.
type ConnectedPayload struct {
	SocketID string `json:"socketId"`
	UserID   string `json:"userId"`
}
