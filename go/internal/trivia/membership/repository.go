package membership

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
)

var ErrUserNotFound = errors.New("user not found")

//go:embed schema.sql
var schema string

const setCurrentRoom = `UPDATE users SET current_room = $2, updated_at = now() WHERE id = $1`

// Store persists the room a user is currently in.
type Store interface {
	SetCurrentRoom(ctx context.Context, userID, roomID string) error
}

// DBTX is what the repository needs from the database layer. *pgxpool.Pool satisfies it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository implements Store on Postgres
type Repository struct {
	db DBTX
}

// NewRepository creates a new membership repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the users table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply membership schema: %w", err)
	}
	return nil
}

// SetCurrentRoom records roomID for the user. An empty roomID clears it.
func (r *Repository) SetCurrentRoom(ctx context.Context, userID, roomID string) error {
	tag, err := r.db.Exec(ctx, setCurrentRoom, userID, roomID)
	if err != nil {
		return fmt.Errorf("failed to set current room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return nil
}

// MemoryStore keeps memberships in process for local runs without Postgres.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]string)}
}

func (s *MemoryStore) SetCurrentRoom(_ context.Context, userID, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if roomID == "" {
		delete(s.rooms, userID)
		return nil
	}
	s.rooms[userID] = roomID
	return nil
}

// CurrentRoom returns the recorded room, or "" when the user is not in one.
func (s *MemoryStore) CurrentRoom(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[userID]
}
