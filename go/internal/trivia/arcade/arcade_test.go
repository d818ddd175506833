package arcade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/trivia/go/internal/trivia/events"
	"github.com/mcdev12/trivia/go/internal/trivia/membership"
	"github.com/mcdev12/trivia/go/internal/trivia/question"
	"github.com/mcdev12/trivia/go/internal/trivia/session"
)

type tickRecorder struct {
	mu    sync.Mutex
	ticks map[string]events.TickPayload
}

func (b *tickRecorder) Broadcast(roomID string, event events.Type, data any) {
	if event != events.GameTick {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticks[roomID] = data.(events.TickPayload)
}

func (b *tickRecorder) NotifyUser(string, events.Type, any) {}
func (b *tickRecorder) Join(string, string)                 {}
func (b *tickRecorder) Leave(string, string)                {}

func (b *tickRecorder) last(roomID string) (events.TickPayload, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.ticks[roomID]
	return p, ok
}

type staticQuestions struct{}

func (staticQuestions) Fetch(context.Context, int, question.Difficulty) (question.Question, error) {
	return question.Question{Prompt: "2+2?", Answers: []string{"3", "4", "5", "22"}, Correct: 1}, nil
}

type testEnv struct {
	clock *clockwork.FakeClock
	ticks *tickRecorder
}

func newTestArcade(t *testing.T) (*Arcade, *membership.MemoryStore) {
	a, store, _ := newTestArcadeEnv(t)
	return a, store
}

func newTestArcadeEnv(t *testing.T) (*Arcade, *membership.MemoryStore, testEnv) {
	t.Helper()
	env := testEnv{
		clock: clockwork.NewFakeClock(),
		ticks: &tickRecorder{ticks: make(map[string]events.TickPayload)},
	}
	store := membership.NewMemoryStore()
	a := New(session.Deps{
		Questions:   staticQuestions{},
		Broadcaster: env.ticks,
		Membership:  store,
		Clock:       env.clock,
	}, session.Timing{TickInterval: time.Hour})
	t.Cleanup(func() { a.Close(context.Background()) })
	return a, store, env
}

func user(id string) session.User {
	return session.User{ID: id, Username: id}
}

func TestHostEnrolsHost(t *testing.T) {
	a, store := newTestArcade(t)
	ctx := context.Background()

	s, err := a.Host(ctx, user("alice"), session.Options{Name: "quiz night"})
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if !s.HasPlayer("alice") || s.HostID() != "alice" {
		t.Fatalf("host not enrolled")
	}
	if got := store.CurrentRoom("alice"); got != s.ID() {
		t.Fatalf("expected membership %s, got %q", s.ID(), got)
	}
	if gameID, ok := a.CurrentGame("alice"); !ok || gameID != s.ID() {
		t.Fatalf("current game not tracked")
	}

	if _, err := a.Host(ctx, user("bob"), session.Options{Name: "quiz night"}); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if _, err := a.Host(ctx, user("alice"), session.Options{Name: "other"}); !errors.Is(err, ErrAlreadyInGame) {
		t.Fatalf("expected ErrAlreadyInGame, got %v", err)
	}
	if _, err := a.Host(ctx, user("bob"), session.Options{}); !errors.Is(err, session.ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions, got %v", err)
	}
	if items := a.List(); len(items) != 1 {
		t.Fatalf("failed hosts must not register games, got %d", len(items))
	}
}

func TestJoinRules(t *testing.T) {
	a, _ := newTestArcade(t)
	ctx := context.Background()
	secret := "open sesame"

	s, err := a.Host(ctx, user("alice"), session.Options{Name: "locked", Password: &secret, MaxPlayers: 2})
	if err != nil {
		t.Fatalf("host: %v", err)
	}

	tests := []struct {
		name     string
		user     string
		gameID   string
		password string
		want     error
	}{
		{name: "unknown game", user: "bob", gameID: "missing", password: secret, want: ErrGameNotFound},
		{name: "wrong password", user: "bob", gameID: s.ID(), password: "nope", want: ErrWrongPassword},
		{name: "host rejoins", user: "alice", gameID: s.ID(), password: secret, want: ErrAlreadyInGame},
		{name: "ok", user: "bob", gameID: s.ID(), password: secret},
		{name: "full", user: "carol", gameID: s.ID(), password: secret, want: ErrGameFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Join(ctx, user(tt.user), tt.gameID, tt.password)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("join: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if n := s.PlayerCount(); n != 2 {
		t.Fatalf("expected 2 players, got %d", n)
	}
}

func TestLeaveDisposesEmptyGame(t *testing.T) {
	a, store := newTestArcade(t)
	ctx := context.Background()

	s, err := a.Host(ctx, user("alice"), session.Options{Name: "g"})
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if _, err := a.Join(ctx, user("bob"), s.ID(), ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := a.Leave(ctx, "carol"); !errors.Is(err, ErrNotInGame) {
		t.Fatalf("expected ErrNotInGame, got %v", err)
	}

	if err := a.Leave(ctx, "alice"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.Disposed() {
		t.Fatalf("game disposed while bob is still in it")
	}
	if store.CurrentRoom("alice") != "" {
		t.Fatalf("alice membership not cleared")
	}

	if err := a.Leave(ctx, "bob"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if !s.Disposed() {
		t.Fatalf("empty game must be disposed")
	}
	if _, err := a.Get(s.ID()); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}

	// bob is free to host again
	if _, err := a.Host(ctx, user("bob"), session.Options{Name: "g"}); err != nil {
		t.Fatalf("rehost with a freed name: %v", err)
	}
}

func TestHostOnlyControls(t *testing.T) {
	a, _ := newTestArcade(t)
	ctx := context.Background()

	s, err := a.Host(ctx, user("alice"), session.Options{Name: "g"})
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if _, err := a.Join(ctx, user("bob"), s.ID(), ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := a.Start(s.ID(), "bob"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := a.Start("missing", "alice"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	if err := a.Start(s.ID(), "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.Mode() != session.ModeGame {
		t.Fatalf("expected game mode")
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.GameState().Phase != session.PhaseAnswering {
		if time.Now().After(deadline) {
			t.Fatalf("round never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := a.SubmitAnswer(s.ID(), "bob", 1); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := a.EndRound(s.ID(), "bob"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := a.EndRound(s.ID(), "alice"); err != nil {
		t.Fatalf("end round: %v", err)
	}
	for _, p := range s.GameState().Players {
		if p.User.ID == "bob" && p.Points != session.PointsPerCorrectAnswer {
			t.Fatalf("expected bob to score, got %d", p.Points)
		}
	}
}

func TestHostLeavingHandsOverControls(t *testing.T) {
	a, _ := newTestArcade(t)
	ctx := context.Background()

	s, err := a.Host(ctx, user("alice"), session.Options{Name: "g"})
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if _, err := a.Join(ctx, user("bob"), s.ID(), ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := a.Leave(ctx, "alice"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	items := a.List()
	if len(items) != 1 || items[0].Host.ID != "bob" || items[0].PlayerCount != 1 {
		t.Fatalf("expected bob listed as host, got %+v", items)
	}
	if err := a.Start(s.ID(), "alice"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("departed host must not control the game, got %v", err)
	}
	if s.Mode() != session.ModeLobby {
		t.Fatalf("game started by a user who left")
	}
	if err := a.Start(s.ID(), "bob"); err != nil {
		t.Fatalf("start by new host: %v", err)
	}
}

func TestDisposeAndClose(t *testing.T) {
	a, store := newTestArcade(t)
	ctx := context.Background()

	g1, err := a.Host(ctx, user("alice"), session.Options{Name: "one"})
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	g2, err := a.Host(ctx, user("bob"), session.Options{Name: "two"})
	if err != nil {
		t.Fatalf("host: %v", err)
	}

	items := a.List()
	if len(items) != 2 || items[0].Name != "one" || items[1].Name != "two" {
		t.Fatalf("unexpected listing %+v", items)
	}

	if err := a.Dispose(ctx, g1.ID()); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if err := a.Dispose(ctx, g1.ID()); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	if !g1.Disposed() || store.CurrentRoom("alice") != "" {
		t.Fatalf("dispose must clear players and dispose the session")
	}
	if _, ok := a.CurrentGame("alice"); ok {
		t.Fatalf("alice still tracked after dispose")
	}

	a.Close(ctx)
	if !g2.Disposed() || len(a.List()) != 0 {
		t.Fatalf("close must dispose every game")
	}
}

func TestMoveCursorRoutesToRoom(t *testing.T) {
	a, _, env := newTestArcadeEnv(t)
	ctx := context.Background()

	one, err := a.Host(ctx, user("alice"), session.Options{Name: "one"})
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	two, err := a.Host(ctx, user("bob"), session.Options{Name: "two"})
	if err != nil {
		t.Fatalf("host: %v", err)
	}

	a.MoveCursor("missing", "alice", 9, 9)
	a.MoveCursor(one.ID(), "alice", 1, 2)
	a.MoveCursor(two.ID(), "alice", 3, 4) // alice is not in game two

	env.clock.Advance(time.Hour)

	deadline := time.Now().Add(2 * time.Second)
	for {
		p1, ok1 := env.ticks.last(one.ID())
		p2, ok2 := env.ticks.last(two.ID())
		if ok1 && ok2 {
			if len(p1) != 1 || p1["alice"] != (events.Cursor{X: 1, Y: 2}) {
				t.Fatalf("unexpected cursors for game one: %v", p1)
			}
			if len(p2) != 0 {
				t.Fatalf("cursor leaked into game two: %v", p2)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("no tick observed")
		}
		time.Sleep(time.Millisecond)
	}
}
