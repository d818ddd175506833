package arcade

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mcdev12/trivia/go/internal/trivia/session"
	"github.com/rs/zerolog/log"
)

var (
	ErrNameTaken     = errors.New("game name already taken")
	ErrAlreadyInGame = errors.New("user already in a game")
	ErrGameNotFound  = errors.New("game not found")
	ErrWrongPassword = errors.New("wrong password")
	ErrGameFull      = errors.New("game is full")
	ErrNotInGame     = errors.New("user not in a game")
	ErrNotHost       = errors.New("only the host can do that")
)

// Arcade is the registry of live sessions and of which user sits in which one.
// Its methods are the only mutators of the registry.
type Arcade struct {
	deps   session.Deps
	timing session.Timing

	mu       sync.RWMutex
	sessions map[string]*session.Session
	userGame map[string]string // user id -> game id
	seats    map[string]int    // game id -> reserved seats
}

func New(deps session.Deps, timing session.Timing) *Arcade {
	return &Arcade{
		deps:     deps,
		timing:   timing,
		sessions: make(map[string]*session.Session),
		userGame: make(map[string]string),
		seats:    make(map[string]int),
	}
}

// Host creates a session named opts.Name and enrols user as its host.
func (a *Arcade) Host(ctx context.Context, user session.User, opts session.Options) (*session.Session, error) {
	a.mu.Lock()
	if _, ok := a.userGame[user.ID]; ok {
		a.mu.Unlock()
		return nil, ErrAlreadyInGame
	}
	for _, s := range a.sessions {
		if s.Name() == opts.Name {
			a.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrNameTaken, opts.Name)
		}
	}

	s, err := session.New(opts, a.timing, user, a.deps)
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}
	a.sessions[s.ID()] = s
	a.reserveLocked(user.ID, s.ID())
	a.mu.Unlock()

	if err := s.AddPlayer(ctx, user); err != nil {
		a.mu.Lock()
		a.releaseLocked(user.ID, s.ID())
		delete(a.sessions, s.ID())
		delete(a.seats, s.ID())
		a.mu.Unlock()
		s.Dispose()
		return nil, fmt.Errorf("failed to enrol host: %w", err)
	}

	log.Info().
		Str("game_id", s.ID()).
		Str("name", s.Name()).
		Str("host_id", user.ID).
		Msg("game hosted")

	return s, nil
}

// Join enrols user in gameID.
func (a *Arcade) Join(ctx context.Context, user session.User, gameID, password string) (*session.Session, error) {
	a.mu.Lock()
	s, ok := a.sessions[gameID]
	if !ok {
		a.mu.Unlock()
		return nil, ErrGameNotFound
	}
	if _, ok := a.userGame[user.ID]; ok {
		a.mu.Unlock()
		return nil, ErrAlreadyInGame
	}
	if !s.CheckPassword(password) {
		a.mu.Unlock()
		return nil, ErrWrongPassword
	}
	if a.seats[gameID] >= s.MaxPlayers() {
		a.mu.Unlock()
		return nil, ErrGameFull
	}
	a.reserveLocked(user.ID, gameID)
	a.mu.Unlock()

	if err := s.AddPlayer(ctx, user); err != nil {
		a.mu.Lock()
		a.releaseLocked(user.ID, gameID)
		a.mu.Unlock()
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	return s, nil
}

// Leave removes userID from its game. A departing host hands the role to the next
// player; the last player out disposes the session.
func (a *Arcade) Leave(ctx context.Context, userID string) error {
	a.mu.Lock()
	gameID, ok := a.userGame[userID]
	if !ok {
		a.mu.Unlock()
		return ErrNotInGame
	}
	a.releaseLocked(userID, gameID)
	s := a.sessions[gameID]
	empty := a.seats[gameID] == 0
	if empty {
		delete(a.sessions, gameID)
		delete(a.seats, gameID)
	}
	a.mu.Unlock()

	if s == nil {
		return nil
	}
	if err := s.RemovePlayer(ctx, userID); err != nil && !errors.Is(err, session.ErrPlayerNotFound) {
		return err
	}
	if empty {
		s.Dispose()
		log.Info().Str("game_id", gameID).Msg("last player left, game removed")
	}
	return nil
}

// List returns the listing of every live session ordered by name.
func (a *Arcade) List() []session.ListItem {
	a.mu.RLock()
	sessions := make([]*session.Session, 0, len(a.sessions))
	for _, s := range a.sessions {
		sessions = append(sessions, s)
	}
	a.mu.RUnlock()

	items := make([]session.ListItem, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, s.ListItem())
	}
	slices.SortFunc(items, func(x, y session.ListItem) int {
		return cmp.Compare(x.Name, y.Name)
	})
	return items
}

func (a *Arcade) Get(gameID string) (*session.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.sessions[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return s, nil
}

// CurrentGame returns the game userID is enrolled in.
func (a *Arcade) CurrentGame(userID string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	gameID, ok := a.userGame[userID]
	return gameID, ok
}

// Start starts gameID on behalf of its host.
func (a *Arcade) Start(gameID, userID string) error {
	s, err := a.hostedBy(gameID, userID)
	if err != nil {
		return err
	}
	return s.Start()
}

// EndRound skips the rest of the answering window on behalf of the host.
func (a *Arcade) EndRound(gameID, userID string) error {
	s, err := a.hostedBy(gameID, userID)
	if err != nil {
		return err
	}
	return s.EndRound()
}

func (a *Arcade) SubmitAnswer(gameID, userID string, answer int) error {
	s, err := a.Get(gameID)
	if err != nil {
		return err
	}
	return s.SubmitAnswer(userID, answer)
}

func (a *Arcade) hostedBy(gameID, userID string) (*session.Session, error) {
	s, err := a.Get(gameID)
	if err != nil {
		return nil, err
	}
	if s.HostID() != userID || !s.HasPlayer(userID) {
		return nil, ErrNotHost
	}
	return s, nil
}

// MoveCursor forwards a cursor move to the room it was sent for.
func (a *Arcade) MoveCursor(roomID, userID string, x, y float64) {
	a.mu.RLock()
	s, ok := a.sessions[roomID]
	a.mu.RUnlock()
	if ok {
		s.MoveCursor(userID, x, y)
	}
}

// Dispose removes gameID, clears its players' memberships and disposes it.
func (a *Arcade) Dispose(ctx context.Context, gameID string) error {
	a.mu.Lock()
	s, ok := a.sessions[gameID]
	if !ok {
		a.mu.Unlock()
		return ErrGameNotFound
	}
	var users []string
	for userID, g := range a.userGame {
		if g == gameID {
			users = append(users, userID)
			delete(a.userGame, userID)
		}
	}
	delete(a.sessions, gameID)
	delete(a.seats, gameID)
	a.mu.Unlock()

	for _, userID := range users {
		if err := s.RemovePlayer(ctx, userID); err != nil && !errors.Is(err, session.ErrPlayerNotFound) {
			log.Warn().Err(err).Str("game_id", gameID).Str("user_id", userID).Msg("failed to remove player")
		}
	}
	s.Dispose()
	return nil
}

// Close disposes every session.
func (a *Arcade) Close(ctx context.Context) {
	a.mu.RLock()
	ids := make([]string, 0, len(a.sessions))
	for id := range a.sessions {
		ids = append(ids, id)
	}
	a.mu.RUnlock()

	for _, id := range ids {
		// ErrGameNotFound only when a concurrent Leave got there first
		_ = a.Dispose(ctx, id)
	}

	log.Info().Int("games", len(ids)).Msg("arcade closed")
}

func (a *Arcade) reserveLocked(userID, gameID string) {
	a.userGame[userID] = gameID
	a.seats[gameID]++
}

func (a *Arcade) releaseLocked(userID, gameID string) {
	delete(a.userGame, userID)
	a.seats[gameID]--
}
