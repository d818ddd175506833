package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/trivia/go/internal/trivia/question"
)

var (
	ErrDisposed       = errors.New("session disposed")
	ErrAlreadyStarted = errors.New("game already started")
	ErrNotInGame      = errors.New("game not started")
	ErrNoActiveRound  = errors.New("no active round")
	ErrPlayerNotFound = errors.New("player not found")
	ErrAlreadyJoined  = errors.New("player already joined")
	ErrInvalidAnswer  = errors.New("answer out of range")
	ErrInvalidOptions = errors.New("invalid game options")
	ErrInvalidUser    = errors.New("invalid user")
)

const (
	// Unanswered is a player's answer until they submit one in the current round.
	Unanswered = -1
	// PointsPerCorrectAnswer is awarded at the end of each round.
	PointsPerCorrectAnswer = 5

	DefaultNumberOfRounds = 10
	DefaultMaxPlayers     = 8
)

// Mode is the top-level game mode. The string values are part of the client contract.
type Mode string

const (
	ModeLobby Mode = "mode-lobby"
	ModeGame  Mode = "mode-game"
)

// Phase is the position inside a round while in ModeGame.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseFetching  Phase = "fetching"
	PhaseAnswering Phase = "answering"
	PhaseResults   Phase = "results"
)

// Options are chosen by the host and fixed for the lifetime of the session.
type Options struct {
	Name           string              `json:"name"`
	Password       *string             `json:"password,omitempty"`
	MaxPlayers     int                 `json:"maxPlayers"`
	NumberOfRounds int                 `json:"numberOfRounds"`
	Category       int                 `json:"category"`
	Difficulty     question.Difficulty `json:"difficulty"`
}

func (o Options) normalized() (Options, error) {
	if o.Name == "" {
		return o, fmt.Errorf("%w: name is required", ErrInvalidOptions)
	}
	if !o.Difficulty.Valid() {
		return o, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidOptions, o.Difficulty)
	}
	if o.Category < 0 {
		return o, fmt.Errorf("%w: category must not be negative", ErrInvalidOptions)
	}
	if o.NumberOfRounds <= 0 {
		o.NumberOfRounds = DefaultNumberOfRounds
	}
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = DefaultMaxPlayers
	}
	return o, nil
}

// Timing holds the round clock settings.
type Timing struct {
	QuestionDuration time.Duration
	ResultsDuration  time.Duration
	TickInterval     time.Duration
	FetchTimeout     time.Duration
}

// DefaultTiming matches the classic game: 5s to answer, 3s of results, 50ms ticks.
func DefaultTiming() Timing {
	return Timing{
		QuestionDuration: 5 * time.Second,
		ResultsDuration:  3 * time.Second,
		TickInterval:     50 * time.Millisecond,
		FetchTimeout:     15 * time.Second,
	}
}

func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.QuestionDuration <= 0 {
		t.QuestionDuration = d.QuestionDuration
	}
	if t.ResultsDuration <= 0 {
		t.ResultsDuration = d.ResultsDuration
	}
	if t.TickInterval <= 0 {
		t.TickInterval = d.TickInterval
	}
	if t.FetchTimeout <= 0 {
		t.FetchTimeout = d.FetchTimeout
	}
	return t
}

// User is the caller-supplied identity of a participant. The session does not own it.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	CurrentSkin string `json:"currentSkin,omitempty"`
	Level       int    `json:"level"`
	Experience  int    `json:"experience"`
	IsGuest     bool   `json:"isGuest"`
	// SocketID is the transport handle used to subscribe the user to the room.
	SocketID string `json:"socketId,omitempty"`
}

// PlayerData is the light user projection shown to other players.
type PlayerData struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	CurrentSkin string `json:"currentSkin,omitempty"`
	Level       int    `json:"level"`
	Experience  int    `json:"experience"`
	IsGuest     bool   `json:"isGuest"`
}

func (u User) PlayerData() PlayerData {
	return PlayerData{
		ID:          u.ID,
		Username:    u.Username,
		CurrentSkin: u.CurrentSkin,
		Level:       u.Level,
		Experience:  u.Experience,
		IsGuest:     u.IsGuest,
	}
}

// Player is a roster entry.
type Player struct {
	User      User
	IsPlaying bool
	Answer    int
	Points    int
}

func newPlayer(u User) *Player {
	return &Player{User: u, Answer: Unanswered}
}
