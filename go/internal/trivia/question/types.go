package question

import (
	"errors"
	"time"
)

var (
	// ErrInvalidQuestion marks a payload that failed validation.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrNoQuestion is returned when no fetched, cached or fallback question is available.
	ErrNoQuestion = errors.New("no question available")
)

// Difficulty selects question difficulty. The empty value means any.
type Difficulty string

const (
	DifficultyAny    Difficulty = ""
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a difficulty the question source understands.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyAny, DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is a validated, shuffled question. Correct indexes into Answers and must
// be kept away from client-facing views until the round is over.
type Question struct {
	Prompt     string
	Answers    []string
	Correct    int
	Category   string
	Difficulty Difficulty
}

// Config bounds the fetch-until-valid loop.
type Config struct {
	MaxAttempts  uint
	Backoff      time.Duration
	QuestionType string
}

// DefaultConfig returns the provider defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		Backoff:      500 * time.Millisecond,
		QuestionType: "multiple",
	}
}
