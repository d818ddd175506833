package session

import (
	"slices"
	"time"

	"github.com/mcdev12/trivia/go/internal/trivia/question"
)

// ListItem is the directory listing entry of a session.
type ListItem struct {
	GameID      string     `json:"gameID"`
	Name        string     `json:"name"`
	Host        PlayerData `json:"host"`
	PlayerCount int        `json:"playerCount"`
	HasPassword bool       `json:"hasPassword"`
	MaxPlayers  int        `json:"maxPlayers"`
}

type PlayerState struct {
	IsPlaying bool       `json:"isPlaying"`
	User      PlayerData `json:"user"`
	Points    int        `json:"points"`
	Answer    int        `json:"answer"`
}

// PublicQuestion is the client view of the current question. CorrectAnswer is nil
// until the round has ended.
type PublicQuestion struct {
	Prompt        string              `json:"prompt"`
	Answers       []string            `json:"answers"`
	CorrectAnswer *int                `json:"correctAnswer,omitempty"`
	Category      string              `json:"category,omitempty"`
	Difficulty    question.Difficulty `json:"difficulty,omitempty"`
}

// GameState is the full snapshot clients fetch after an INVALIDATE.
type GameState struct {
	ListItem
	Players        []PlayerState   `json:"players"`
	GameMode       Mode            `json:"gameMode"`
	Phase          Phase           `json:"phase"`
	RoundIndex     int             `json:"roundIndex"`
	NumberOfRounds int             `json:"numberOfRounds"`
	Question       *PublicQuestion `json:"question,omitempty"`
	Deadline       *time.Time      `json:"deadline,omitempty"`
}

func (s *Session) ListItem() ListItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listItemLocked()
}

func (s *Session) listItemLocked() ListItem {
	return ListItem{
		GameID:      s.ID(),
		Name:        s.options.Name,
		Host:        s.host.PlayerData(),
		PlayerCount: s.roster.Len(),
		HasPassword: s.password != nil,
		MaxPlayers:  s.options.MaxPlayers,
	}
}

func (s *Session) GameState() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := GameState{
		ListItem:       s.listItemLocked(),
		Players:        make([]PlayerState, 0, s.roster.Len()),
		GameMode:       s.mode,
		Phase:          s.phase,
		RoundIndex:     s.roundIndex + 1,
		NumberOfRounds: s.options.NumberOfRounds,
	}

	for _, p := range s.roster.Players() {
		state.Players = append(state.Players, PlayerState{
			IsPlaying: p.IsPlaying,
			User:      p.User.PlayerData(),
			Points:    p.Points,
			Answer:    p.Answer,
		})
	}

	if s.question != nil {
		q := &PublicQuestion{
			Prompt:     s.question.Prompt,
			Answers:    slices.Clone(s.question.Answers),
			Category:   s.question.Category,
			Difficulty: s.question.Difficulty,
		}
		if s.revealed {
			correct := s.question.Correct
			q.CorrectAnswer = &correct
		}
		state.Question = q
	}

	if !s.deadline.IsZero() {
		deadline := s.deadline
		state.Deadline = &deadline
	}

	return state
}
