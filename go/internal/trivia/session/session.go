package session

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/trivia/go/internal/trivia/events"
	"github.com/mcdev12/trivia/go/internal/trivia/question"
	"github.com/rs/zerolog/log"
)

// Session is one trivia game instance. All mutations are serialized by mu; the
// lock is never held across the question fetch, membership writes or broadcasts.
type Session struct {
	id       uuid.UUID
	password *string
	options  Options
	timing   Timing

	questions   QuestionSource
	broadcaster Broadcaster
	membership  MembershipStore
	clock       clockwork.Clock

	mu         sync.Mutex
	host       User
	mode       Mode
	phase      Phase
	epoch      uint64 // bumped by every Start; stale callbacks compare against it
	roundIndex int
	question   *question.Question
	revealed   bool
	deadline   time.Time
	roster     *Roster
	cursors    map[string]events.Cursor
	timer      *roundTimer
	disposed   bool

	ctx         context.Context
	cancel      context.CancelFunc
	tick        *tickLoop
	disposeOnce sync.Once
}

// New creates a session in the lobby and starts its cursor tick. The host is not
// enrolled; the directory adds it with AddPlayer.
func New(opts Options, timing Timing, host User, deps Deps) (*Session, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	if host.ID == "" {
		return nil, fmt.Errorf("%w: host id is required", ErrInvalidUser)
	}
	if deps.Questions == nil || deps.Broadcaster == nil || deps.Membership == nil {
		return nil, fmt.Errorf("session: questions, broadcaster and membership are required")
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:          uuid.New(),
		host:        host,
		password:    opts.Password,
		options:     opts,
		timing:      timing.withDefaults(),
		questions:   deps.Questions,
		broadcaster: deps.Broadcaster,
		membership:  deps.Membership,
		clock:       deps.Clock,
		mode:        ModeLobby,
		phase:       PhaseIdle,
		roster:      NewRoster(),
		cursors:     make(map[string]events.Cursor),
		timer:       newRoundTimer(deps.Clock),
		ctx:         ctx,
		cancel:      cancel,
	}
	s.tick = startTickLoop(s.clock, s.timing.TickInterval, s.broadcastTick)

	log.Info().
		Str("game_id", s.id.String()).
		Str("name", opts.Name).
		Str("host_id", host.ID).
		Int("rounds", opts.NumberOfRounds).
		Msg("game created")

	return s, nil
}

func (s *Session) ID() string     { return s.id.String() }
func (s *Session) Name() string   { return s.options.Name }

func (s *Session) HostID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host.ID
}

func (s *Session) MaxPlayers() int {
	return s.options.MaxPlayers
}

// CheckPassword compares verbatim. Sessions without a password accept anything.
func (s *Session) CheckPassword(password string) bool {
	return s.password == nil || *s.password == password
}

func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Len()
}

func (s *Session) HasPlayer(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Find(userID) != nil
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Start moves the lobby into round 0. Starting a running game is reported and ignored.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.mode == ModeGame {
		s.mu.Unlock()
		log.Warn().Str("game_id", s.ID()).Msg("cannot start the game; game is already started")
		return ErrAlreadyStarted
	}

	s.mode = ModeGame
	s.roundIndex = 0
	s.epoch++
	s.roster.ResetForGame()
	epoch := s.epoch
	s.mu.Unlock()

	log.Info().Str("game_id", s.ID()).Str("name", s.options.Name).Msg("game started")

	s.invalidate()
	go s.startRound(epoch, 0)
	return nil
}

// current reports whether a callback scheduled for (epoch, round) still applies.
func (s *Session) current(epoch uint64, round int) bool {
	return !s.disposed && s.mode == ModeGame && s.epoch == epoch && s.roundIndex == round
}

func (s *Session) startRound(epoch uint64, round int) {
	s.mu.Lock()
	if !s.current(epoch, round) {
		s.mu.Unlock()
		return
	}
	s.roster.ResetAnswers()
	s.phase = PhaseFetching
	s.question = nil
	s.revealed = false
	s.deadline = time.Time{}
	ctx := s.ctx
	s.mu.Unlock()

	log.Info().
		Str("game_id", s.ID()).
		Int("round", round+1).
		Int("rounds", s.options.NumberOfRounds).
		Msg("starting round")

	fetchCtx, cancel := context.WithTimeout(ctx, s.timing.FetchTimeout)
	q, err := s.questions.Fetch(fetchCtx, s.options.Category, s.options.Difficulty)
	cancel()

	s.mu.Lock()
	if !s.current(epoch, round) || s.phase != PhaseFetching {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.endGameLocked()
		s.mu.Unlock()
		log.Error().Err(err).Str("game_id", s.ID()).Int("round", round+1).Msg("no question available, aborting game")
		s.announceEndGame()
		return
	}

	s.question = &q
	s.phase = PhaseAnswering
	s.deadline = s.clock.Now().Add(s.timing.QuestionDuration)
	s.timer.arm(s.timing.QuestionDuration, func() {
		s.endRound(epoch, round)
	})
	s.mu.Unlock()

	s.invalidate()
}

// EndRound closes the answering window of the current round early.
func (s *Session) EndRound() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	epoch, round, phase := s.epoch, s.roundIndex, s.phase
	s.mu.Unlock()

	if phase != PhaseAnswering || !s.endRound(epoch, round) {
		return ErrNoActiveRound
	}
	return nil
}

// endRound reveals the answer and scores the round. It runs at most once per
// (epoch, round) because it requires PhaseAnswering and leaves PhaseResults.
func (s *Session) endRound(epoch uint64, round int) bool {
	s.mu.Lock()
	if !s.current(epoch, round) || s.phase != PhaseAnswering {
		s.mu.Unlock()
		return false
	}

	s.revealed = true
	awarded := s.roster.Award(s.question.Correct, PointsPerCorrectAnswer)
	s.phase = PhaseResults
	s.deadline = s.clock.Now().Add(s.timing.ResultsDuration)
	s.timer.arm(s.timing.ResultsDuration, func() {
		s.queueNextRound(epoch, round)
	})
	correct := s.question.Correct
	s.mu.Unlock()

	log.Info().
		Str("game_id", s.ID()).
		Int("round", round+1).
		Int("correct_answer", correct).
		Strs("awarded", awarded).
		Msg("round ended")

	s.invalidate()
	return true
}

func (s *Session) queueNextRound(epoch uint64, round int) {
	s.mu.Lock()
	if !s.current(epoch, round) || s.phase != PhaseResults {
		s.mu.Unlock()
		return
	}

	if round+1 >= s.options.NumberOfRounds {
		s.endGameLocked()
		s.mu.Unlock()
		log.Info().Str("game_id", s.ID()).Msg("game ended")
		s.announceEndGame()
		return
	}

	s.roundIndex = round + 1
	s.mu.Unlock()

	s.startRound(epoch, round+1)
}

func (s *Session) endGameLocked() {
	s.mode = ModeLobby
	s.phase = PhaseIdle
	s.roundIndex = 0
	s.question = nil
	s.revealed = false
	s.deadline = time.Time{}
	s.timer.disarm()
}

func (s *Session) announceEndGame() {
	s.broadcaster.Broadcast(s.ID(), events.EndGame, nil)
	s.invalidate()
}

// SubmitAnswer records a player's answer for the current question. The last
// submission before the round ends counts.
func (s *Session) SubmitAnswer(userID string, answer int) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.mode != ModeGame {
		s.mu.Unlock()
		return ErrNotInGame
	}
	p := s.roster.Find(userID)
	if p == nil {
		s.mu.Unlock()
		return ErrPlayerNotFound
	}
	if s.phase != PhaseAnswering || s.question == nil {
		s.mu.Unlock()
		return ErrNoActiveRound
	}
	if answer < 0 || answer >= len(s.question.Answers) {
		s.mu.Unlock()
		return ErrInvalidAnswer
	}
	p.Answer = answer
	s.mu.Unlock()

	log.Debug().Str("game_id", s.ID()).Str("user_id", userID).Int("answer", answer).Msg("answer submitted")

	s.invalidate()
	return nil
}

// AddPlayer enrols user, subscribes its socket to the room and persists the
// membership. The user is notified only once the membership write has completed.
func (s *Session) AddPlayer(ctx context.Context, user User) error {
	if user.ID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidUser)
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if !s.roster.Add(newPlayer(user)) {
		s.mu.Unlock()
		return ErrAlreadyJoined
	}
	s.mu.Unlock()

	if user.SocketID != "" {
		s.broadcaster.Join(s.ID(), user.SocketID)
	}

	log.Info().Str("game_id", s.ID()).Str("user_id", user.ID).Msg("player joined")

	s.invalidate()
	s.persistMembership(ctx, user.ID, s.ID())
	return nil
}

// RemovePlayer is the inverse of AddPlayer. Unknown users are ignored.
func (s *Session) RemovePlayer(ctx context.Context, userID string) error {
	s.mu.Lock()
	p, ok := s.roster.Remove(userID)
	if !ok {
		s.mu.Unlock()
		return ErrPlayerNotFound
	}
	delete(s.cursors, userID)
	newHost, promoted := s.promoteHostLocked(userID)
	s.mu.Unlock()

	if p.User.SocketID != "" {
		s.broadcaster.Leave(s.ID(), p.User.SocketID)
	}

	log.Info().Str("game_id", s.ID()).Str("user_id", userID).Msg("player left")
	if promoted {
		log.Info().
			Str("game_id", s.ID()).
			Str("previous_host_id", userID).
			Str("host_id", newHost).
			Msg("host handed over")
	}

	s.invalidate()
	s.persistMembership(ctx, userID, "")
	return nil
}

// promoteHostLocked hands the host role to the longest-standing player when the
// departing user was the host.
func (s *Session) promoteHostLocked(departed string) (string, bool) {
	if departed != s.host.ID {
		return "", false
	}
	players := s.roster.Players()
	if len(players) == 0 {
		return "", false
	}
	s.host = players[0].User
	return s.host.ID, true
}

func (s *Session) persistMembership(ctx context.Context, userID, roomID string) {
	if err := s.membership.SetCurrentRoom(ctx, userID, roomID); err != nil {
		log.Error().
			Err(err).
			Str("game_id", s.ID()).
			Str("user_id", userID).
			Str("room", roomID).
			Msg("failed to persist current room")
		return
	}
	s.broadcaster.NotifyUser(userID, events.InvalidateUser, nil)
}

// MoveCursor merges a cursor position for a roster member.
func (s *Session) MoveCursor(userID string, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.roster.Find(userID) == nil {
		return
	}
	s.cursors[userID] = events.Cursor{X: x, Y: y}
}

func (s *Session) broadcastTick() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	payload := events.TickPayload(maps.Clone(s.cursors))
	s.mu.Unlock()

	s.broadcaster.Broadcast(s.ID(), events.GameTick, payload)
}

func (s *Session) invalidate() {
	s.broadcaster.Broadcast(s.ID(), events.Invalidate, nil)
}

// Dispose stops the tick, revokes any armed round timer and cancels an in-flight
// question fetch. Later calls are no-ops.
func (s *Session) Dispose() {
	s.disposeOnce.Do(func() {
		s.mu.Lock()
		s.disposed = true
		s.timer.disarm()
		s.mu.Unlock()

		s.cancel()
		s.tick.stop()

		log.Info().Str("game_id", s.ID()).Msg("game disposed")
	})
}
