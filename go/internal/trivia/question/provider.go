package question

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/mcdev12/trivia/go/clients"
	"github.com/mcdev12/trivia/go/clients/opentdb_client"
	"github.com/rs/zerolog/log"
)

// Source is what the provider needs from the remote question catalog.
type Source interface {
	GetQuestions(ctx context.Context, params opentdb_client.QuestionsParams) (*opentdb_client.QuestionsResponse, error)
	GetCategories(ctx context.Context) ([]opentdb_client.Category, error)
}

type cacheKey struct {
	category   int
	difficulty Difficulty
}

// Provider fetches one validated question at a time, retrying a bounded number of
// times and falling back to cached or configured questions.
type Provider struct {
	source  Source
	catalog *Catalog
	config  Config

	shuffle func(n int, swap func(i, j int))
	pick    func(n int) int

	mu    sync.Mutex
	cache map[cacheKey]opentdb_client.Question
}

// NewProvider creates a question provider. A nil catalog means DefaultCatalog.
func NewProvider(source Source, catalog *Catalog, config Config) *Provider {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if config.QuestionType == "" {
		config.QuestionType = opentdb_client.TypeMultiple
	}

	return &Provider{
		source:  source,
		catalog: catalog,
		config:  config,
		shuffle: rand.Shuffle,
		pick:    rand.IntN,
		cache:   make(map[cacheKey]opentdb_client.Question),
	}
}

// Fetch returns one question for the category and difficulty. Only cancellation of
// ctx is surfaced directly; other failures fall back before giving up with ErrNoQuestion.
func (p *Provider) Fetch(ctx context.Context, category int, difficulty Difficulty) (Question, error) {
	params := opentdb_client.QuestionsParams{
		Amount:     1,
		Category:   category,
		Difficulty: string(difficulty),
		Type:       p.config.QuestionType,
	}

	attempt := 0
	raw, err := backoff.Retry(ctx, func() (opentdb_client.Question, error) {
		attempt++
		return p.fetchOnce(ctx, params)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.config.Backoff)),
		backoff.WithMaxTries(p.config.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("category", category).
				Str("difficulty", string(difficulty)).
				Dur("retry_in", next).
				Msg("question fetch failed, retrying")
		}),
	)
	if err == nil {
		p.remember(category, difficulty, raw)
		return p.build(raw, difficulty), nil
	}

	if errors.Is(err, context.Canceled) {
		return Question{}, err
	}

	log.Warn().
		Err(err).
		Int("attempts", attempt).
		Int("category", category).
		Str("difficulty", string(difficulty)).
		Msg("question fetch exhausted, using fallback")

	if q, ok := p.fallback(category, difficulty); ok {
		return q, nil
	}
	return Question{}, fmt.Errorf("%w: %w", ErrNoQuestion, err)
}

func (p *Provider) fetchOnce(ctx context.Context, params opentdb_client.QuestionsParams) (opentdb_client.Question, error) {
	var zero opentdb_client.Question

	resp, err := p.source.GetQuestions(ctx, params)
	if err != nil {
		var statusErr *clients.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
			return zero, backoff.RetryAfter(opentdb_client.RateLimitWindowSeconds)
		}
		return zero, err
	}

	switch resp.ResponseCode {
	case opentdb_client.ResponseSuccess:
	case opentdb_client.ResponseRateLimit:
		return zero, backoff.RetryAfter(opentdb_client.RateLimitWindowSeconds)
	case opentdb_client.ResponseNoResults, opentdb_client.ResponseInvalidParam:
		// the same parameters will never succeed
		return zero, backoff.Permanent(fmt.Errorf("%w: response code %d", ErrInvalidQuestion, resp.ResponseCode))
	default:
		return zero, fmt.Errorf("%w: response code %d", ErrInvalidQuestion, resp.ResponseCode)
	}

	if len(resp.Results) == 0 {
		return zero, fmt.Errorf("%w: empty result set", ErrInvalidQuestion)
	}

	raw := normalize(resp.Results[0])
	if err := Validate(raw); err != nil {
		return zero, err
	}
	return raw, nil
}

// build concatenates incorrect and correct answers, shuffles them and records
// where the correct answer landed.
func (p *Provider) build(raw opentdb_client.Question, difficulty Difficulty) Question {
	answers := make([]string, 0, len(raw.IncorrectAnswers)+1)
	answers = append(answers, raw.IncorrectAnswers...)
	answers = append(answers, raw.CorrectAnswer)

	p.shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})

	if raw.Difficulty != "" {
		difficulty = Difficulty(raw.Difficulty)
	}

	return Question{
		Prompt:     raw.Question,
		Answers:    answers,
		Correct:    slices.Index(answers, raw.CorrectAnswer),
		Category:   raw.Category,
		Difficulty: difficulty,
	}
}

func (p *Provider) remember(category int, difficulty Difficulty, raw opentdb_client.Question) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[cacheKey{category: category, difficulty: difficulty}] = raw
}

func (p *Provider) fallback(category int, difficulty Difficulty) (Question, bool) {
	p.mu.Lock()
	cached, ok := p.cache[cacheKey{category: category, difficulty: difficulty}]
	p.mu.Unlock()
	if ok {
		return p.build(cached, difficulty), true
	}

	var candidates []FallbackQuestion
	for _, f := range p.catalog.Fallback {
		if category != 0 && f.Category != category {
			continue
		}
		if difficulty != DifficultyAny && f.Difficulty != difficulty {
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return Question{}, false
	}

	f := candidates[p.pick(len(candidates))]
	raw := opentdb_client.Question{
		Type:             opentdb_client.TypeMultiple,
		Difficulty:       string(f.Difficulty),
		Question:         f.Prompt,
		CorrectAnswer:    f.Correct,
		IncorrectAnswers: f.Incorrect,
	}
	if len(f.Incorrect) != 3 {
		raw.Type = ""
	}
	if err := Validate(raw); err != nil {
		log.Error().Err(err).Str("prompt", f.Prompt).Msg("configured fallback question is invalid")
		return Question{}, false
	}
	return p.build(raw, difficulty), true
}

// Categories lists selectable categories, preferring the remote catalog.
func (p *Provider) Categories(ctx context.Context) []Category {
	remote, err := p.source.GetCategories(ctx)
	if err != nil || len(remote) == 0 {
		if err != nil {
			log.Warn().Err(err).Msg("failed to list remote categories, using catalog")
		}
		return slices.Clone(p.catalog.Categories)
	}

	out := make([]Category, len(remote))
	for i, c := range remote {
		out[i] = Category{ID: c.ID, Name: c.Name}
	}
	return out
}
