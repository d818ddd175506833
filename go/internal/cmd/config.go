package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mcdev12/trivia/go/internal/dbconfig"
	"github.com/mcdev12/trivia/go/internal/trivia/question"
	"github.com/mcdev12/trivia/go/internal/trivia/session"
	"github.com/rs/zerolog"
)

type Config struct {
	Port     string `env:"PORT"      envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// NATSURL enables cross-instance fan-out when set.
	NATSURL        string   `env:"NATS_URL"`
	NATSSubject    string   `env:"NATS_SUBJECT_PREFIX"  envDefault:"trivia"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	OpenTDBURL       string        `env:"OPENTDB_URL"        envDefault:"https://opentdb.com"`
	CatalogPath      string        `env:"CATALOG_PATH"`
	FetchMaxAttempts uint          `env:"FETCH_MAX_ATTEMPTS" envDefault:"5"`
	FetchBackoff     time.Duration `env:"FETCH_BACKOFF"      envDefault:"500ms"`
	FetchTimeout     time.Duration `env:"FETCH_TIMEOUT"      envDefault:"15s"`

	QuestionDuration time.Duration `env:"QUESTION_DURATION" envDefault:"5s"`
	ResultsDuration  time.Duration `env:"RESULTS_DURATION"  envDefault:"3s"`
	TickInterval     time.Duration `env:"TICK_INTERVAL"     envDefault:"50ms"`

	DB dbconfig.Config
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.FetchMaxAttempts == 0 {
		return Config{}, fmt.Errorf("FETCH_MAX_ATTEMPTS must be at least 1")
	}
	return cfg, nil
}

func (c Config) Timing() session.Timing {
	return session.Timing{
		QuestionDuration: c.QuestionDuration,
		ResultsDuration:  c.ResultsDuration,
		TickInterval:     c.TickInterval,
		FetchTimeout:     c.FetchTimeout,
	}
}

func (c Config) ProviderConfig() question.Config {
	cfg := question.DefaultConfig()
	cfg.MaxAttempts = c.FetchMaxAttempts
	cfg.Backoff = c.FetchBackoff
	return cfg
}

// loadCatalog reads the YAML catalog when CATALOG_PATH is set, else the built-in one.
func loadCatalog(path string) (*question.Catalog, error) {
	if path == "" {
		return question.DefaultCatalog(), nil
	}
	catalog, err := question.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return catalog, nil
}

func parseLogLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
