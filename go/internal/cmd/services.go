package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/trivia/go/clients/opentdb_client"
	"github.com/mcdev12/trivia/go/internal/trivia/arcade"
	"github.com/mcdev12/trivia/go/internal/trivia/bus"
	"github.com/mcdev12/trivia/go/internal/trivia/gateway"
	"github.com/mcdev12/trivia/go/internal/trivia/membership"
	"github.com/mcdev12/trivia/go/internal/trivia/question"
	"github.com/mcdev12/trivia/go/internal/trivia/session"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Arcade      *arcade.Arcade
	Questions   *question.Provider
	Connections *gateway.ConnectionManager
	WebSocket   *gateway.WebSocketHandler
	// Relay is nil unless NATS is configured.
	Relay *bus.Relay

	pool *pgxpool.Pool
	nc   *nats.Conn
}

func setupServices(ctx context.Context, cfg Config) (*Services, error) {
	// Wire up dependency injection chain
	// Question source → Provider; Store; Broadcaster → Arcade → Gateway

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	client := opentdb_client.NewOpenTDBClient(cfg.OpenTDBURL)
	provider := question.NewProvider(client, catalog, cfg.ProviderConfig())

	s := &Services{Questions: provider}

	var store membership.Store
	if cfg.DB.Enabled {
		pool, err := setupDatabase(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		repo := membership.NewRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		s.pool = pool
		store = repo
	} else {
		log.Warn().Msg("DB_ENABLED is false, keeping memberships in memory")
		store = membership.NewMemoryStore()
	}

	s.Connections = gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	s.WebSocket = gateway.NewWebSocketHandler(s.Connections)

	var broadcaster session.Broadcaster = s.Connections
	if cfg.NATSURL != "" {
		busCfg := bus.DefaultConfig()
		busCfg.URL = cfg.NATSURL
		busCfg.SubjectPrefix = cfg.NATSSubject

		nc, err := bus.Connect(busCfg)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to set up bus: %w", err)
		}
		s.nc = nc
		broadcaster = bus.NewPublisher(nc, busCfg.SubjectPrefix)
		s.Relay = bus.NewRelay(nc, s.Connections, busCfg.SubjectPrefix)
	}

	s.Arcade = arcade.New(session.Deps{
		Questions:   provider,
		Broadcaster: broadcaster,
		Membership:  store,
	}, cfg.Timing())
	s.Connections.SetCursorSink(s.Arcade)

	return s, nil
}

// Close releases the NATS connection and the database pool.
func (s *Services) Close() {
	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			log.Error().Err(err).Msg("failed to drain NATS connection")
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
