package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mcdev12/trivia/go/internal/trivia/arcade"
	"github.com/mcdev12/trivia/go/internal/trivia/gateway"
)

// NewRouter creates the Chi router with all routes and middleware. ws may be nil.
func NewRouter(a *arcade.Arcade, categories CategoryLister, ws *gateway.WebSocketHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	healthH := NewHealthHandler(a)
	gameH := NewGameHandler(a, categories)

	r.Get("/health", healthH.Health)

	r.Route("/games", func(r chi.Router) {
		r.Get("/list", gameH.List)
		r.Get("/categories", gameH.Categories)
		r.Post("/host", gameH.Host)
		r.Post("/join", gameH.Join)
		r.Post("/leave", gameH.Leave)
		r.Get("/{id}", gameH.Get)
		r.Post("/{id}/start", gameH.Start)
		r.Post("/{id}/answer", gameH.Answer)
		r.Post("/{id}/end-round", gameH.EndRound)
	})

	if ws != nil {
		ws.RegisterRoutes(r)
	}

	return r
}
