package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mcdev12/trivia/go/internal/trivia/arcade"
	"github.com/mcdev12/trivia/go/internal/trivia/question"
	"github.com/mcdev12/trivia/go/internal/trivia/session"
)

// CategoryLister lists the question categories a host can pick from.
type CategoryLister interface {
	Categories(ctx context.Context) []question.Category
}

type HostRequest struct {
	User    session.User    `json:"user"`
	Options session.Options `json:"options"`
}

type JoinRequest struct {
	User     session.User `json:"user"`
	GameID   string       `json:"gameID"`
	Password string       `json:"password"`
}

// UserRequest carries the acting user for leave, start and end-round.
type UserRequest struct {
	UserID string `json:"userID"`
}

type AnswerRequest struct {
	UserID string `json:"userID"`
	Answer int    `json:"answer"`
}

type GameResponse struct {
	GameID string `json:"gameID"`
}

// GameHandler handles the /games routes.
type GameHandler struct {
	arcade     *arcade.Arcade
	categories CategoryLister
}

func NewGameHandler(a *arcade.Arcade, categories CategoryLister) *GameHandler {
	return &GameHandler{arcade: a, categories: categories}
}

// List handles GET /games/list
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.arcade.List())
}

// Categories handles GET /games/categories
func (h *GameHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.categories.Categories(r.Context()))
}

// Host handles POST /games/host
func (h *GameHandler) Host(w http.ResponseWriter, r *http.Request) {
	var req HostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.User.ID == "" {
		writeError(w, http.StatusBadRequest, "user.id is required")
		return
	}

	s, err := h.arcade.Host(r.Context(), req.User, req.Options)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, GameResponse{GameID: s.ID()})
}

// Join handles POST /games/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.User.ID == "" || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "user.id and gameID are required")
		return
	}

	s, err := h.arcade.Join(r.Context(), req.User, req.GameID, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GameResponse{GameID: s.ID()})
}

// Leave handles POST /games/leave
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	if err := h.arcade.Leave(r.Context(), req.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /games/{id}. Clients call it after an INVALIDATE.
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.arcade.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.GameState())
}

// Start handles POST /games/{id}/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	if err := h.arcade.Start(chi.URLParam(r, "id"), req.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Answer handles POST /games/{id}/answer
func (h *GameHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userID is required")
		return
	}
	if err := h.arcade.SubmitAnswer(chi.URLParam(r, "id"), req.UserID, req.Answer); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EndRound handles POST /games/{id}/end-round
func (h *GameHandler) EndRound(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	if err := h.arcade.EndRound(chi.URLParam(r, "id"), req.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeUser(w http.ResponseWriter, r *http.Request) (UserRequest, bool) {
	var req UserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userID is required")
		return req, false
	}
	return req, true
}
