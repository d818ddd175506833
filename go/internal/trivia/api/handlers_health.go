package api

import (
	"net/http"

	"github.com/mcdev12/trivia/go/internal/trivia/arcade"
)

type HealthResponse struct {
	Status string `json:"status"`
	Games  int    `json:"games"`
}

type HealthHandler struct {
	arcade *arcade.Arcade
}

func NewHealthHandler(a *arcade.Arcade) *HealthHandler {
	return &HealthHandler{arcade: a}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Games: len(h.arcade.List())})
}
