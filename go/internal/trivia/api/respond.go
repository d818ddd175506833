package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mcdev12/trivia/go/internal/trivia/arcade"
	"github.com/mcdev12/trivia/go/internal/trivia/session"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps sentinel errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidOptions),
		errors.Is(err, session.ErrInvalidUser),
		errors.Is(err, session.ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, arcade.ErrWrongPassword),
		errors.Is(err, arcade.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, arcade.ErrGameNotFound),
		errors.Is(err, arcade.ErrNotInGame),
		errors.Is(err, session.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, arcade.ErrNameTaken),
		errors.Is(err, arcade.ErrAlreadyInGame),
		errors.Is(err, arcade.ErrGameFull),
		errors.Is(err, session.ErrAlreadyStarted),
		errors.Is(err, session.ErrAlreadyJoined),
		errors.Is(err, session.ErrNotInGame),
		errors.Is(err, session.ErrNoActiveRound),
		errors.Is(err, session.ErrDisposed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
