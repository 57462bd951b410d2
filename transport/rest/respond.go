package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/royalur-backend/internal/apperror"
	"github.com/rocketscienceinc/royalur-backend/internal/repository"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *Server) respondError(w http.ResponseWriter, status int, message string) {
	that.respondJSON(w, status, errorResponse{Error: message})
}

// respondGameError - maps domain errors to HTTP status codes.
func (that *Server) respondGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrGameNotFound):
		that.respondError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrNotYourPiece),
		errors.Is(err, apperror.ErrIllegalMove),
		errors.Is(err, apperror.ErrGameAlreadyOver),
		errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, apperror.ErrGameIsFull):
		that.respondError(w, http.StatusBadRequest, err.Error())
	default:
		that.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
