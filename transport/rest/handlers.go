package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/royalur-backend/internal/entity"
	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
)

const defaultRecentLimit = 10

type createGameRequest struct {
	Type string `json:"type"`
}

type moveRequest struct {
	Player  int `json:"player"`
	PieceID int `json:"piece_id"`
}

type gameResponse struct {
	GameID string            `json:"game_id"`
	Type   string            `json:"type,omitempty"`
	Status string            `json:"status"`
	State  *royalur.Snapshot `json:"state"`
}

type rollResponse struct {
	gameResponse
	Dice        int  `json:"dice"`
	TurnSkipped bool `json:"turn_skipped"`
}

func newGameResponse(game *entity.Game) gameResponse {
	return gameResponse{
		GameID: game.ID,
		Type:   game.Type,
		Status: game.Status,
		State:  game.State.Snapshot(),
	}
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleCreateGame")

	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		that.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gameType := req.Type
	if gameType == "" {
		gameType = entity.PrivateType
	}

	switch gameType {
	case entity.PrivateType, entity.PublicType, entity.WithBotType:
	default:
		that.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown game type %q", gameType))
		return
	}

	game, err := that.gameplay.CreateGame(r.Context(), gameType)
	if err != nil {
		log.Error("failed to create game", "error", err)
		that.respondGameError(w, err)
		return
	}

	log.Info("game created", "gameID", game.ID, "type", game.Type)

	that.respondJSON(w, http.StatusCreated, newGameResponse(game))
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	game, err := that.gameplay.GetGameByID(r.Context(), gameID)
	if err != nil {
		that.respondGameError(w, err)
		return
	}

	that.respondJSON(w, http.StatusOK, newGameResponse(game))
}

func (that *Server) handleRollDice(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleRollDice")

	gameID := chi.URLParam(r, "gameID")

	game, dice, err := that.gameplay.RollByGameID(r.Context(), gameID)
	if err != nil {
		log.Error("failed to roll dice", "gameID", gameID, "error", err)
		that.respondGameError(w, err)
		return
	}

	that.respondJSON(w, http.StatusOK, rollResponse{
		gameResponse: newGameResponse(game),
		Dice:         dice,
		TurnSkipped:  !game.State.IsOver() && game.State.Dice() == 0,
	})
}

func (that *Server) handleMakeMove(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleMakeMove")

	gameID := chi.URLParam(r, "gameID")

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	side := royalur.Player(req.Player)
	if !side.Valid() {
		that.respondError(w, http.StatusBadRequest, "player must be 1 or 2")
		return
	}

	game, err := that.gameplay.MoveByGameID(r.Context(), gameID, side, req.PieceID)
	if err != nil {
		log.Error("failed to make move", "gameID", gameID, "error", err)
		that.respondGameError(w, err)
		return
	}

	that.respondJSON(w, http.StatusOK, newGameResponse(game))
}

func (that *Server) handleRecentResults(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleRecentResults")

	if that.archive == nil {
		that.respondError(w, http.StatusNotFound, "game archive is disabled")
		return
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			that.respondError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = parsed
	}

	results, err := that.archive.Recent(r.Context(), limit)
	if err != nil {
		log.Error("failed to load recent results", "error", err)
		that.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	that.respondJSON(w, http.StatusOK, results)
}
