package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/royalur-backend/internal/entity"
	"github.com/rocketscienceinc/royalur-backend/internal/repository"
	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
)

type gamePlay interface {
	CreateGame(ctx context.Context, gameType string) (*entity.Game, error)
	GetGameByID(ctx context.Context, gameID string) (*entity.Game, error)
	RollByGameID(ctx context.Context, gameID string) (*entity.Game, int, error)
	MoveByGameID(ctx context.Context, gameID string, side royalur.Player, pieceID int) (*entity.Game, error)
}

type archive interface {
	Recent(ctx context.Context, limit int) ([]*repository.GameResult, error)
}

type Server struct {
	logger   *slog.Logger
	gameplay gamePlay
	archive  archive
}

// New - creates the REST server. The archive may be nil when no results
// storage is configured.
func New(logger *slog.Logger, gameplay gamePlay, archive archive) *Server {
	return &Server{
		logger:   logger,
		gameplay: gameplay,
		archive:  archive,
	}
}

// Router - builds the HTTP route table.
func (that *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Get("/ping", that.handlePing)

	router.Route("/api", func(r chi.Router) {
		r.Post("/games", that.handleCreateGame)
		r.Get("/games/{gameID}", that.handleGetGame)
		r.Post("/games/{gameID}/roll", that.handleRollDice)
		r.Post("/games/{gameID}/move", that.handleMakeMove)
		r.Get("/archive/recent", that.handleRecentResults)
	})

	return router
}

// Start - starts the HTTP server and shuts it down with the context.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
