package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
)

// GameResult is one finished match as kept in the archive: who won,
// how far the loser got, and how long the game ran.
type GameResult struct {
	GameID         string         `json:"game_id"`
	GameType       string         `json:"game_type"`
	Winner         royalur.Player `json:"winner"`
	WinnerPlayer   string         `json:"winner_player,omitempty"`
	LoserCompleted int            `json:"loser_completed"`
	Moves          int            `json:"moves"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
}

type ArchiveRepository interface {
	Save(ctx context.Context, result *GameResult) error
	Recent(ctx context.Context, limit int) ([]*GameResult, error)
}

type dbArchive struct {
	conn *sql.DB
}

func NewArchiveRepository(conn *sql.DB) ArchiveRepository {
	return &dbArchive{
		conn: conn,
	}
}

func (that *dbArchive) Save(ctx context.Context, result *GameResult) error {
	query := `INSERT OR REPLACE INTO results
		(game_id, game_type, winner, winner_player, loser_completed, moves, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		result.GameID,
		result.GameType,
		int(result.Winner),
		result.WinnerPlayer,
		result.LoserCompleted,
		result.Moves,
		result.StartedAt,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save game result: %w", err)
	}

	return nil
}

func (that *dbArchive) Recent(ctx context.Context, limit int) ([]*GameResult, error) {
	query := `SELECT game_id, game_type, winner, winner_player, loser_completed, moves, started_at, finished_at
		FROM results ORDER BY finished_at DESC LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent results: %w", err)
	}
	defer rows.Close()

	var results []*GameResult
	for rows.Next() {
		var result GameResult
		var winner int
		if err = rows.Scan(
			&result.GameID,
			&result.GameType,
			&winner,
			&result.WinnerPlayer,
			&result.LoserCompleted,
			&result.Moves,
			&result.StartedAt,
			&result.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan game result: %w", err)
		}
		result.Winner = royalur.Player(winner)
		results = append(results, &result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read game results: %w", err)
	}

	return results, nil
}
