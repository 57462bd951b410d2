package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/royalur-backend/internal/entity"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrNoWaitingGames = errors.New("no waiting public games")
)

const waitingGamesKey = "games:public:waiting"

type GameRepository interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error

	AddToWaitingList(ctx context.Context, gameID string) error
	GetWaitingPublicGame(ctx context.Context) (*entity.Game, error)
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	gameKey := "game:" + game.ID
	err = that.client.Set(ctx, gameKey, gameJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	gameKey := "game:" + id

	response, err := that.client.Get(ctx, gameKey).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Game{}, ErrGameNotFound
	}

	if err != nil {
		return &entity.Game{}, fmt.Errorf("failed to get game by ID: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return &entity.Game{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	gameKey := "game:" + id

	deleted, err := that.client.Del(ctx, gameKey).Result()
	if err != nil {
		return fmt.Errorf("failed to delete game by ID: %w", err)
	}

	if deleted == 0 {
		return ErrGameNotFound
	}

	return nil
}

// AddToWaitingList queues a public game for matchmaking.
func (that *dbGame) AddToWaitingList(ctx context.Context, gameID string) error {
	if err := that.client.RPush(ctx, waitingGamesKey, gameID).Err(); err != nil {
		return fmt.Errorf("failed to push game to waiting list: %w", err)
	}

	return nil
}

// GetWaitingPublicGame pops queued game ids until it finds one that is
// still waiting for an opponent. Stale ids, e.g. of games that were
// deleted or already started, are dropped on the way.
func (that *dbGame) GetWaitingPublicGame(ctx context.Context) (*entity.Game, error) {
	for {
		gameID, err := that.client.LPop(ctx, waitingGamesKey).Result()
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoWaitingGames
		}
		if err != nil {
			return nil, fmt.Errorf("failed to pop game from waiting list: %w", err)
		}

		game, err := that.GetByID(ctx, gameID)
		if errors.Is(err, ErrGameNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if game.IsWaiting() && game.IsPublic() {
			return game, nil
		}
	}
}
