package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/royalur-backend/internal/apperror"
	"github.com/rocketscienceinc/royalur-backend/internal/entity"
	"github.com/rocketscienceinc/royalur-backend/internal/repository"
	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
)

// GamePlayService orchestrates whole matches on top of the engine: it
// seats players, serializes access per game, forfeits empty rolls,
// answers for bot opponents and archives finished games. Session
// operations are keyed by player id; the ByGameID variants serve the
// sessionless REST surface, where both seats share one client.
type GamePlayService interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)

	GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	CreateOrJoinToPublicGame(ctx context.Context, playerID string) (*entity.Game, error)
	JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)

	Roll(ctx context.Context, playerID string) (*entity.Game, int, error)
	MakeMove(ctx context.Context, playerID string, pieceID int) (*entity.Game, error)
	ForfeitGame(ctx context.Context, playerID string) (*entity.Game, error)

	CreateGame(ctx context.Context, gameType string) (*entity.Game, error)
	GetGameByID(ctx context.Context, gameID string) (*entity.Game, error)
	RollByGameID(ctx context.Context, gameID string) (*entity.Game, int, error)
	MoveByGameID(ctx context.Context, gameID string, side royalur.Player, pieceID int) (*entity.Game, error)
}

type archiveRepo interface {
	Save(ctx context.Context, result *repository.GameResult) error
}

type gamePlayService struct {
	logger *slog.Logger

	playerService PlayerService
	gameService   GameService
	botService    BotService
	archive       archiveRepo

	locks *gameLocks
}

// NewGamePlayService wires the gameplay orchestration. The archive may
// be nil, in which case finished games are simply dropped.
func NewGamePlayService(logger *slog.Logger, playerService PlayerService, gameService GameService, botService BotService, archive archiveRepo) GamePlayService {
	return &gamePlayService{
		logger:        logger,
		playerService: playerService,
		gameService:   gameService,
		botService:    botService,
		archive:       archive,
		locks:         newGameLocks(),
	}
}

func (that *gamePlayService) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerService.GetOrCreatePlayer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create player: %w", err)
	}
	return player, nil
}

func (that *gamePlayService) GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID != "" {
		game, err := that.gameService.GetGameByID(ctx, player.GameID)
		if err != nil {
			return nil, fmt.Errorf("failed to get game: %w", err)
		}
		return game, nil
	}

	game, err := that.gameService.CreateGame(ctx, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	player.GameID = game.ID
	player.Side = royalur.PlayerOne
	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	if err = game.JoinPlayer(player); err != nil {
		return nil, fmt.Errorf("failed to seat player: %w", err)
	}

	if game.IsWithBot() {
		if err = that.addBotToGame(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to add bot to game: %w", err)
		}
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) CreateOrJoinToPublicGame(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID != "" {
		game, err := that.gameService.GetGameByID(ctx, player.GameID)
		if err != nil {
			return nil, fmt.Errorf("failed to get game: %w", err)
		}
		return game, nil
	}

	game, err := that.gameService.GetWaitingPublicGame(ctx)
	if errors.Is(err, repository.ErrNoWaitingGames) {
		return that.GetOrCreateGame(ctx, playerID, entity.PublicType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get waiting public game: %w", err)
	}

	return that.JoinGameByID(ctx, game.ID, playerID)
}

func (that *gamePlayService) JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if player.GameID == game.ID {
		return game, nil
	}

	player.GameID = game.ID
	player.Side = royalur.PlayerTwo
	if err = game.JoinPlayer(player); err != nil {
		return nil, fmt.Errorf("%w: game id %s", err, gameID)
	}

	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, fmt.Errorf("%w: player %s is not in a game", repository.ErrGameNotFound, playerID)
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) Roll(ctx context.Context, playerID string) (*entity.Game, int, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get player by id: %w", err)
	}

	unlock := that.locks.lock(player.GameID)
	defer unlock()

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get game by id: %w", err)
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return game, 0, err
	}

	if game.State.CurrentPlayer() != player.Side {
		return game, 0, apperror.ErrNotYourTurn
	}

	return that.applyRoll(ctx, game)
}

func (that *gamePlayService) RollByGameID(ctx context.Context, gameID string) (*entity.Game, int, error) {
	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get game by id: %w", err)
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return game, 0, err
	}

	return that.applyRoll(ctx, game)
}

func (that *gamePlayService) MakeMove(ctx context.Context, playerID string, pieceID int) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	unlock := that.locks.lock(player.GameID)
	defer unlock()

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return game, err
	}

	if game.State.CurrentPlayer() != player.Side {
		return game, apperror.ErrNotYourTurn
	}

	return that.applyMove(ctx, game, player.Side, pieceID)
}

func (that *gamePlayService) MoveByGameID(ctx context.Context, gameID string, side royalur.Player, pieceID int) (*entity.Game, error) {
	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return game, err
	}

	if game.State.CurrentPlayer() != side {
		return game, apperror.ErrNotYourTurn
	}

	return that.applyMove(ctx, game, side, pieceID)
}

// ForfeitGame ends the game for a player who leaves before it is
// decided. An ongoing game counts as a win for the opponent, a waiting
// game is simply discarded.
func (that *gamePlayService) ForfeitGame(ctx context.Context, playerID string) (*entity.Game, error) {
	log := that.logger.With("method", "ForfeitGame", "playerID", playerID)

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, fmt.Errorf("%w: player %s is not in a game", repository.ErrGameNotFound, playerID)
	}

	unlock := that.locks.lock(player.GameID)
	defer unlock()

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	wasOngoing := game.IsOngoing()
	game.Status = entity.StatusFinished

	if wasOngoing && player.Side.Valid() {
		that.archiveResult(ctx, game, player.Side.Opponent())
	}

	that.cleanupGame(ctx, game)

	log.Info("game forfeited", "gameID", game.ID)

	return game, nil
}

func (that *gamePlayService) CreateGame(ctx context.Context, gameType string) (*entity.Game, error) {
	game, err := that.gameService.CreateGame(ctx, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	// No seats to wait for: both sides play through the same client.
	game.Status = entity.StatusOngoing

	if game.IsWithBot() {
		if err = that.addBotToGame(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to add bot to game: %w", err)
		}
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) GetGameByID(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return game, nil
}

// applyRoll throws the dice for the current player. A roll that leaves
// no legal move forfeits the turn, so callers never get stuck waiting
// for an impossible move.
func (that *gamePlayService) applyRoll(ctx context.Context, game *entity.Game) (*entity.Game, int, error) {
	dice, err := game.State.RollDice()
	if err != nil {
		return game, 0, fmt.Errorf("failed to roll dice: %w", err)
	}

	if len(game.State.LegalMoves()) == 0 {
		game.State.AdvanceTurn()

		if game.IsWithBot() {
			if err = that.playBotTurns(game); err != nil {
				return game, dice, fmt.Errorf("bot failed to play: %w", err)
			}
		}
	}

	if game.State.IsOver() {
		return game, dice, that.finishGame(ctx, game)
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, 0, fmt.Errorf("failed to update game: %w", err)
	}

	return game, dice, nil
}

// applyMove executes one move for side, lets the bot answer when it is
// one, and settles the game when somebody bears off the last piece.
func (that *gamePlayService) applyMove(ctx context.Context, game *entity.Game, side royalur.Player, pieceID int) (*entity.Game, error) {
	if err := that.moveOnce(game, side, pieceID); err != nil {
		return game, err
	}

	if !game.State.IsOver() && game.IsWithBot() {
		if err := that.playBotTurns(game); err != nil {
			return game, fmt.Errorf("bot failed to play: %w", err)
		}
	}

	if game.State.IsOver() {
		return game, that.finishGame(ctx, game)
	}

	if err := that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

// moveOnce runs a single engine move, records it in the match history
// and passes the turn unless the mover earned a bonus.
func (that *gamePlayService) moveOnce(game *entity.Game, side royalur.Player, pieceID int) error {
	state := game.State

	piece := state.Board().Piece(side, pieceID)
	if piece == nil {
		return fmt.Errorf("%w: piece %d", apperror.ErrIllegalMove, pieceID)
	}

	opponent := side.Opponent()
	dice := state.Dice()
	opponentInHand := state.Board().PiecesInHand(opponent)
	completedBefore := state.Board().CompletedCount(side)

	bonus, err := state.MakeMove(piece)
	if err != nil {
		return err
	}

	game.Moves = append(game.Moves, entity.MoveRecord{
		Player:   side,
		PieceID:  pieceID,
		Dice:     dice,
		Captured: state.Board().PiecesInHand(opponent) > opponentInHand,
		Scored:   state.Board().CompletedCount(side) > completedBefore,
		Bonus:    bonus,
	})

	if !bonus && !state.IsOver() {
		state.AdvanceTurn()
	}

	return nil
}

// playBotTurns lets the bot play for as long as it holds the turn:
// bonus turns keep it rolling, an empty roll forfeits back to the
// human.
func (that *gamePlayService) playBotTurns(game *entity.Game) error {
	state := game.State

	for !state.IsOver() {
		botPlayer := game.PlayerBySide(state.CurrentPlayer())
		if botPlayer == nil || !botPlayer.IsBot() {
			return nil
		}

		if _, err := state.RollDice(); err != nil {
			return fmt.Errorf("failed to roll dice: %w", err)
		}

		if len(state.LegalMoves()) == 0 {
			state.AdvanceTurn()
			continue
		}

		piece, err := that.botService.ChoosePiece(state)
		if err != nil {
			return fmt.Errorf("failed to choose a piece: %w", err)
		}

		if err = that.moveOnce(game, state.CurrentPlayer(), piece.ID()); err != nil {
			return fmt.Errorf("failed to make a move: %w", err)
		}
	}

	return nil
}

func (that *gamePlayService) addBotToGame(ctx context.Context, game *entity.Game) error {
	botPlayer := entity.NewBotPlayer(game.ID)

	if err := game.JoinPlayer(botPlayer); err != nil {
		return fmt.Errorf("failed to seat bot player: %w", err)
	}

	humanSide, botSide := game.RandomSides()
	botPlayer.Side = botSide

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}
		player.Side = humanSide
		if err := that.playerService.UpdatePlayer(ctx, player); err != nil {
			return fmt.Errorf("failed to update player: %w", err)
		}
	}

	// The bot opens right away when it drew the first side.
	if err := that.playBotTurns(game); err != nil {
		return fmt.Errorf("bot failed to open the game: %w", err)
	}

	return nil
}

// finishGame archives the result, then removes the session the way any
// other finished game goes away: the state is deleted and the players
// are released for their next match.
func (that *gamePlayService) finishGame(ctx context.Context, game *entity.Game) error {
	log := that.logger.With("method", "finishGame", "gameID", game.ID)

	game.Status = entity.StatusFinished

	winner := game.State.Winner()
	that.archiveResult(ctx, game, winner)
	that.cleanupGame(ctx, game)

	log.Info("game finished", "winner", winner.String())

	return nil
}

func (that *gamePlayService) archiveResult(ctx context.Context, game *entity.Game, winner royalur.Player) {
	if that.archive == nil {
		return
	}

	result := &repository.GameResult{
		GameID:         game.ID,
		GameType:       game.Type,
		Winner:         winner,
		LoserCompleted: game.State.Board().CompletedCount(winner.Opponent()),
		Moves:          len(game.Moves),
		StartedAt:      game.CreatedAt,
		FinishedAt:     time.Now().UTC(),
	}
	if winnerPlayer := game.PlayerBySide(winner); winnerPlayer != nil {
		result.WinnerPlayer = winnerPlayer.ID
	}

	if err := that.archive.Save(ctx, result); err != nil {
		that.logger.Error("failed to archive game result", "gameID", game.ID, "error", err)
	}
}

func (that *gamePlayService) cleanupGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "cleanupGame", "gameID", game.ID)

	if err := that.gameService.DeleteGame(ctx, game.ID); err != nil {
		log.Error("failed to delete game", "error", err)
	}

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		oldSide := player.Side
		player.GameID = ""
		player.Side = royalur.NoPlayer
		if err := that.playerService.UpdatePlayer(ctx, player); err != nil {
			log.Error("failed to update", "player", player.ID, "error", err)
		}
		player.Side = oldSide
	}

	that.locks.forget(game.ID)
}
