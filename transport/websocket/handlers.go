package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/royalur-backend/internal/apperror"
	"github.com/rocketscienceinc/royalur-backend/internal/entity"
	"github.com/rocketscienceinc/royalur-backend/internal/repository"
)

const (
	payloadActionGameLeave = "game:leave"
	gameStatusLeave        = "leave"
	gameStatusOpponentOut  = "opponent_out"
)

func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := parsePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	player, err := that.gameplay.GetOrCreatePlayer(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to get or create player", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "failed to create a new player")
	}

	that.registerConnection(player.ID, conn)

	if player.GameID != "" {
		return that.handleExistingGame(ctx, msg, conn, player)
	}

	payloadResp := Payload{Player: player}

	if err = that.sendMessage(conn, msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "playerID", player.ID)

	return nil
}

// handleExistingGame reports the running game back to a player who reconnected.
func (that *Server) handleExistingGame(ctx context.Context, msg *Message, conn *connection, player *entity.Player) error {
	log := that.logger.With("method", "handleExistingGame")

	game, err := that.gameplay.GetGameByPlayerID(ctx, player.ID)
	if err != nil {
		log.Error("failed to get game", "gameID", player.GameID, "error", err)
		return that.sendErrorResponse(conn, msg.Action, "failed to get the game")
	}

	payloadResp := Payload{
		Player:   player,
		Game:     maskGameDetails(game),
		Snapshot: game.State.Snapshot(),
	}

	return that.sendMessage(conn, msg.Action, payloadResp)
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleNewGame")

	payloadReq, err := parsePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	if payloadReq.Game == nil {
		log.Error("Game is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Game is required")
	}

	that.registerConnection(payloadReq.Player.ID, conn)

	var game *entity.Game

	if payloadReq.Game.IsPublic() {
		game, err = that.gameplay.CreateOrJoinToPublicGame(ctx, payloadReq.Player.ID)
		if err != nil {
			log.Error("failed to create or join to public game", "error", err)
			return that.sendErrorResponse(conn, msg.Action, "failed to create or join to public game")
		}
	} else {
		game, err = that.gameplay.GetOrCreateGame(ctx, payloadReq.Player.ID, payloadReq.Game.Type)
		if err != nil {
			log.Error("failed to get or create game", "error", err)
			return that.sendErrorResponse(conn, msg.Action, "failed to create a new game")
		}
	}

	that.broadcastGame(msg.Action, game, nil)

	log.Info("player entered game", "playerID", payloadReq.Player.ID, "gameID", game.ID)

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleJoinGame")

	payloadReq, err := parsePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	if payloadReq.Game == nil || payloadReq.Game.ID == "" {
		log.Error("Game is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Game is required")
	}

	that.registerConnection(payloadReq.Player.ID, conn)

	log = log.With("playerID", payloadReq.Player.ID)

	game, err := that.gameplay.JoinGameByID(ctx, payloadReq.Game.ID, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to join game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("game %s: %v", payloadReq.Game.ID, err))
	}

	that.broadcastGame(msg.Action, game, nil)

	log.Info("player joined game", "gameID", game.ID)

	return nil
}

func (that *Server) handleGameState(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameState")

	payloadReq, err := parsePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	that.registerConnection(payloadReq.Player.ID, conn)

	game, err := that.gameplay.GetGameByPlayerID(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to get game", "playerID", payloadReq.Player.ID, "error", err)
		return that.sendErrorResponse(conn, msg.Action, "game doesn't exist")
	}

	payloadResp := Payload{
		Player:   game.PlayerByID(payloadReq.Player.ID),
		Game:     maskGameDetails(game),
		Snapshot: game.State.Snapshot(),
	}

	return that.sendMessage(conn, msg.Action, payloadResp)
}

func (that *Server) handleGameRoll(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameRoll")

	payloadReq, err := parsePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	that.registerConnection(payloadReq.Player.ID, conn)

	log = log.With("playerID", payloadReq.Player.ID)

	game, dice, err := that.gameplay.Roll(ctx, payloadReq.Player.ID)
	if err != nil {
		return that.sendGameError(conn, msg.Action, log, err)
	}

	that.broadcastGame(msg.Action, game, &dice)

	log.Info("player rolled the dice", "gameID", game.ID, "dice", dice)

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameTurn")

	payloadReq, err := parsePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	if payloadReq.PieceID == nil {
		log.Error("PieceID is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "PieceID is required")
	}

	that.registerConnection(payloadReq.Player.ID, conn)

	log = log.With("playerID", payloadReq.Player.ID)

	game, err := that.gameplay.MakeMove(ctx, payloadReq.Player.ID, *payloadReq.PieceID)
	if err != nil {
		return that.sendGameError(conn, msg.Action, log, err)
	}

	that.broadcastGame(msg.Action, game, nil)

	log.Info("player made a move", "gameID", game.ID, "pieceID", *payloadReq.PieceID)

	return nil
}

func (that *Server) handleGameLeave(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameLeave")

	payloadReq, err := parsePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	that.registerConnection(payloadReq.Player.ID, conn)

	game, err := that.gameplay.ForfeitGame(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to leave game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "game doesn't exist")
	}

	masked := maskGameDetails(game)
	masked.Status = gameStatusLeave

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		playerConn, ok := that.lookupConnection(player.ID)
		if !ok {
			continue
		}

		payloadResp := Payload{
			Player:   player,
			Game:     masked,
			Snapshot: game.State.Snapshot(),
		}

		if err = that.sendMessage(playerConn, payloadActionGameLeave, payloadResp); err != nil {
			log.Error("failed to send game update", "error", err)
		}
	}

	log.Info("player left game", "playerID", payloadReq.Player.ID, "gameID", game.ID)

	return nil
}

// handleOpponentOut settles the game of a player whose disconnect grace
// period ran out. The remaining player wins by forfeit.
func (that *Server) handleOpponentOut(ctx context.Context, playerID string) {
	log := that.logger.With("method", "handleOpponentOut")

	game, err := that.gameplay.ForfeitGame(ctx, playerID)
	if err != nil {
		if !errors.Is(err, repository.ErrGameNotFound) {
			log.Error("failed to forfeit game", "playerID", playerID, "error", err)
		}
		return
	}

	masked := maskGameDetails(game)
	masked.Status = gameStatusOpponentOut

	for _, player := range game.Players {
		if player.ID == playerID || player.IsBot() {
			continue
		}

		playerConn, ok := that.lookupConnection(player.ID)
		if !ok {
			log.Warn("opponent connection not found", "playerID", player.ID)
			continue
		}

		payloadResp := Payload{
			Player:   player,
			Game:     masked,
			Snapshot: game.State.Snapshot(),
		}

		if err = that.sendMessage(playerConn, payloadActionGameLeave, payloadResp); err != nil {
			log.Error("failed to send game:leave message", "playerID", player.ID, "error", err)
		}
	}

	log.Info("handled opponent out", "gameID", game.ID)
}

// broadcastGame sends the updated game to every connected human player in it.
func (that *Server) broadcastGame(action string, game *entity.Game, dice *int) {
	log := that.logger.With("method", "broadcastGame", "gameID", game.ID)

	masked := maskGameDetails(game)
	snapshot := game.State.Snapshot()

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		conn, ok := that.lookupConnection(player.ID)
		if !ok {
			log.Warn("connection not found for player", "playerID", player.ID)
			continue
		}

		payloadResp := Payload{
			Player:   player,
			Game:     masked,
			Snapshot: snapshot,
			Dice:     dice,
		}

		if err := that.sendMessage(conn, action, payloadResp); err != nil {
			log.Error("failed to send game update", "error", err)
		}
	}
}

// sendGameError reports a failed game action back to the caller. Rule
// violations travel as error payloads, anything unexpected also lands
// in the log.
func (that *Server) sendGameError(conn *connection, action string, log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrNotYourPiece),
		errors.Is(err, apperror.ErrIllegalMove),
		errors.Is(err, apperror.ErrGameAlreadyOver),
		errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, repository.ErrGameNotFound):
		return that.sendErrorResponse(conn, action, err.Error())
	}

	log.Error("failed to process game action", "error", err)

	return that.sendErrorResponse(conn, action, "internal error")
}

// maskGameDetails hides the seat assignments from the game payload.
func maskGameDetails(game *entity.Game) *entity.Game {
	masked := *game
	masked.Players = nil
	masked.Type = ""

	return &masked
}
