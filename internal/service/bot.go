package service

import (
	"errors"
	"math/rand"

	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// BotService is the move policy for computer opponents. It only picks a
// piece; rolling the dice and executing the move stay with the gameplay
// service, the same as for a human player.
type BotService interface {
	ChoosePiece(game *royalur.Game) (*royalur.Piece, error)
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

func (that *botService) ChoosePiece(game *royalur.Game) (*royalur.Piece, error) {
	moves := game.LegalMoves()
	if len(moves) == 0 {
		return nil, ErrNoAvailableMoves
	}

	return moves[rand.Intn(len(moves))], nil //nolint: gosec // it's ok
}
