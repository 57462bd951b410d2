package royalur

import (
	"fmt"

	"github.com/rocketscienceinc/royalur-backend/internal/apperror"
)

// Game runs one match: it owns the board, whose turn it is, and the
// last dice roll. It never picks a move and never passes the turn on
// its own; the embedding layer drives both, which keeps bonus turns a
// plain caller-side loop.
//
// A Game is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves.
type Game struct {
	board  *Board
	roller DiceRoller

	current Player
	dice    int
	over    bool
	winner  Player
}

func NewGame() *Game {
	return NewGameWithRoller(NewDiceRoller())
}

func NewGameWithRoller(roller DiceRoller) *Game {
	return &Game{
		board:   NewBoard(),
		roller:  roller,
		current: PlayerOne,
	}
}

// SetDiceRoller swaps the dice source, e.g. after restoring a stored
// game or to make a match reproducible.
func (that *Game) SetDiceRoller(roller DiceRoller) {
	that.roller = roller
}

func (that *Game) Board() *Board {
	return that.board
}

func (that *Game) CurrentPlayer() Player {
	return that.current
}

// Dice returns the last roll, 0 until the current player has rolled.
func (that *Game) Dice() int {
	return that.dice
}

func (that *Game) IsOver() bool {
	return that.over
}

// Winner returns the winning side, NoPlayer while the game runs.
func (that *Game) Winner() Player {
	return that.winner
}

// RollDice throws the dice for the current player. Rolling again before
// moving is allowed and replaces the previous result.
func (that *Game) RollDice() (int, error) {
	if that.over {
		return 0, apperror.ErrGameAlreadyOver
	}

	that.dice = that.roller.Roll()

	return that.dice, nil
}

// LegalMoves lists the current player's pieces that may advance by the
// current dice result, in piece id order. A zero roll has no moves.
func (that *Game) LegalMoves() []*Piece {
	if that.over || that.dice == 0 {
		return nil
	}

	var moves []*Piece
	for _, piece := range that.board.Pieces(that.current) {
		if that.board.IsLegalMove(piece, that.dice) {
			moves = append(moves, piece)
		}
	}

	return moves
}

// MakeMove advances piece by the current dice result and reports
// whether the mover earned a bonus turn. On a bonus the caller lets the
// same player roll again, otherwise it calls AdvanceTurn. A rejected
// move leaves the game exactly as it was.
func (that *Game) MakeMove(piece *Piece) (bool, error) {
	if that.over {
		return false, apperror.ErrGameAlreadyOver
	}

	if piece == nil || piece.Owner() != that.current {
		return false, apperror.ErrNotYourPiece
	}

	if !that.board.IsLegalMove(piece, that.dice) {
		return false, fmt.Errorf("%w: piece %d with a roll of %d", apperror.ErrIllegalMove, piece.ID(), that.dice)
	}

	bonus := that.board.MovePiece(piece, that.dice)
	that.dice = 0

	if that.board.CompletedCount(that.current) == PiecesPerPlayer {
		that.over = true
		that.winner = that.current
		return false, nil
	}

	return bonus, nil
}

// AdvanceTurn hands the turn to the opponent and clears the dice. It
// does nothing once the game is over, so the winner stays in place.
func (that *Game) AdvanceTurn() {
	if that.over {
		return
	}

	that.current = that.current.Opponent()
	that.dice = 0
}
