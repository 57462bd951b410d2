package apperror

import "errors"

var (
	ErrNotYourPiece     = errors.New("piece does not belong to you")
	ErrIllegalMove      = errors.New("illegal move")
	ErrGameAlreadyOver  = errors.New("game is already over")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrGameIsFull       = errors.New("game is full")
)
