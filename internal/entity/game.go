package entity

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rocketscienceinc/royalur-backend/internal/apperror"
	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"
)

const (
	PublicType  = "public"
	PrivateType = "private"
	WithBotType = "bot"
)

const MaxPlayers = 2

var ErrUnknownGameStatus = errors.New("unknown game status")

// Game is one match session: the engine state plus everything the
// server needs to run it for connected players.
type Game struct {
	ID        string        `json:"id"`
	Type      string        `json:"type,omitempty"`
	Status    string        `json:"status"`
	Players   []*Player     `json:"players,omitempty"`
	State     *royalur.Game `json:"state"`
	Moves     []MoveRecord  `json:"moves,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// MoveRecord is one executed move, kept for the match history and the
// finished-game archive. The engine itself stores no history.
type MoveRecord struct {
	Player   royalur.Player `json:"player"`
	PieceID  int            `json:"piece_id"`
	Dice     int            `json:"dice"`
	Captured bool           `json:"captured,omitempty"`
	Scored   bool           `json:"scored,omitempty"`
	Bonus    bool           `json:"bonus,omitempty"`
}

func NewGame(id, gameType string) *Game {
	return &Game{
		ID:        id,
		Type:      gameType,
		Status:    StatusWaiting,
		State:     royalur.NewGame(),
		CreatedAt: time.Now().UTC(),
	}
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameAlreadyOver
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsPublic() bool {
	return that.Type == PublicType
}

func (that *Game) IsWithBot() bool {
	return that.Type == WithBotType
}

// JoinPlayer seats a player; the game starts once both seats are taken.
func (that *Game) JoinPlayer(player *Player) error {
	if len(that.Players) >= MaxPlayers {
		return apperror.ErrGameIsFull
	}

	that.Players = append(that.Players, player)
	if len(that.Players) == MaxPlayers {
		that.Status = StatusOngoing
	}

	return nil
}

func (that *Game) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}
	return nil
}

func (that *Game) PlayerBySide(side royalur.Player) *Player {
	for _, player := range that.Players {
		if player.Side == side {
			return player
		}
	}
	return nil
}

func (that *Game) RandomSides() (royalur.Player, royalur.Player) {
	if rand.Intn(2) == 0 { //nolint: gosec // it's ok
		return royalur.PlayerOne, royalur.PlayerTwo
	}
	return royalur.PlayerTwo, royalur.PlayerOne
}
