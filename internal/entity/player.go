package entity

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
)

const botIDPrefix = "bot:"

type Player struct {
	ID     string         `json:"id"`
	Side   royalur.Player `json:"side,omitempty"`
	GameID string         `json:"game_id,omitempty"`
}

func NewBotPlayer(gameID string) *Player {
	return &Player{
		ID:     botIDPrefix + uuid.NewString(),
		GameID: gameID,
	}
}

func (that *Player) IsBot() bool {
	return strings.HasPrefix(that.ID, botIDPrefix)
}
