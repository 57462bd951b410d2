package entity

import (
	"testing"

	"github.com/rocketscienceinc/royalur-backend/internal/apperror"
	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameStatusMethods(t *testing.T) {
	t.Run("IsFinished returns true when game status is finished", func(t *testing.T) {
		// Given: a game with StatusFinished
		game := &Game{Status: StatusFinished}

		// When: checking if the game is finished
		isFinished := game.IsFinished()

		// Then: it should return true
		assert.True(t, isFinished)
	})

	t.Run("IsOngoing returns true when game status is ongoing", func(t *testing.T) {
		// Given: a game with StatusOngoing
		game := &Game{Status: StatusOngoing}

		// When: checking if the game is ongoing
		isOngoing := game.IsOngoing()

		// Then: it should return true
		assert.True(t, isOngoing)
	})

	t.Run("IsWaiting returns true when game status is waiting", func(t *testing.T) {
		// Given: a game with StatusWaiting
		game := &Game{Status: StatusWaiting}

		// When: checking if the game is waiting
		isWaiting := game.IsWaiting()

		// Then: it should return true
		assert.True(t, isWaiting)
	})
}

func TestGame_ConfirmOngoingState(t *testing.T) {
	t.Run("Returns nil when game is ongoing", func(t *testing.T) {
		// Given: a game with StatusOngoing
		game := &Game{Status: StatusOngoing}

		// When: checking if the game is active
		err := game.ConfirmOngoingState()

		// Then: it should return nil error
		assert.NoError(t, err)
	})

	t.Run("Returns ErrGameIsNotStarted when game is waiting", func(t *testing.T) {
		// Given: a game with StatusWaiting
		game := &Game{Status: StatusWaiting}

		// When: checking if the game is active
		err := game.ConfirmOngoingState()

		// Then: it should return ErrGameIsNotStarted
		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Returns ErrGameAlreadyOver when game is finished", func(t *testing.T) {
		// Given: a game with StatusFinished
		game := &Game{Status: StatusFinished}

		// When: checking if the game is active
		err := game.ConfirmOngoingState()

		// Then: it should return ErrGameAlreadyOver
		assert.ErrorIs(t, err, apperror.ErrGameAlreadyOver)
	})

	t.Run("Returns error for unknown game status", func(t *testing.T) {
		// Given: a game with unknown status
		game := &Game{Status: "paused"}

		// When: checking if the game is active
		err := game.ConfirmOngoingState()

		// Then: it should name the unknown status
		require.ErrorIs(t, err, ErrUnknownGameStatus)
		assert.Contains(t, err.Error(), "paused")
	})
}

func TestNewGame(t *testing.T) {
	// Given/When: a new private game
	game := NewGame("123", PrivateType)

	// Then: it waits for players with a fresh engine state
	assert.Equal(t, "123", game.ID)
	assert.Equal(t, PrivateType, game.Type)
	assert.Equal(t, StatusWaiting, game.Status)
	assert.Empty(t, game.Players)
	assert.Empty(t, game.Moves)
	assert.False(t, game.CreatedAt.IsZero())

	require.NotNil(t, game.State)
	assert.Equal(t, royalur.PlayerOne, game.State.CurrentPlayer())
	assert.False(t, game.State.IsOver())
}

func TestGame_JoinPlayer(t *testing.T) {
	t.Run("The first player keeps the game waiting", func(t *testing.T) {
		// Given: an empty game
		game := NewGame("123", PrivateType)

		// When: one player takes a seat
		err := game.JoinPlayer(&Player{ID: "player-1"})

		// Then: the game still waits for an opponent
		require.NoError(t, err)
		assert.Equal(t, StatusWaiting, game.Status)
		assert.Len(t, game.Players, 1)
	})

	t.Run("The second player starts the game", func(t *testing.T) {
		// Given: a game with one seated player
		game := NewGame("123", PrivateType)
		require.NoError(t, game.JoinPlayer(&Player{ID: "player-1"}))

		// When: the opponent joins
		err := game.JoinPlayer(&Player{ID: "player-2"})

		// Then: the game is ongoing
		require.NoError(t, err)
		assert.Equal(t, StatusOngoing, game.Status)
		assert.Len(t, game.Players, 2)
	})

	t.Run("A third player is rejected", func(t *testing.T) {
		// Given: a full game
		game := NewGame("123", PrivateType)
		require.NoError(t, game.JoinPlayer(&Player{ID: "player-1"}))
		require.NoError(t, game.JoinPlayer(&Player{ID: "player-2"}))

		// When: somebody else tries to join
		err := game.JoinPlayer(&Player{ID: "player-3"})

		// Then: the game is full and the seats are unchanged
		assert.ErrorIs(t, err, apperror.ErrGameIsFull)
		assert.Len(t, game.Players, 2)
	})
}

func TestGame_PlayerLookup(t *testing.T) {
	// Given: a game with two seated players
	first := &Player{ID: "player-1", Side: royalur.PlayerOne}
	second := &Player{ID: "player-2", Side: royalur.PlayerTwo}

	game := NewGame("123", PrivateType)
	require.NoError(t, game.JoinPlayer(first))
	require.NoError(t, game.JoinPlayer(second))

	t.Run("PlayerByID finds a seated player", func(t *testing.T) {
		assert.Equal(t, second, game.PlayerByID("player-2"))
		assert.Nil(t, game.PlayerByID("stranger"))
	})

	t.Run("PlayerBySide finds the player holding a side", func(t *testing.T) {
		assert.Equal(t, first, game.PlayerBySide(royalur.PlayerOne))
		assert.Nil(t, game.PlayerBySide(royalur.NoPlayer))
	})
}

func TestGameTypeMethods(t *testing.T) {
	assert.True(t, NewGame("123", PublicType).IsPublic())
	assert.False(t, NewGame("123", PrivateType).IsPublic())
	assert.True(t, NewGame("123", WithBotType).IsWithBot())
	assert.False(t, NewGame("123", PublicType).IsWithBot())
}

func TestGame_RandomSides(t *testing.T) {
	// Given: any game
	game := NewGame("123", PublicType)

	// When/Then: the two assigned sides are always valid opponents
	for i := 0; i < 20; i++ {
		first, second := game.RandomSides()
		assert.True(t, first.Valid())
		assert.True(t, second.Valid())
		assert.Equal(t, first.Opponent(), second)
	}
}

func TestPlayer_IsBot(t *testing.T) {
	t.Run("A generated bot player is a bot", func(t *testing.T) {
		// Given/When: a bot created for a game
		bot := NewBotPlayer("123")

		// Then: it is recognizable and bound to its game
		assert.True(t, bot.IsBot())
		assert.Equal(t, "123", bot.GameID)
		assert.NotEmpty(t, bot.ID)
	})

	t.Run("A human player is not", func(t *testing.T) {
		// Given: an ordinary player
		player := &Player{ID: "player-1"}

		// Then: it is not a bot
		assert.False(t, player.IsBot())
	})
}
