package royalur

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGame_Snapshot(t *testing.T) {
	t.Run("Reflects the position and the playable pieces", func(t *testing.T) {
		// Given: player two rolled a 2 with a piece two squares in
		state := freshState()
		placePiece(state, PlayerTwo, 1, Position{Row: 0, Col: 2})
		state.CurrentPlayer = PlayerTwo
		state.Dice = 2

		game := buildGame(t, state)

		// When: a snapshot is taken
		snap := game.Snapshot()

		// Then: the grid shows the occupant and the counters match
		assert.Equal(t, PlayerTwo, snap.Board[0][2])
		assert.Equal(t, NoPlayer, snap.Board[1][4])
		assert.Equal(t, PlayerTwo, snap.CurrentPlayer)
		assert.Equal(t, 2, snap.Dice)
		assert.False(t, snap.GameOver)
		assert.Nil(t, snap.Winner)

		assert.Equal(t, PieceCounts{InHand: 7, Completed: 0}, snap.PlayerOne)
		assert.Equal(t, PieceCounts{InHand: 6, Completed: 0}, snap.PlayerTwo)

		// And: only the piece on the board may move, the entry square
		// for this roll is held by its own side
		assert.Equal(t, []int{1}, snap.LegalMoves)
	})

	t.Run("Counts completed pieces", func(t *testing.T) {
		state := freshState()
		placePiece(state, PlayerOne, 2, Position{Row: 1, Col: 5})
		completePiece(state, PlayerOne, 1)

		game := buildGame(t, state)

		snap := game.Snapshot()

		assert.Equal(t, PieceCounts{InHand: 5, Completed: 1}, snap.PlayerOne)
		assert.Equal(t, PlayerOne, snap.Board[1][5])
		assert.Empty(t, snap.LegalMoves)
	})

	t.Run("Names the winner once the game is over", func(t *testing.T) {
		// Given: a decided game
		state := freshState()
		for id := 1; id <= PiecesPerPlayer; id++ {
			completePiece(state, PlayerTwo, id)
		}
		state.GameOver = true
		state.Winner = PlayerTwo

		game := buildGame(t, state)

		// When: a snapshot is taken
		snap := game.Snapshot()

		// Then: the winner is set and nothing may move
		assert.True(t, snap.GameOver)
		require.NotNil(t, snap.Winner)
		assert.Equal(t, PlayerTwo, *snap.Winner)
		assert.Empty(t, snap.LegalMoves)
		assert.Equal(t, PieceCounts{InHand: 0, Completed: 7}, snap.PlayerTwo)
	})
}
