package repository

import (
	"testing"

	"github.com/rocketscienceinc/royalur-backend/internal/entity"
	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
	"github.com/rocketscienceinc/royalur-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRoller always rolls the same value, which keeps stored games
// deterministic.
type fixedRoller struct{ value int }

func (that fixedRoller) Roll() int { return that.value }

func TestGameRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	gameRepo := NewGameRepository(st.Storage)

	// Given: a fresh game
	game := entity.NewGame("123", entity.PrivateType)

	// When: CreateOrUpdate is called
	err := gameRepo.CreateOrUpdate(ctx, game)

	// Then: no error should be returned, and game is stored
	require.NoError(t, err)
}

func TestGameRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// Given: an ongoing game with one executed move
		game := entity.NewGame("123", entity.PrivateType)
		game.Status = entity.StatusOngoing
		game.State.SetDiceRoller(fixedRoller{value: 1})

		_, err := game.State.RollDice()
		require.NoError(t, err)

		piece := game.State.Board().Piece(royalur.PlayerOne, 1)
		_, err = game.State.MakeMove(piece)
		require.NoError(t, err)

		err = gameRepo.CreateOrUpdate(ctx, game)
		require.NoError(t, err)

		// When: GetByID is called with existing ID
		retrievedGame, err := gameRepo.GetByID(ctx, game.ID)

		// Then: the retrieved game matches the saved one, engine state included
		require.NoError(t, err)
		require.Equal(t, game.ID, retrievedGame.ID)
		require.Equal(t, game.Status, retrievedGame.Status)

		require.NotNil(t, retrievedGame.State)
		assert.Equal(t, royalur.PlayerOne, retrievedGame.State.CurrentPlayer())

		restored := retrievedGame.State.Board().Piece(royalur.PlayerOne, 1)
		require.NotNil(t, restored)

		pos, ok := restored.Location().Square()
		require.True(t, ok)
		assert.Equal(t, royalur.Position{Row: 2, Col: 3}, pos)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		nonExistentGameID := "9999999"

		// When: GetByID is called with non-existent ID
		retrievedGame, err := gameRepo.GetByID(ctx, nonExistentGameID)

		// Then: an ErrGameNotFound error should be returned
		require.Error(t, err)
		assert.Equal(t, ErrGameNotFound, err)
		assert.Empty(t, retrievedGame.ID)
		assert.Empty(t, retrievedGame.Status)
	})
}

func TestGameRepository_DeleteByID(t *testing.T) {
	t.Run("DeleteByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// Given: a stored game
		game := entity.NewGame("123", entity.PrivateType)
		game.Status = entity.StatusFinished

		err := gameRepo.CreateOrUpdate(ctx, game)
		require.NoError(t, err)

		// When: DeleteByID is called with existing ID
		err = gameRepo.DeleteByID(ctx, game.ID)

		// Then: no error should be returned
		require.NoError(t, err)

		_, err = gameRepo.GetByID(ctx, game.ID)
		require.Error(t, err)
		assert.Equal(t, ErrGameNotFound, err)
	})
	t.Run("DeleteByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// Given: a non-existent game ID
		nonExistentGameID := "9999999"

		// When: DeleteByID is called with non-existent ID
		err := gameRepo.DeleteByID(ctx, nonExistentGameID)

		// Then: an ErrGameNotFound error should be returned
		require.Error(t, err)
		require.Equal(t, ErrGameNotFound, err)
	})
}

func TestGameRepository_WaitingList(t *testing.T) {
	t.Run("PopsWaitingGame", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// Given: a stored public game queued for matchmaking
		game := entity.NewGame("123", entity.PublicType)
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))
		require.NoError(t, gameRepo.AddToWaitingList(ctx, game.ID))

		// When: GetWaitingPublicGame is called
		waiting, err := gameRepo.GetWaitingPublicGame(ctx)

		// Then: the queued game is returned
		require.NoError(t, err)
		assert.Equal(t, game.ID, waiting.ID)
	})

	t.Run("SkipsStaleIDs", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// Given: a queue with a deleted game in front of a waiting one
		require.NoError(t, gameRepo.AddToWaitingList(ctx, "deleted-game"))

		game := entity.NewGame("fresh", entity.PublicType)
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))
		require.NoError(t, gameRepo.AddToWaitingList(ctx, game.ID))

		// When: GetWaitingPublicGame is called
		waiting, err := gameRepo.GetWaitingPublicGame(ctx)

		// Then: the stale id is dropped and the waiting game returned
		require.NoError(t, err)
		assert.Equal(t, game.ID, waiting.ID)
	})

	t.Run("EmptyQueue", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// When: GetWaitingPublicGame is called on an empty queue
		_, err := gameRepo.GetWaitingPublicGame(ctx)

		// Then: ErrNoWaitingGames is returned
		require.ErrorIs(t, err, ErrNoWaitingGames)
	})
}
