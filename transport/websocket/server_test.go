package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/royalur-backend/internal/apperror"
	"github.com/rocketscienceinc/royalur-backend/internal/entity"
	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readWait = 5 * time.Second

type stubGamePlay struct {
	getOrCreatePlayer        func(ctx context.Context, id string) (*entity.Player, error)
	getOrCreateGame          func(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	createOrJoinToPublicGame func(ctx context.Context, playerID string) (*entity.Game, error)
	joinGameByID             func(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	getGameByPlayerID        func(ctx context.Context, playerID string) (*entity.Game, error)
	roll                     func(ctx context.Context, playerID string) (*entity.Game, int, error)
	makeMove                 func(ctx context.Context, playerID string, pieceID int) (*entity.Game, error)
	forfeitGame              func(ctx context.Context, playerID string) (*entity.Game, error)
}

func (that *stubGamePlay) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	return that.getOrCreatePlayer(ctx, id)
}

func (that *stubGamePlay) GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error) {
	return that.getOrCreateGame(ctx, playerID, gameType)
}

func (that *stubGamePlay) CreateOrJoinToPublicGame(ctx context.Context, playerID string) (*entity.Game, error) {
	return that.createOrJoinToPublicGame(ctx, playerID)
}

func (that *stubGamePlay) JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	return that.joinGameByID(ctx, gameID, playerID)
}

func (that *stubGamePlay) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	return that.getGameByPlayerID(ctx, playerID)
}

func (that *stubGamePlay) Roll(ctx context.Context, playerID string) (*entity.Game, int, error) {
	return that.roll(ctx, playerID)
}

func (that *stubGamePlay) MakeMove(ctx context.Context, playerID string, pieceID int) (*entity.Game, error) {
	return that.makeMove(ctx, playerID, pieceID)
}

func (that *stubGamePlay) ForfeitGame(ctx context.Context, playerID string) (*entity.Game, error) {
	return that.forfeitGame(ctx, playerID)
}

type wsFixture struct {
	server *Server
	url    string
}

func newWSFixture(t *testing.T, gameplay gamePlay) *wsFixture {
	t.Helper()

	server := New(slog.New(slog.NewTextHandler(io.Discard, nil)), gameplay)

	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.upgradeToWebSocket(context.Background(), w, r)
	}))
	t.Cleanup(httpServer.Close)

	return &wsFixture{
		server: server,
		url:    "ws" + strings.TrimPrefix(httpServer.URL, "http"),
	}
}

func (that *wsFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(that.url, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload *Payload) {
	t.Helper()

	msg := Message{Action: action}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Payload = raw
	}

	require.NoError(t, conn.WriteJSON(&msg))
}

func receive(t *testing.T, conn *websocket.Conn) (string, *Payload) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readWait)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	payload, err := parsePayload(&msg)
	require.NoError(t, err)

	return msg.Action, payload
}

// twoPlayerGame builds an ongoing game with both humans seated.
func twoPlayerGame() *entity.Game {
	game := entity.NewGame("game-1", entity.PrivateType)
	_ = game.JoinPlayer(&entity.Player{ID: "player-1", Side: royalur.PlayerOne, GameID: game.ID})
	_ = game.JoinPlayer(&entity.Player{ID: "player-2", Side: royalur.PlayerTwo, GameID: game.ID})

	return game
}

func TestServer_Connect(t *testing.T) {
	t.Run("A new player is registered and answered", func(t *testing.T) {
		// Given: a gameplay service that knows no games yet
		fixture := newWSFixture(t, &stubGamePlay{
			getOrCreatePlayer: func(_ context.Context, id string) (*entity.Player, error) {
				return &entity.Player{ID: id}, nil
			},
		})
		conn := fixture.dial(t)

		// When: the client connects with its id
		send(t, conn, "connect", &Payload{Player: &entity.Player{ID: "player-1"}})

		// Then: the player comes back without a game
		action, payload := receive(t, conn)
		assert.Equal(t, "connect", action)
		require.NotNil(t, payload.Player)
		assert.Equal(t, "player-1", payload.Player.ID)
		assert.Nil(t, payload.Game)

		// And: the connection is registered under the player id
		_, ok := fixture.server.lookupConnection("player-1")
		assert.True(t, ok)
	})

	t.Run("A seated player gets the running game back", func(t *testing.T) {
		// Given: a player who already sits in a game
		game := twoPlayerGame()
		fixture := newWSFixture(t, &stubGamePlay{
			getOrCreatePlayer: func(_ context.Context, id string) (*entity.Player, error) {
				return &entity.Player{ID: id, GameID: game.ID, Side: royalur.PlayerOne}, nil
			},
			getGameByPlayerID: func(_ context.Context, _ string) (*entity.Game, error) {
				return game, nil
			},
		})
		conn := fixture.dial(t)

		// When: the client reconnects
		send(t, conn, "connect", &Payload{Player: &entity.Player{ID: "player-1"}})

		// Then: the game comes back masked, with the full board snapshot
		action, payload := receive(t, conn)
		assert.Equal(t, "connect", action)
		require.NotNil(t, payload.Game)
		assert.Equal(t, "game-1", payload.Game.ID)
		assert.Empty(t, payload.Game.Players)
		assert.Empty(t, payload.Game.Type)
		require.NotNil(t, payload.Snapshot)
		assert.Equal(t, royalur.PlayerOne, payload.Snapshot.CurrentPlayer)
	})

	t.Run("Connecting without a player is an error", func(t *testing.T) {
		fixture := newWSFixture(t, &stubGamePlay{})
		conn := fixture.dial(t)

		send(t, conn, "connect", nil)

		action, payload := receive(t, conn)
		assert.Equal(t, "connect", action)
		assert.Equal(t, "Player is required", payload.Error)
	})
}

func TestServer_UnknownAction(t *testing.T) {
	// Given: a connected client
	fixture := newWSFixture(t, &stubGamePlay{})
	conn := fixture.dial(t)

	// When: the client sends an action nobody handles
	send(t, conn, "dance", nil)

	// Then: the error names the action and the connection stays open
	action, payload := receive(t, conn)
	assert.Equal(t, "dance", action)
	assert.Equal(t, "unknown action", payload.Error)

	send(t, conn, "connect", nil)
	_, payload = receive(t, conn)
	assert.Equal(t, "Player is required", payload.Error)
}

func TestServer_NewGame(t *testing.T) {
	t.Run("Creates a game and broadcasts it to the creator", func(t *testing.T) {
		// Given: a gameplay service seating the creator
		var requestedType string
		fixture := newWSFixture(t, &stubGamePlay{
			getOrCreateGame: func(_ context.Context, playerID, gameType string) (*entity.Game, error) {
				requestedType = gameType

				game := entity.NewGame("game-1", gameType)
				_ = game.JoinPlayer(&entity.Player{ID: playerID, Side: royalur.PlayerOne, GameID: game.ID})
				return game, nil
			},
		})
		conn := fixture.dial(t)

		// When: the client opens a bot game
		send(t, conn, "game:new", &Payload{
			Player: &entity.Player{ID: "player-1"},
			Game:   &entity.Game{Type: entity.WithBotType},
		})

		// Then: the requested type went through and the game is announced
		action, payload := receive(t, conn)
		assert.Equal(t, "game:new", action)
		assert.Equal(t, entity.WithBotType, requestedType)
		require.NotNil(t, payload.Game)
		assert.Equal(t, "game-1", payload.Game.ID)
		assert.Empty(t, payload.Game.Type)
		require.NotNil(t, payload.Snapshot)
	})

	t.Run("A public game goes through matchmaking", func(t *testing.T) {
		// Given: a gameplay service with a waiting public game
		matched := false
		fixture := newWSFixture(t, &stubGamePlay{
			createOrJoinToPublicGame: func(_ context.Context, playerID string) (*entity.Game, error) {
				matched = true

				game := entity.NewGame("game-1", entity.PublicType)
				_ = game.JoinPlayer(&entity.Player{ID: playerID, Side: royalur.PlayerOne, GameID: game.ID})
				return game, nil
			},
		})
		conn := fixture.dial(t)

		// When: the client asks for a public game
		send(t, conn, "game:new", &Payload{
			Player: &entity.Player{ID: "player-1"},
			Game:   &entity.Game{Type: entity.PublicType},
		})

		// Then: matchmaking was used instead of a private game
		action, _ := receive(t, conn)
		assert.Equal(t, "game:new", action)
		assert.True(t, matched)
	})
}

func TestServer_GameRoll(t *testing.T) {
	t.Run("The roll reaches every connected player", func(t *testing.T) {
		// Given: both players of one game are connected
		game := twoPlayerGame()
		fixture := newWSFixture(t, &stubGamePlay{
			getOrCreatePlayer: func(_ context.Context, id string) (*entity.Player, error) {
				return game.PlayerByID(id), nil
			},
			getGameByPlayerID: func(_ context.Context, _ string) (*entity.Game, error) {
				return game, nil
			},
			roll: func(_ context.Context, _ string) (*entity.Game, int, error) {
				return game, 3, nil
			},
		})

		first := fixture.dial(t)
		send(t, first, "connect", &Payload{Player: &entity.Player{ID: "player-1"}})
		receive(t, first)

		second := fixture.dial(t)
		send(t, second, "connect", &Payload{Player: &entity.Player{ID: "player-2"}})
		receive(t, second)

		// When: player one rolls
		send(t, first, "game:roll", &Payload{Player: &entity.Player{ID: "player-1"}})

		// Then: both clients see the same dice
		for _, conn := range []*websocket.Conn{first, second} {
			action, payload := receive(t, conn)
			assert.Equal(t, "game:roll", action)
			require.NotNil(t, payload.Dice)
			assert.Equal(t, 3, *payload.Dice)
			require.NotNil(t, payload.Game)
			assert.Equal(t, "game-1", payload.Game.ID)
		}
	})

	t.Run("A roll out of turn is reported to the caller only", func(t *testing.T) {
		// Given: a gameplay service rejecting the roll
		fixture := newWSFixture(t, &stubGamePlay{
			roll: func(_ context.Context, _ string) (*entity.Game, int, error) {
				return nil, 0, apperror.ErrNotYourTurn
			},
		})
		conn := fixture.dial(t)

		// When: the client rolls anyway
		send(t, conn, "game:roll", &Payload{Player: &entity.Player{ID: "player-2"}})

		// Then: the rule violation comes back as an error payload
		action, payload := receive(t, conn)
		assert.Equal(t, "game:roll", action)
		assert.Equal(t, apperror.ErrNotYourTurn.Error(), payload.Error)
	})
}

func TestServer_GameTurn(t *testing.T) {
	t.Run("Executes the move with the given piece", func(t *testing.T) {
		// Given: a gameplay service recording the move
		game := twoPlayerGame()
		var movedPiece int
		fixture := newWSFixture(t, &stubGamePlay{
			makeMove: func(_ context.Context, _ string, pieceID int) (*entity.Game, error) {
				movedPiece = pieceID
				return game, nil
			},
		})
		conn := fixture.dial(t)

		// When: the client plays piece 4
		pieceID := 4
		send(t, conn, "game:turn", &Payload{
			Player:  &entity.Player{ID: "player-1"},
			PieceID: &pieceID,
		})

		// Then: the move went through and the update is broadcast
		action, payload := receive(t, conn)
		assert.Equal(t, "game:turn", action)
		assert.Equal(t, 4, movedPiece)
		require.NotNil(t, payload.Snapshot)
	})

	t.Run("A move without a piece is rejected", func(t *testing.T) {
		fixture := newWSFixture(t, &stubGamePlay{})
		conn := fixture.dial(t)

		send(t, conn, "game:turn", &Payload{Player: &entity.Player{ID: "player-1"}})

		_, payload := receive(t, conn)
		assert.Equal(t, "PieceID is required", payload.Error)
	})
}

func TestServer_GameLeave(t *testing.T) {
	// Given: a game forfeited by player two
	game := twoPlayerGame()
	game.Status = entity.StatusFinished
	fixture := newWSFixture(t, &stubGamePlay{
		forfeitGame: func(_ context.Context, playerID string) (*entity.Game, error) {
			require.Equal(t, "player-2", playerID)
			return game, nil
		},
	})
	conn := fixture.dial(t)

	// When: player two leaves
	send(t, conn, "game:leave", &Payload{Player: &entity.Player{ID: "player-2"}})

	// Then: the leaver is told the game ended by leaving
	action, payload := receive(t, conn)
	assert.Equal(t, "game:leave", action)
	require.NotNil(t, payload.Game)
	assert.Equal(t, gameStatusLeave, payload.Game.Status)
}

func TestServer_DisconnectReaper(t *testing.T) {
	ctx := context.Background()

	t.Run("Forfeits the game once the grace period runs out", func(t *testing.T) {
		// Given: a player disconnected for longer than the grace period
		game := twoPlayerGame()
		var forfeited string
		fixture := newWSFixture(t, &stubGamePlay{
			forfeitGame: func(_ context.Context, playerID string) (*entity.Game, error) {
				forfeited = playerID
				return game, nil
			},
		})

		fixture.server.disconnectedPlayers["player-2"] = time.Now().Add(-disconnectGracePeriod - time.Second)

		// When: the reaper runs
		fixture.server.reapDisconnectedPlayers(ctx)

		// Then: the absent player forfeited and is no longer tracked
		assert.Equal(t, "player-2", forfeited)
		assert.Empty(t, fixture.server.disconnectedPlayers)
	})

	t.Run("Leaves fresh disconnects alone", func(t *testing.T) {
		// Given: a player who only just dropped
		called := false
		fixture := newWSFixture(t, &stubGamePlay{
			forfeitGame: func(_ context.Context, _ string) (*entity.Game, error) {
				called = true
				return nil, nil
			},
		})

		fixture.server.disconnectedPlayers["player-2"] = time.Now()

		// When: the reaper runs
		fixture.server.reapDisconnectedPlayers(ctx)

		// Then: the player keeps the grace period
		assert.False(t, called)
		assert.Contains(t, fixture.server.disconnectedPlayers, "player-2")
	})

	t.Run("Reconnecting clears the disconnect mark", func(t *testing.T) {
		// Given: a recently dropped player
		fixture := newWSFixture(t, &stubGamePlay{
			getOrCreatePlayer: func(_ context.Context, id string) (*entity.Player, error) {
				return &entity.Player{ID: id}, nil
			},
		})
		fixture.server.disconnectedPlayers["player-1"] = time.Now()

		// When: the player connects again
		conn := fixture.dial(t)
		send(t, conn, "connect", &Payload{Player: &entity.Player{ID: "player-1"}})
		receive(t, conn)

		// Then: the pending forfeit is cancelled
		fixture.server.disconnectedMutex.Lock()
		_, pending := fixture.server.disconnectedPlayers["player-1"]
		fixture.server.disconnectedMutex.Unlock()
		assert.False(t, pending)
	})
}
