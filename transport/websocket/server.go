package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/royalur-backend/internal/entity"
)

const (
	disconnectGracePeriod   = 30 * time.Second
	disconnectCheckInterval = 5 * time.Second

	shutdownTimeout = 5 * time.Second
)

type gamePlay interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)

	GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	CreateOrJoinToPublicGame(ctx context.Context, playerID string) (*entity.Game, error)
	JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)

	Roll(ctx context.Context, playerID string) (*entity.Game, int, error)
	MakeMove(ctx context.Context, playerID string, pieceID int) (*entity.Game, error)
	ForfeitGame(ctx context.Context, playerID string) (*entity.Game, error)
}

// connection serializes writes, gorilla allows a single concurrent writer.
type connection struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (that *connection) send(msg *Message) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

type Server struct {
	logger   *slog.Logger
	gameplay gamePlay

	upgrader websocket.Upgrader

	connectionsMutex sync.RWMutex
	connections      map[string]*connection

	disconnectedMutex   sync.Mutex
	disconnectedPlayers map[string]time.Time

	handlers map[string]func(ctx context.Context, msg *Message, conn *connection) error
}

func New(logger *slog.Logger, gameplay gamePlay) *Server {
	server := &Server{
		logger:   logger,
		gameplay: gameplay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		connections:         make(map[string]*connection),
		disconnectedPlayers: make(map[string]time.Time),
		handlers:            make(map[string]func(context.Context, *Message, *connection) error),
	}

	server.handlers["connect"] = server.handleConnect
	server.handlers["game:new"] = server.handleNewGame
	server.handlers["game:join"] = server.handleJoinGame
	server.handlers["game:state"] = server.handleGameState
	server.handlers["game:roll"] = server.handleGameRoll
	server.handlers["game:turn"] = server.handleGameTurn
	server.handlers["game:leave"] = server.handleGameLeave

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go that.monitorDisconnectedPlayers(ctx)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	wsConn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer wsConn.Close()

	log.Info("WebSocket connection established", "remoteAddr", wsConn.RemoteAddr().String())

	that.handleMessages(ctx, &connection{conn: wsConn})
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "handleMessages")

	for {
		var message Message
		if err := conn.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("connection closed unexpectedly", "error", err)
			}

			that.handleDisconnect(conn)

			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)

			if err := that.sendErrorResponse(conn, message.Action, "unknown action"); err != nil {
				log.Error("failed to send error response", "error", err)
			}

			continue
		}

		if err := handler(ctx, &message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) registerConnection(playerID string, conn *connection) {
	that.connectionsMutex.Lock()
	that.connections[playerID] = conn
	that.connectionsMutex.Unlock()

	that.playerReconnected(playerID)
}

func (that *Server) lookupConnection(playerID string) (*connection, bool) {
	that.connectionsMutex.RLock()
	conn, ok := that.connections[playerID]
	that.connectionsMutex.RUnlock()

	return conn, ok
}

func (that *Server) handleDisconnect(conn *connection) {
	log := that.logger.With("method", "handleDisconnect")

	that.connectionsMutex.Lock()
	var disconnectedPlayerID string
	for playerID, candidate := range that.connections {
		if candidate == conn {
			disconnectedPlayerID = playerID
			break
		}
	}

	// A connection that never identified itself has nothing to clean up.
	if disconnectedPlayerID == "" {
		that.connectionsMutex.Unlock()
		return
	}

	delete(that.connections, disconnectedPlayerID)
	that.connectionsMutex.Unlock()

	log.Info("player disconnected", "playerID", disconnectedPlayerID)

	that.disconnectedMutex.Lock()
	that.disconnectedPlayers[disconnectedPlayerID] = time.Now()
	that.disconnectedMutex.Unlock()
}

// monitorDisconnectedPlayers forfeits the games of players who never
// came back within the grace period.
func (that *Server) monitorDisconnectedPlayers(ctx context.Context) {
	ticker := time.NewTicker(disconnectCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.reapDisconnectedPlayers(ctx)
		}
	}
}

func (that *Server) reapDisconnectedPlayers(ctx context.Context) {
	that.disconnectedMutex.Lock()
	var expired []string
	for playerID, since := range that.disconnectedPlayers {
		if time.Since(since) >= disconnectGracePeriod {
			expired = append(expired, playerID)
			delete(that.disconnectedPlayers, playerID)
		}
	}
	that.disconnectedMutex.Unlock()

	for _, playerID := range expired {
		that.handleOpponentOut(ctx, playerID)
	}
}

func (that *Server) playerReconnected(playerID string) {
	that.disconnectedMutex.Lock()
	defer that.disconnectedMutex.Unlock()
	delete(that.disconnectedPlayers, playerID)
}
