package websocket

import (
	"context"
	"net/http"
	"time"

	"sixthed-backend/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Keepalive budget: the read deadline is refreshed on every pong, and
// pings go out comfortably inside it so an idle seat (a player sitting
// on priority, thinking) is never dropped by the deadline alone.
const (
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	pingInterval  = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origin policy is enforced by the CORS middleware on the gin
	// router; the upgrader accepts whatever reached it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades inbound HTTP requests into hub-registered game
// connections. Each accepted socket carries one seat's action
// submissions and state broadcasts until it drops.
type Handler struct {
	hub    *Hub
	logger *zap.Logger
}

// NewHandler builds a Handler feeding hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub, logger: logger.Get()}
}

// ServeWS upgrades the request, registers the connection with the hub,
// starts its write pump and keepalive ping loop, and runs the read pump
// until the socket drops; returning then stops the other two. The seat
// itself is only bound later, when the client sends PLAYER_CONNECT.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	connection := NewConnection(uuid.New().String(), conn, h.hub)
	h.logger.Info("websocket connection established",
		zap.String("connection_id", connection.ID),
		zap.String("remote_addr", r.RemoteAddr))

	h.hub.Register <- connection

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	armKeepalive(conn)

	go connection.WritePump(ctx)
	go h.pingLoop(ctx, connection)
	connection.ReadPump(ctx)
}

// armKeepalive sets the initial deadlines and re-arms the read deadline
// whenever a pong answers one of pingLoop's pings.
func armKeepalive(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
}

// pingLoop pings the connection every pingInterval until the context is
// cancelled or a write fails, at which point the pumps' close handling
// takes over.
func (h *Handler) pingLoop(ctx context.Context, connection *Connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			connection.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := connection.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Error("websocket ping failed",
					zap.Error(err),
					zap.String("connection_id", connection.ID))
				return
			}
		}
	}
}
