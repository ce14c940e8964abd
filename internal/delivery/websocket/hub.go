package websocket

import (
	"context"
	"encoding/json"
	"sync"

	apperrors "sixthed-backend/internal/errors"
	"sixthed-backend/internal/engine"
	"sixthed-backend/internal/logger"
	"sixthed-backend/internal/repository"

	"go.uber.org/zap"
)

// HubMessage represents a message received from a connection.
type HubMessage struct {
	Connection *Connection
	Message    WebSocketMessage
}

// Hub maintains active WebSocket connections and routes submitted
// actions through the engine, broadcasting the resulting state to every
// connection seated at the same game. Structurally this is the
// teacher's register/unregister/broadcast channel hub
// (internal/delivery/websocket/hub.go), with the Terraforming Mars
// gameService/playerService/globalParametersService trio replaced by
// this repo's engine.Engine + repository.GameRepository.
type Hub struct {
	connections     map[*Connection]bool
	gameConnections map[string]map[*Connection]bool

	Register   chan *Connection
	Unregister chan *Connection
	Broadcast  chan HubMessage

	engine *engine.Engine
	repo   *repository.GameRepository

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a new WebSocket hub wired to eng and repo.
func NewHub(eng *engine.Engine, repo *repository.GameRepository) *Hub {
	return &Hub{
		connections:     make(map[*Connection]bool),
		gameConnections: make(map[string]map[*Connection]bool),
		Register:        make(chan *Connection),
		Unregister:      make(chan *Connection),
		Broadcast:       make(chan HubMessage),
		engine:          eng,
		repo:            repo,
		logger:          logger.Get(),
	}
}

// Run starts the hub's single-threaded event loop and blocks until ctx
// is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("starting websocket hub")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("websocket hub stopping due to context cancellation")
			h.closeAllConnections()
			return
		case connection := <-h.Register:
			h.registerConnection(connection)
		case connection := <-h.Unregister:
			h.unregisterConnection(connection)
		case hubMessage := <-h.Broadcast:
			h.handleMessage(ctx, hubMessage)
		}
	}
}

func (h *Hub) registerConnection(connection *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[connection] = true
	h.logger.Info("connection registered", zap.String("connection_id", connection.ID))
}

func (h *Hub) unregisterConnection(connection *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[connection]; ok {
		delete(h.connections, connection)
		close(connection.Send)

		playerID, gameID := connection.GetPlayer()
		if gameID != "" {
			if gameConns, exists := h.gameConnections[gameID]; exists {
				delete(gameConns, connection)
				if len(gameConns) == 0 {
					delete(h.gameConnections, gameID)
				}
			}
		}

		h.logger.Info("connection unregistered",
			zap.String("connection_id", connection.ID),
			zap.String("player_id", string(playerID)),
			zap.String("game_id", gameID))
	}
}

func (h *Hub) addToGame(connection *Connection, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.gameConnections[gameID] == nil {
		h.gameConnections[gameID] = make(map[*Connection]bool)
	}
	h.gameConnections[gameID][connection] = true
}

func (h *Hub) broadcastToGame(gameID string, message WebSocketMessage) {
	h.mu.RLock()
	gameConns := h.gameConnections[gameID]
	h.mu.RUnlock()

	if gameConns == nil {
		return
	}
	for connection := range gameConns {
		connection.SendMessage(message)
	}
	h.logger.Debug("message broadcast to game",
		zap.String("game_id", gameID),
		zap.String("message_type", string(message.Type)),
		zap.Int("connection_count", len(gameConns)))
}

// handleMessage dispatches one inbound message to its handler. This
// runs on the hub's single goroutine, so it never races the engine's
// purity requirement (§5) even though many connections feed it.
func (h *Hub) handleMessage(ctx context.Context, hm HubMessage) {
	switch hm.Message.Type {
	case MessageTypePlayerConnect:
		h.handlePlayerConnect(ctx, hm)
	case MessageTypeSubmitAction:
		h.handleSubmitAction(ctx, hm)
	default:
		h.logger.Warn("unrecognized message type", zap.String("type", string(hm.Message.Type)))
	}
}

func (h *Hub) handlePlayerConnect(ctx context.Context, hm HubMessage) {
	var payload PlayerConnectPayload
	if err := json.Unmarshal(hm.Message.Payload, &payload); err != nil {
		h.sendError(hm.Connection, "invalid PLAYER_CONNECT payload")
		return
	}

	gameID := hm.Message.GameID
	state, err := h.repo.GetByID(ctx, gameID)
	if err != nil {
		h.sendError(hm.Connection, "no such game: "+gameID)
		return
	}

	hm.Connection.SetPlayer(payload.PlayerID, gameID)
	h.addToGame(hm.Connection, gameID)

	legal := h.engine.LegalActions(state, payload.PlayerID)
	hm.Connection.SendMessage(WebSocketMessage{
		Type:    MessageTypeFullState,
		GameID:  gameID,
		Payload: encodePayload(FullStatePayload{State: state, LegalActions: legal, PlayerID: payload.PlayerID}),
	})
}

func (h *Hub) handleSubmitAction(ctx context.Context, hm HubMessage) {
	var payload SubmitActionPayload
	if err := json.Unmarshal(hm.Message.Payload, &payload); err != nil {
		h.sendError(hm.Connection, "invalid SUBMIT_ACTION payload")
		return
	}

	_, gameID := hm.Connection.GetPlayer()
	if gameID == "" {
		gameID = hm.Message.GameID
	}

	current, err := h.repo.GetByID(ctx, gameID)
	if err != nil {
		h.sendError(hm.Connection, "no such game: "+gameID)
		return
	}

	next, err := h.engine.Apply(current, payload.Action)
	if err != nil {
		if illegal, ok := err.(*apperrors.IllegalAction); ok {
			hm.Connection.SendMessage(WebSocketMessage{
				Type:    MessageTypeError,
				Payload: encodePayload(ErrorPayload{Message: illegal.Error(), Clauses: illegal.Clauses}),
			})
		} else {
			h.sendError(hm.Connection, err.Error())
		}
		return
	}

	if err := h.repo.Update(ctx, gameID, next); err != nil {
		h.sendError(hm.Connection, err.Error())
		return
	}

	h.broadcastToGame(gameID, WebSocketMessage{
		Type:    MessageTypeStateUpdated,
		GameID:  gameID,
		Payload: encodePayload(StateUpdatedPayload{State: next}),
	})
}

func (h *Hub) sendError(connection *Connection, message string) {
	connection.SendMessage(WebSocketMessage{
		Type:    MessageTypeError,
		Payload: encodePayload(ErrorPayload{Message: message}),
	})
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for connection := range h.connections {
		close(connection.Send)
		connection.Conn.Close()
	}
	h.logger.Info("all connections closed")
}
