package http

import (
	"net/http"

	actionpkg "sixthed-backend/internal/action"
	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
	"sixthed-backend/internal/engine"
	apperrors "sixthed-backend/internal/errors"
	"sixthed-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GameHandler serves the REST surface over the engine: create a game,
// read its current state, list legal actions, submit an action, describe
// an action, and replay a game's action history. The websocket hub
// covers the subscribe-and-push half of the same operations (§6, §C).
type GameHandler struct {
	*BaseHandler
	engine  *engine.Engine
	catalog catalog.Adapter
	repo    *repository.GameRepository
}

// NewGameHandler creates a new game handler wired to eng, cat, and repo.
func NewGameHandler(eng *engine.Engine, cat catalog.Adapter, repo *repository.GameRepository) *GameHandler {
	return &GameHandler{
		BaseHandler: NewBaseHandler(),
		engine:      eng,
		catalog:     cat,
		repo:        repo,
	}
}

// createGameRequest names each player's opening deck by catalog template
// ID; the engine shuffles and deals from it (§6's InitializeGame).
type createGameRequest struct {
	PlayerDeck   []string `json:"playerDeck" binding:"required"`
	OpponentDeck []string `json:"opponentDeck" binding:"required"`
	Seed         int64    `json:"seed"`
}

type createGameResponse struct {
	GameID string               `json:"gameId"`
	State  *cardstate.GameState `json:"state"`
}

// CreateGame handles POST /api/v1/games.
func (h *GameHandler) CreateGame(c *gin.Context) {
	h.LogRequest(c, "CreateGame")

	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	playerDeck, err := h.buildDeck(req.PlayerDeck, cardstate.RoleP1)
	if err != nil {
		h.WriteError(c, http.StatusBadRequest, err.Error())
		return
	}
	opponentDeck, err := h.buildDeck(req.OpponentDeck, cardstate.RoleP2)
	if err != nil {
		h.WriteError(c, http.StatusBadRequest, err.Error())
		return
	}

	state := h.engine.InitializeGame(playerDeck, opponentDeck, req.Seed)
	gameID := uuid.New().String()

	if err := h.repo.Create(c.Request.Context(), gameID, state); err != nil {
		h.WriteError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, createGameResponse{GameID: gameID, State: state})
}

// buildDeck turns a list of catalog template IDs into owned CardInstances
// in the library, each with a freshly minted instance ID.
func (h *GameHandler) buildDeck(templateIDs []string, owner cardstate.Role) ([]*cardstate.CardInstance, error) {
	deck := make([]*cardstate.CardInstance, 0, len(templateIDs))
	for _, templateID := range templateIDs {
		if _, ok := h.catalog.Lookup(templateID); !ok {
			return nil, &apperrors.NotFoundError{Resource: "card template", ID: templateID}
		}
		deck = append(deck, &cardstate.CardInstance{
			InstanceID: uuid.New().String(),
			TemplateID: templateID,
			Owner:      owner,
			Controller: owner,
			Zone:       cardstate.ZoneLibrary,
		})
	}
	return deck, nil
}

// GetGame handles GET /api/v1/games/:id.
func (h *GameHandler) GetGame(c *gin.Context) {
	state, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ListGames handles GET /api/v1/games.
func (h *GameHandler) ListGames(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.List(c.Request.Context()))
}

// LegalActions handles GET /api/v1/games/:id/legal-actions?player=P1.
func (h *GameHandler) LegalActions(c *gin.Context) {
	player := cardstate.Role(c.Query("player"))
	if player != cardstate.RoleP1 && player != cardstate.RoleP2 {
		h.WriteError(c, http.StatusBadRequest, "player query parameter must be P1 or P2")
		return
	}

	state, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.engine.LegalActions(state, player))
}

// submitActionRequest carries one action for SubmitAction to apply.
type submitActionRequest struct {
	Action actionpkg.Action `json:"action"`
}

// SubmitAction handles POST /api/v1/games/:id/actions. On success it
// stores and returns the resulting state; on an illegal action it
// responds 422 with every failing clause (§7).
func (h *GameHandler) SubmitAction(c *gin.Context) {
	gameID := c.Param("id")

	var req submitActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	current, err := h.repo.GetByID(c.Request.Context(), gameID)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	next, err := h.engine.Apply(current, req.Action)
	if err != nil {
		if illegal, ok := err.(*apperrors.IllegalAction); ok {
			h.WriteError(c, http.StatusUnprocessableEntity, illegal.Error(), illegal.Clauses...)
			return
		}
		h.WriteError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.repo.Update(c.Request.Context(), gameID, next); err != nil {
		h.WriteError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, next)
}

// describeActionRequest carries one action for DescribeAction to render.
type describeActionRequest struct {
	Action actionpkg.Action `json:"action"`
}

// DescribeAction handles POST /api/v1/games/:id/describe, returning a
// human-readable rendering of an action against the game's current state
// (§6's describeAction).
func (h *GameHandler) DescribeAction(c *gin.Context) {
	gameID := c.Param("id")

	var req describeActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	state, err := h.repo.GetByID(c.Request.Context(), gameID)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"description": h.engine.DescribeAction(req.Action, state)})
}

// Replay handles GET /api/v1/games/:id/replay, reconstructing every
// intermediate state the game passed through by re-applying its stored
// ActionHistory from the turn-1 state it was created with (§C).
func (h *GameHandler) Replay(c *gin.Context) {
	gameID := c.Param("id")

	current, err := h.repo.GetByID(c.Request.Context(), gameID)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	initial, err := h.repo.GetInitialByID(c.Request.Context(), gameID)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	initial = initial.Clone()
	initial.ActionHistory = current.ActionHistory

	states, err := repository.Replay(initial, h.replayApply)
	if err != nil {
		h.WriteError(c, http.StatusInternalServerError, "replay failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, states)
}

func (h *GameHandler) replayApply(state *cardstate.GameState, encoded string) (*cardstate.GameState, error) {
	a, err := actionpkg.DecodeCanonicalJSON(encoded)
	if err != nil {
		return nil, err
	}
	return h.engine.Apply(state, a)
}

// writeLookupError translates a repository lookup failure into its HTTP
// status: 404 for an *apperrors.NotFoundError, 500 otherwise.
func (h *GameHandler) writeLookupError(c *gin.Context, err error) {
	if _, ok := err.(*apperrors.NotFoundError); ok {
		h.WriteError(c, http.StatusNotFound, err.Error())
		return
	}
	h.WriteError(c, http.StatusInternalServerError, err.Error())
}
