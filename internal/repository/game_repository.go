// Package repository is the in-memory snapshot store the delivery shell
// uses to keep a running GameState between HTTP/WS requests. The engine
// itself is stateless (§5); something outside it has to hold the
// current GameState per game id, and this is that something.
//
// Grounded on the teacher's internal/session/game/core storage +
// repository split (GameStorage's sync.RWMutex map, wrapped by a
// repository that adds domain-shaped errors and publishes on change).
package repository

import (
	"context"
	"sync"
	"time"

	"sixthed-backend/internal/cardstate"
	apperrors "sixthed-backend/internal/errors"
	"sixthed-backend/internal/events"
)

// GameUpdatedEvent is published on the repository's bus whenever a stored
// game's state changes. The websocket hub does not subscribe to it; it
// broadcasts the new state itself after each Update.
type GameUpdatedEvent struct {
	GameID    string
	State     *cardstate.GameState
	Timestamp time.Time
}

// GameStorage is the shared, lock-protected map every GameRepository
// method reads and writes. Kept separate from GameRepository so a
// future second repository (e.g. one scoped to replay-only reads) could
// share the same backing map, mirroring the teacher's
// GameStorage/GameCoreRepository split.
type GameStorage struct {
	mu      sync.RWMutex
	games   map[string]*cardstate.GameState
	initial map[string]*cardstate.GameState
}

// NewGameStorage returns an empty GameStorage.
func NewGameStorage() *GameStorage {
	return &GameStorage{
		games:   make(map[string]*cardstate.GameState),
		initial: make(map[string]*cardstate.GameState),
	}
}

func (s *GameStorage) get(gameID string) (*cardstate.GameState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[gameID]
	return g, ok
}

// getInitial returns the turn-1 state captured the moment gameID was
// created, before any action was ever applied to it.
func (s *GameStorage) getInitial(gameID string) (*cardstate.GameState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.initial[gameID]
	return g, ok
}

func (s *GameStorage) set(gameID string, state *cardstate.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[gameID] = state
}

func (s *GameStorage) setInitial(gameID string, state *cardstate.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initial[gameID] = state
}

func (s *GameStorage) delete(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	delete(s.initial, gameID)
}

func (s *GameStorage) list() []*cardstate.GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*cardstate.GameState, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	return out
}

// GameRepository is the delivery layer's handle onto the storage: CRUD
// plus a publish-on-update hook on its event bus.
type GameRepository struct {
	storage *GameStorage
	bus     *events.Bus
}

// NewGameRepository builds a GameRepository over storage, publishing
// updates on bus.
func NewGameRepository(storage *GameStorage, bus *events.Bus) *GameRepository {
	return &GameRepository{storage: storage, bus: bus}
}

// Create stores state under gameID, failing if one already exists.
func (r *GameRepository) Create(ctx context.Context, gameID string, state *cardstate.GameState) error {
	if _, exists := r.storage.get(gameID); exists {
		return &apperrors.NotFoundError{Resource: "game (already exists)", ID: gameID}
	}
	state.ID = gameID
	r.storage.set(gameID, state)
	r.storage.setInitial(gameID, state.Clone())
	return nil
}

// GetByID retrieves the stored state for gameID.
func (r *GameRepository) GetByID(ctx context.Context, gameID string) (*cardstate.GameState, error) {
	g, ok := r.storage.get(gameID)
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "game", ID: gameID}
	}
	return g, nil
}

// GetInitialByID retrieves the turn-1 state gameID was created with,
// before any ActionHistory entries were applied — the starting point
// Replay re-derives every intermediate state from (§C).
func (r *GameRepository) GetInitialByID(ctx context.Context, gameID string) (*cardstate.GameState, error) {
	g, ok := r.storage.getInitial(gameID)
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "game", ID: gameID}
	}
	return g, nil
}

// Update overwrites gameID's stored state and publishes a
// GameUpdatedEvent on the repository's bus when one is set.
func (r *GameRepository) Update(ctx context.Context, gameID string, state *cardstate.GameState) error {
	if _, ok := r.storage.get(gameID); !ok {
		return &apperrors.NotFoundError{Resource: "game", ID: gameID}
	}
	state.ID = gameID
	r.storage.set(gameID, state)
	if r.bus != nil {
		events.Publish(r.bus, GameUpdatedEvent{GameID: gameID, State: state, Timestamp: time.Now()})
	}
	return nil
}

// Delete removes gameID from storage.
func (r *GameRepository) Delete(ctx context.Context, gameID string) error {
	if _, ok := r.storage.get(gameID); !ok {
		return &apperrors.NotFoundError{Resource: "game", ID: gameID}
	}
	r.storage.delete(gameID)
	return nil
}

// List returns every stored game, unordered.
func (r *GameRepository) List(ctx context.Context) []*cardstate.GameState {
	return r.storage.list()
}

// Replay reconstructs the sequence of intermediate states a game passed
// through by re-applying initial's ActionHistory starting from initial
// itself, using replayApply as the one-action step function
// (so this package stays independent of the engine package — no import
// cycle). Supplements §6's stored ActionHistory with the actual replay
// the delivery layer's GET .../replay endpoint serves (§C).
func Replay(initial *cardstate.GameState, replayApply func(*cardstate.GameState, string) (*cardstate.GameState, error)) ([]*cardstate.GameState, error) {
	states := make([]*cardstate.GameState, 0, len(initial.ActionHistory)+1)
	states = append(states, initial)
	current := initial
	for _, encoded := range initial.ActionHistory {
		next, err := replayApply(current, encoded)
		if err != nil {
			return states, err
		}
		states = append(states, next)
		current = next
	}
	return states, nil
}
