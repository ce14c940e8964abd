package cardstate

// GameState is the single root value the engine operates on. Every
// Apply call returns a new GameState; the input is never mutated (§5).
type GameState struct {
	ID string `json:"id"`

	Players map[Role]*PlayerState `json:"players"`

	Stack       []*StackObject  `json:"stack"` // bottom at index 0
	SharedExile []*CardInstance `json:"sharedExile"`

	ActivePlayer    Role `json:"activePlayer"`
	PriorityPlayer  Role `json:"priorityPlayer"`

	TurnCount int   `json:"turnCount"`
	Phase     Phase `json:"phase"`
	Step      Step  `json:"step"`

	GameOver bool  `json:"gameOver"`
	Winner   *Role `json:"winner,omitempty"`

	RNGSeed int64 `json:"rngSeed"`

	ActionHistory []string `json:"actionHistory"` // canonical JSON action forms

	PreventAllCombatDamage bool `json:"preventAllCombatDamage"`
	EnableAutoResolve      bool `json:"enableAutoResolve"`
}

// Clone deep-copies the entire GameState. The reducer may optimize to
// clone only the zones an action touches; this full clone is the
// straightforward, always-correct baseline the Design Notes (§9) call out.
func (g *GameState) Clone() *GameState {
	if g == nil {
		return nil
	}
	clone := &GameState{
		ID:                     g.ID,
		ActivePlayer:           g.ActivePlayer,
		PriorityPlayer:         g.PriorityPlayer,
		TurnCount:              g.TurnCount,
		Phase:                  g.Phase,
		Step:                   g.Step,
		GameOver:               g.GameOver,
		RNGSeed:                g.RNGSeed,
		PreventAllCombatDamage: g.PreventAllCombatDamage,
		EnableAutoResolve:      g.EnableAutoResolve,
	}
	if g.Winner != nil {
		w := *g.Winner
		clone.Winner = &w
	}
	clone.Players = make(map[Role]*PlayerState, len(g.Players))
	for role, ps := range g.Players {
		clone.Players[role] = ps.Clone()
	}
	if g.Stack != nil {
		clone.Stack = make([]*StackObject, len(g.Stack))
		for i, s := range g.Stack {
			clone.Stack[i] = s.Clone()
		}
	}
	clone.SharedExile = cloneZone(g.SharedExile)
	if g.ActionHistory != nil {
		clone.ActionHistory = append([]string(nil), g.ActionHistory...)
	}
	return clone
}

// Player returns the PlayerState for role, or nil if unknown.
func (g *GameState) Player(role Role) *PlayerState {
	return g.Players[role]
}

// Opponent returns the PlayerState of the role opposite to role.
func (g *GameState) Opponent(role Role) *PlayerState {
	return g.Players[role.Opponent()]
}

// FindCard searches both players' zones, the stack, and shared exile for
// instanceID. It is the engine's public findCard(state, instanceId).
func (g *GameState) FindCard(instanceID string) *CardInstance {
	for _, role := range []Role{RoleP1, RoleP2} {
		ps := g.Players[role]
		if ps == nil {
			continue
		}
		if c, _, _ := ps.FindInstance(instanceID); c != nil {
			return c
		}
	}
	for _, so := range g.Stack {
		if so.Card != nil && so.Card.InstanceID == instanceID {
			return so.Card
		}
	}
	for _, c := range g.SharedExile {
		if c.InstanceID == instanceID {
			return c
		}
	}
	return nil
}

// StackTop returns the top StackObject, or nil if the stack is empty.
func (g *GameState) StackTop() *StackObject {
	if len(g.Stack) == 0 {
		return nil
	}
	return g.Stack[len(g.Stack)-1]
}
