// Package driver provides the loop-safety helper used by the CLI
// dashboard; the websocket hub's submit-action handling does not use
// it. The engine itself guarantees termination of
// its own fixed point (internal/engine/sba.go's sbaIterationMultiplier
// bound); this package guards the outer loop that feeds it actions,
// where a misbehaving client or a buggy auto-pass reduction could
// otherwise spin forever trading priority back and forth with no
// Apply ever changing turn/phase/step.
package driver

import "sixthed-backend/internal/cardstate"

// LoopGuardThreshold is the number of consecutive PASS_PRIORITY-style
// actions a driver tolerates within the same turn/phase/step/priority-
// player window before declaring the game stuck.
const LoopGuardThreshold = 50

// LoopGuard counts consecutive actions that leave the game in the same
// priority window (same turn, phase, step, and priority player) it
// started in. A driver calls Observe after every applied action and
// checks Stuck before feeding the player another prompt.
type LoopGuard struct {
	turn     int
	phase    cardstate.Phase
	step     cardstate.Step
	priority cardstate.Role
	primed   bool
	count    int
}

// Observe records one applied action's resulting state. count restarts
// at one whenever the priority window changes, and increments otherwise.
func (g *LoopGuard) Observe(state *cardstate.GameState) {
	window := g.turn == state.TurnCount && g.phase == state.Phase && g.step == state.Step && g.priority == state.PriorityPlayer
	if g.primed && window {
		g.count++
		return
	}
	g.turn, g.phase, g.step, g.priority = state.TurnCount, state.Phase, state.Step, state.PriorityPlayer
	g.primed = true
	g.count = 1
}

// Stuck reports whether the same priority window has persisted for
// LoopGuardThreshold consecutive observations.
func (g *LoopGuard) Stuck() bool {
	return g.count >= LoopGuardThreshold
}

// Reset clears the guard, used whenever the driver itself breaks the
// loop (e.g. after forcing an END_TURN).
func (g *LoopGuard) Reset() {
	*g = LoopGuard{}
}
