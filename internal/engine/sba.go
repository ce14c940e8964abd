package engine

import (
	"strings"

	"sixthed-backend/internal/cardstate"

	"go.uber.org/zap"
)

// sbaIterationMultiplier bounds the §4.6/§8 SBA-trigger fixed point at
// (permanents on the battlefield + 1) * this constant, generous enough
// for any legal chain of triggers this engine can produce while still
// guaranteeing termination on every reachable state.
const sbaIterationMultiplier = 8

// runFixedPoint implements the §4.6 "SBA/trigger fixed point" loop: check
// state-based actions, drain and resolve every trigger the cycle
// queued, and repeat until neither produces anything new.
func (e *Engine) runFixedPoint(state *cardstate.GameState, disp *dispatcher) {
	limit := (countPermanents(state) + 1) * sbaIterationMultiplier
	for i := 0; i < limit; i++ {
		dirty := e.checkStateBasedActions(state, disp)
		triggers := disp.drain()
		if !dirty && len(triggers) == 0 {
			return
		}
		for _, t := range triggers {
			e.resolveTrigger(state, t, disp)
		}
	}
}

func countPermanents(state *cardstate.GameState) int {
	n := 0
	for _, ps := range state.Players {
		n += len(ps.Battlefield)
	}
	return n
}

// checkStateBasedActions runs one sweep of §4.6 step 1's rules-enforced
// consequences and reports whether anything changed. The caller repeats
// the whole fixed point until a sweep changes nothing and no triggers
// remain.
func (e *Engine) checkStateBasedActions(state *cardstate.GameState, disp *dispatcher) bool {
	dirty := false
	dirty = e.sbaLethalDamage(state, disp) || dirty
	dirty = e.sbaOrphanedAuras(state, disp) || dirty
	dirty = e.sbaLegendaryRule(state, disp) || dirty
	dirty = e.sbaPlayerLife(state) || dirty
	dirty = e.sbaEmptyDraw(state) || dirty
	return dirty
}

// sbaEmptyDraw ends the game for a player who tried to draw from an
// empty library, the state-based counterpart to sbaPlayerLife (§4.6
// step 1). Flagged at the draw call site and resolved here rather than
// immediately, so a later effect in the same cycle (e.g. a life-gain
// trigger) cannot race the loss.
func (e *Engine) sbaEmptyDraw(state *cardstate.GameState) bool {
	if state.GameOver {
		return false
	}
	p1 := state.Players[cardstate.RoleP1].AttemptedDrawFromEmpty
	p2 := state.Players[cardstate.RoleP2].AttemptedDrawFromEmpty
	if !p1 && !p2 {
		return false
	}
	state.GameOver = true
	switch {
	case p1 && p2:
		state.Winner = nil
	case p1:
		winner := cardstate.RoleP2
		state.Winner = &winner
	default:
		winner := cardstate.RoleP1
		state.Winner = &winner
	}
	return true
}

// sbaLethalDamage destroys creatures with lethal marked damage or
// non-positive toughness, consuming a regeneration shield instead when
// one is available (§4.6 step 1, §4.7, the regeneration-shield glossary
// entry).
func (e *Engine) sbaLethalDamage(state *cardstate.GameState, disp *dispatcher) bool {
	dirty := false
	for _, role := range []cardstate.Role{cardstate.RoleP1, cardstate.RoleP2} {
		ps := state.Player(role)
		var toKill []string
		for _, c := range ps.Battlefield {
			tmpl, ok := e.Catalog.Lookup(c.TemplateID)
			if !ok || !tmpl.IsCreature() {
				continue
			}
			toughness := c.EffectiveToughness(intOr(tmpl.Toughness, 0))
			lethal := toughness <= 0 || c.Damage >= toughness || (c.DealtDeathtouchDamage && c.Damage > 0)
			if !lethal {
				continue
			}
			if toughness > 0 && c.RegenerationShields > 0 {
				c.RegenerationShields--
				c.Damage = 0
				c.DealtDeathtouchDamage = false
				c.Tapped = true
				c.Attacking = false
				c.Blocking = ""
				c.BlockedBy = nil
				dirty = true
				continue
			}
			toKill = append(toKill, c.InstanceID)
		}
		for _, id := range toKill {
			if c, zone, idx := ps.FindInstance(id); c != nil && zone == cardstate.ZoneBattlefield {
				ps.RemoveFromZone(zone, idx)
				ps.AppendToZone(cardstate.ZoneGraveyard, c)
				disp.emit(triggerEvent{Kind: triggerDies, SourceID: c.InstanceID, Controller: role})
				dirty = true
			}
		}
	}
	return dirty
}

// sbaOrphanedAuras moves an attached aura to its owner's graveyard once
// its host is no longer a legal attachment (§4.6 step 1).
func (e *Engine) sbaOrphanedAuras(state *cardstate.GameState, disp *dispatcher) bool {
	dirty := false
	for _, role := range []cardstate.Role{cardstate.RoleP1, cardstate.RoleP2} {
		ps := state.Player(role)
		var toKill []string
		for _, c := range ps.Battlefield {
			tmpl, ok := e.Catalog.Lookup(c.TemplateID)
			if !ok || !isAura(tmpl.TypeLine) {
				continue
			}
			if c.AttachedTo == "" || state.FindCard(c.AttachedTo) == nil {
				toKill = append(toKill, c.InstanceID)
			}
		}
		for _, id := range toKill {
			if c, zone, idx := ps.FindInstance(id); c != nil && zone == cardstate.ZoneBattlefield {
				ps.RemoveFromZone(zone, idx)
				ps.AppendToZone(cardstate.ZoneGraveyard, c)
				dirty = true
			}
		}
	}
	return dirty
}

func isAura(typeLine string) bool {
	return hasTypeWord(typeLine, "aura")
}

// sbaLegendaryRule keeps at most one instance of each legendary name per
// controller, sending the rest to their owners' graveyards (§4.6 step 1,
// "legendary rule resolves duplicates").
func (e *Engine) sbaLegendaryRule(state *cardstate.GameState, disp *dispatcher) bool {
	dirty := false
	for _, role := range []cardstate.Role{cardstate.RoleP1, cardstate.RoleP2} {
		ps := state.Player(role)
		seen := map[string]bool{}
		var toKill []string
		for _, c := range ps.Battlefield {
			tmpl, ok := e.Catalog.Lookup(c.TemplateID)
			if !ok || !hasTypeWord(tmpl.TypeLine, "legendary") {
				continue
			}
			if seen[tmpl.Name] {
				toKill = append(toKill, c.InstanceID)
				continue
			}
			seen[tmpl.Name] = true
		}
		for _, id := range toKill {
			if c, zone, idx := ps.FindInstance(id); c != nil && zone == cardstate.ZoneBattlefield {
				ps.RemoveFromZone(zone, idx)
				ps.AppendToZone(cardstate.ZoneGraveyard, c)
				if tmpl, ok := e.Catalog.Lookup(c.TemplateID); ok && tmpl.IsCreature() {
					disp.emit(triggerEvent{Kind: triggerDies, SourceID: c.InstanceID, Controller: role})
				}
				dirty = true
			}
		}
	}
	return dirty
}

// sbaPlayerLife ends the game when a player's life total is non-positive.
// Simultaneous non-positive life is a draw: gameOver is set with no
// winner, matching §3's "winner is set iff gameOver" invariant (a draw
// is gameOver with winner left absent).
func (e *Engine) sbaPlayerLife(state *cardstate.GameState) bool {
	if state.GameOver {
		return false
	}
	p1Dead := state.Players[cardstate.RoleP1].Life <= 0
	p2Dead := state.Players[cardstate.RoleP2].Life <= 0
	if !p1Dead && !p2Dead {
		return false
	}
	state.GameOver = true
	switch {
	case p1Dead && p2Dead:
		state.Winner = nil
	case p1Dead:
		winner := cardstate.RoleP2
		state.Winner = &winner
	default:
		winner := cardstate.RoleP1
		state.Winner = &winner
	}
	return true
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

// hasTypeWord reports whether word appears as a whole, case-insensitive
// token of typeLine, mirroring the catalog package's own unexported
// hasWord helper for the type-line checks SBAs need that Template does
// not already expose (aura, legendary).
func hasTypeWord(typeLine, word string) bool {
	for _, part := range strings.Fields(strings.ToLower(typeLine)) {
		if part == word {
			return true
		}
	}
	return false
}

// resolveTrigger resolves one queued triggered-ability event. Per §9's
// Open Question, triggers resolve immediately in the source rather than
// being pushed onto the stack, so by the time the fixed point drains an
// event its game-state consequence (damage applied, zone changed, tap
// state flipped) has already happened at the call site that emitted it;
// this hook is where a card-specific reflex (e.g. "whenever a creature
// dies, ...") would subscribe once the catalog registers one. None does
// yet, so resolution here is limited to structured logging for replay
// observability.
func (e *Engine) resolveTrigger(state *cardstate.GameState, t triggerEvent, disp *dispatcher) {
	e.log.Debug("trigger resolved",
		zap.String("kind", string(t.Kind)),
		zap.String("sourceId", t.SourceID),
		zap.String("controller", string(t.Controller)),
	)
}
