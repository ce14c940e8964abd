// Package combat resolves attacker/blocker damage assignment in two
// ordered steps (first strike, then regular), honoring trample,
// deathtouch, lifelink, and protection (§4.7).
package combat

import (
	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
	"sixthed-backend/internal/targeting"
)

// DamageEvent records one instance of combat damage dealt, used by the
// engine to drive DEALS_DAMAGE triggers and lifelink.
type DamageEvent struct {
	SourceID     string
	TargetID     string // empty means the defending player
	TargetPlayer cardstate.Role
	ToPlayer     bool
	Amount       int
	Lifelink     bool
	LifelinkTo   cardstate.Role
}

// ResolveCombatDamage runs both ordered damage steps against state,
// mutating the attacking/blocking creatures' Damage fields and player
// life totals in place (the caller is expected to be operating on an
// already-cloned state per the reducer's value semantics).
//
// If state.PreventAllCombatDamage is set the whole calculation is
// short-circuited and no events are produced.
func ResolveCombatDamage(state *cardstate.GameState, cat catalog.Adapter) []DamageEvent {
	if state.PreventAllCombatDamage {
		return nil
	}

	var events []DamageEvent
	events = append(events, resolveStep(state, cat, true, nil)...)
	dead := lethallyDamaged(state, cat)
	events = append(events, resolveStep(state, cat, false, dead)...)
	return events
}

// lethallyDamaged returns the set of battlefield creature instance ids
// that carry lethal marked damage right now — the SBA check §4.7 step 2
// runs between the first-strike and regular damage steps so creatures
// killed by first strike never deal their own regular-step damage.
func lethallyDamaged(state *cardstate.GameState, cat catalog.Adapter) map[string]bool {
	dead := map[string]bool{}
	for _, ps := range state.Players {
		for _, c := range ps.Battlefield {
			tmpl, ok := cat.Lookup(c.TemplateID)
			if !ok {
				continue
			}
			toughness := c.EffectiveToughness(ptrOr(tmpl.Toughness, 0))
			if toughness <= 0 {
				dead[c.InstanceID] = true
				continue
			}
			if c.Damage >= toughness {
				dead[c.InstanceID] = true
				continue
			}
			if c.DealtDeathtouchDamage && c.Damage > 0 {
				dead[c.InstanceID] = true
			}
		}
	}
	return dead
}

// strikesIn reports whether a creature with the given keywords deals
// damage during the named step: first-strikers and double-strikers
// strike in the first-strike step; everyone except pure first-strikers
// strikes in the regular step (double strike hits both).
func strikesIn(firstStrikeStep bool, hasFirstStrike, hasDoubleStrike bool) bool {
	if firstStrikeStep {
		return hasFirstStrike || hasDoubleStrike
	}
	return !hasFirstStrike || hasDoubleStrike
}

// resolveStep resolves one ordered damage step. Each attacker deals
// damage to its blockers/defending player if the attacker strikes this
// step; independently, each blocker deals damage back to its attacker if
// the BLOCKER strikes this step — first strike is a property of the
// creature dealing the damage, not of its opponent.
func resolveStep(state *cardstate.GameState, cat catalog.Adapter, firstStrikeStep bool, dead map[string]bool) []DamageEvent {
	var events []DamageEvent
	for _, ps := range state.Players {
		for _, atk := range ps.Battlefield {
			if !atk.Attacking || dead[atk.InstanceID] {
				continue
			}
			atkTmpl, ok := cat.Lookup(atk.TemplateID)
			if !ok {
				continue
			}
			if strikesIn(firstStrikeStep, atkTmpl.HasFirstStrike(), atkTmpl.HasDoubleStrike()) {
				events = append(events, dealAttackerDamage(state, cat, atk, atkTmpl)...)
			}
			for _, blockerID := range atk.BlockedBy {
				if dead[blockerID] {
					continue
				}
				blocker := state.FindCard(blockerID)
				if blocker == nil {
					continue
				}
				blkTmpl, ok := cat.Lookup(blocker.TemplateID)
				if !ok || !strikesIn(firstStrikeStep, blkTmpl.HasFirstStrike(), blkTmpl.HasDoubleStrike()) {
					continue
				}
				events = append(events, dealBlockerDamage(state, blocker, blkTmpl, atk, atkTmpl)...)
			}
		}
	}
	return events
}

func dealAttackerDamage(state *cardstate.GameState, cat catalog.Adapter, atk *cardstate.CardInstance, atkTmpl catalog.Template) []DamageEvent {
	var events []DamageEvent
	power := atk.EffectivePower(ptrOr(atkTmpl.Power, 0))
	if power <= 0 {
		return nil
	}

	if len(atk.BlockedBy) == 0 {
		defender := atk.Controller.Opponent()
		state.Players[defender].Life -= power
		events = append(events, DamageEvent{SourceID: atk.InstanceID, ToPlayer: true, TargetPlayer: defender, Amount: power})
		if atkTmpl.HasLifelink() {
			state.Players[atk.Controller].Life += power
			events = append(events, DamageEvent{SourceID: atk.InstanceID, Lifelink: true, LifelinkTo: atk.Controller, Amount: power})
		}
		return events
	}

	remaining := power
	for i, blockerID := range atk.BlockedBy {
		blocker := state.FindCard(blockerID)
		if blocker == nil || remaining <= 0 {
			continue
		}
		blkTmpl, _ := cat.Lookup(blocker.TemplateID)
		toughness := blocker.EffectiveToughness(ptrOr(blkTmpl.Toughness, 0))
		lethalNeeded := toughness - blocker.Damage
		if atkTmpl.HasDeathtouch() && lethalNeeded > 1 {
			lethalNeeded = 1
		}
		if targeting.ProtectedFrom(blkTmpl, atkTmpl) {
			// protection from the attacker prevents all of its combat
			// damage to this blocker. A trampler still has to assign
			// lethal here before anything spills over; the assigned
			// portion is simply prevented.
			if atkTmpl.HasTrample() && lethalNeeded > 0 {
				held := lethalNeeded
				if held > remaining {
					held = remaining
				}
				remaining -= held
			}
			continue
		}
		if lethalNeeded < 0 {
			lethalNeeded = 0
		}
		assign := remaining
		if assign > lethalNeeded {
			if atkTmpl.HasTrample() {
				// trample holds back everything past lethal for the
				// defending player.
				assign = lethalNeeded
			} else if i < len(atk.BlockedBy)-1 {
				// without trample the excess is lost, so it all lands on
				// the last blocker in the announced order.
				assign = lethalNeeded
			}
		}
		if assign <= 0 {
			continue
		}
		blocker.Damage += assign
		if atkTmpl.HasDeathtouch() {
			blocker.DealtDeathtouchDamage = true
		}
		remaining -= assign
		events = append(events, DamageEvent{SourceID: atk.InstanceID, TargetID: blockerID, Amount: assign})
		if atkTmpl.HasLifelink() {
			state.Players[atk.Controller].Life += assign
			events = append(events, DamageEvent{SourceID: atk.InstanceID, Lifelink: true, LifelinkTo: atk.Controller, Amount: assign})
		}
	}
	if remaining > 0 && atkTmpl.HasTrample() {
		defender := atk.Controller.Opponent()
		state.Players[defender].Life -= remaining
		events = append(events, DamageEvent{SourceID: atk.InstanceID, ToPlayer: true, TargetPlayer: defender, Amount: remaining})
		if atkTmpl.HasLifelink() {
			state.Players[atk.Controller].Life += remaining
			events = append(events, DamageEvent{SourceID: atk.InstanceID, Lifelink: true, LifelinkTo: atk.Controller, Amount: remaining})
		}
	}
	return events
}

// dealBlockerDamage assigns blocker's damage to the single attacker it
// blocks (a blocker never splits damage across multiple attackers). An
// attacker with protection from the blocker takes nothing.
func dealBlockerDamage(state *cardstate.GameState, blocker *cardstate.CardInstance, blkTmpl catalog.Template, atk *cardstate.CardInstance, atkTmpl catalog.Template) []DamageEvent {
	power := blocker.EffectivePower(ptrOr(blkTmpl.Power, 0))
	if power <= 0 {
		return nil
	}
	if targeting.ProtectedFrom(atkTmpl, blkTmpl) {
		return nil
	}
	atk.Damage += power
	if blkTmpl.HasDeathtouch() {
		atk.DealtDeathtouchDamage = true
	}
	events := []DamageEvent{{SourceID: blocker.InstanceID, TargetID: atk.InstanceID, Amount: power}}
	if blkTmpl.HasLifelink() {
		state.Players[blocker.Controller].Life += power
		events = append(events, DamageEvent{SourceID: blocker.InstanceID, Lifelink: true, LifelinkTo: blocker.Controller, Amount: power})
	}
	return events
}

func ptrOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

// CleanupCombat clears attacking/blocking/blockedBy on every creature and
// drops end_of_combat temporary modifications, as the reducer does after
// DECLARE_BLOCKERS resolves damage (§4.6, §4.7).
func CleanupCombat(state *cardstate.GameState) {
	for _, ps := range state.Players {
		for _, c := range ps.Battlefield {
			c.Attacking = false
			c.Blocking = ""
			c.BlockedBy = nil
			kept := c.TemporaryModifications[:0]
			for _, m := range c.TemporaryModifications {
				if m.Expiry != cardstate.ExpiryEndOfCombat {
					kept = append(kept, m)
				}
			}
			c.TemporaryModifications = kept
		}
	}
}
