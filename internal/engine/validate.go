package engine

import (
	"fmt"
	"strings"

	actionpkg "sixthed-backend/internal/action"
	"sixthed-backend/internal/ability"
	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/mana"
	"sixthed-backend/internal/targeting"
)

// validate returns every failing clause for a against state, following
// the teacher's accumulate-don't-short-circuit validator style
// (internal/usecase/common/action_validator.go). An empty result means
// a is legal. §7 requires apply to enumerate every failing clause, not
// just the first.
func (e *Engine) validate(state *cardstate.GameState, a actionpkg.Action) []string {
	if state.GameOver {
		return []string{"game is already over"}
	}

	var clauses []string

	switch a.Kind {
	case actionpkg.KindDeclareBlockers:
		// declaring blockers is the one player-facing action exempt from the
		// priority gate (§4.4): the defending player may act during
		// declare_blockers regardless of who holds priority.
		clauses = append(clauses, e.validateDeclareBlockers(state, a)...)
	case actionpkg.KindDrawCard, actionpkg.KindUntap:
		// engine-internal actions carry no player-facing legality
		// gate; the driver is trusted to sequence them correctly.
	default:
		if state.PriorityPlayer != a.PlayerID {
			clauses = append(clauses, fmt.Sprintf("player %s does not have priority (priority is with %s)", a.PlayerID, state.PriorityPlayer))
		}
		if state.Phase == cardstate.PhaseBeginning && a.Kind != actionpkg.KindPassPriority {
			clauses = append(clauses, "only PASS_PRIORITY is legal during the beginning phase")
		}
		clauses = append(clauses, e.validateByKind(state, a)...)
	}

	return clauses
}

func (e *Engine) validateByKind(state *cardstate.GameState, a actionpkg.Action) []string {
	switch a.Kind {
	case actionpkg.KindPlayLand:
		return e.validatePlayLand(state, a)
	case actionpkg.KindCastSpell:
		return e.validateCastSpell(state, a)
	case actionpkg.KindActivateAbility:
		return e.validateActivateAbility(state, a)
	case actionpkg.KindDeclareAttackers:
		return e.validateDeclareAttackers(state, a)
	case actionpkg.KindSacrificePermanent:
		return e.validateSacrifice(state, a)
	case actionpkg.KindEndTurn:
		return e.validateEndTurn(state, a)
	case actionpkg.KindPassPriority:
		return nil
	default:
		return nil
	}
}

// requireSorcerySpeed checks the §4.4 "own turn, main phase, empty
// stack" window shared by PLAY_LAND and non-flash sorcery-speed casts.
func requireSorcerySpeed(state *cardstate.GameState, playerID cardstate.Role) []string {
	var clauses []string
	if playerID != state.ActivePlayer {
		clauses = append(clauses, "sorcery-speed actions require the active player's turn")
	}
	if state.Phase != cardstate.PhaseMain1 && state.Phase != cardstate.PhaseMain2 {
		clauses = append(clauses, "sorcery-speed actions require a main phase")
	}
	if len(state.Stack) != 0 {
		clauses = append(clauses, "sorcery-speed actions require an empty stack")
	}
	return clauses
}

func (e *Engine) validatePlayLand(state *cardstate.GameState, a actionpkg.Action) []string {
	clauses := requireSorcerySpeed(state, a.PlayerID)

	ps := state.Player(a.PlayerID)
	c, zone, _ := ps.FindInstance(a.CardInstanceID)
	if c == nil || zone != cardstate.ZoneHand {
		clauses = append(clauses, fmt.Sprintf("card %s is not in %s's hand", a.CardInstanceID, a.PlayerID))
		return clauses
	}
	tmpl, ok := e.Catalog.Lookup(c.TemplateID)
	if !ok || !tmpl.IsLand() {
		clauses = append(clauses, fmt.Sprintf("card %s is not a land", a.CardInstanceID))
	}
	if ps.LandsPlayedThisTurn >= 1 {
		clauses = append(clauses, "only one land may be played per turn")
	}
	return clauses
}

func (e *Engine) validateCastSpell(state *cardstate.GameState, a actionpkg.Action) []string {
	var clauses []string

	ps := state.Player(a.PlayerID)
	c, zone, _ := ps.FindInstance(a.CardInstanceID)
	if c == nil || zone != cardstate.ZoneHand {
		return append(clauses, fmt.Sprintf("card %s is not in %s's hand", a.CardInstanceID, a.PlayerID))
	}
	tmpl, ok := e.Catalog.Lookup(c.TemplateID)
	if !ok {
		return append(clauses, fmt.Sprintf("card %s has no catalog template", a.CardInstanceID))
	}
	if tmpl.IsLand() {
		clauses = append(clauses, fmt.Sprintf("%s is a land and cannot be cast", tmpl.Name))
	}

	sorcerySpeed := tmpl.IsSorcery() || tmpl.IsCreature() || tmpl.IsArtifact() || tmpl.IsEnchantment() || tmpl.IsPlaneswalker()
	if sorcerySpeed && !tmpl.HasFlash() {
		clauses = append(clauses, requireSorcerySpeed(state, a.PlayerID)...)
	}

	cost := mana.ParseManaCost(tmpl.ManaCostText)
	xValue := 0
	if a.XValue != nil {
		xValue = *a.XValue
	}
	if !cost.IsXSpell() && a.XValue != nil {
		clauses = append(clauses, fmt.Sprintf("%s has no X in its cost but an xValue was supplied", tmpl.Name))
	}
	if xValue < 0 {
		clauses = append(clauses, "xValue must be non-negative")
	}
	if xValue > mana.XMaxCap {
		clauses = append(clauses, fmt.Sprintf("xValue exceeds the %d cap", mana.XMaxCap))
	}
	if !mana.CanPay(ps.ManaPool, cost, xValue) && !affordableWithUntappedSources(state, ps, e, cost, xValue) {
		clauses = append(clauses, fmt.Sprintf("%s cannot be paid for with available mana and sources", tmpl.Name))
	}

	reqs := targeting.ParseOracleText(tmpl.OracleText)
	clauses = append(clauses, validateTargets(state, e, reqs, a.Targets, a.PlayerID, c)...)

	return clauses
}

// affordableWithUntappedSources reports whether ps could cover cost at
// xValue once its untapped mana-producing permanents are accounted for,
// mirroring what autoTap will actually do (§4.6's auto-tap algorithm).
func affordableWithUntappedSources(state *cardstate.GameState, ps *cardstate.PlayerState, e *Engine, cost cardstate.ManaCost, xValue int) bool {
	pool := ps.ManaPool
	for _, c := range ps.Battlefield {
		if c.Tapped {
			continue
		}
		for _, ab := range e.Activated.Abilities(c, state, e.Catalog) {
			if !ab.IsManaAbility || !ab.Cost.RequiresTap {
				continue
			}
			for _, color := range ab.Effect.AddManaColors {
				pool = mana.AddMana(pool, color, ab.Effect.Amount)
			}
			break
		}
	}
	return mana.CanPay(pool, cost, xValue)
}

func validateTargets(state *cardstate.GameState, e *Engine, reqs []targeting.TargetRequirement, targets []string, caster cardstate.Role, source *cardstate.CardInstance) []string {
	var clauses []string
	if len(reqs) != len(targets) {
		return append(clauses, fmt.Sprintf("expected %d target(s), got %d", len(reqs), len(targets)))
	}
	for i, req := range reqs {
		cand := targetCandidateFromID(targets[i])
		if !targeting.Legal(state, e.Catalog, req, cand, caster, source) {
			clauses = append(clauses, fmt.Sprintf("target %q is not legal for slot %d", targets[i], i))
		}
	}
	return clauses
}

func targetCandidateFromID(id string) targeting.Candidate {
	if id == string(cardstate.RoleP1) || id == string(cardstate.RoleP2) {
		return targeting.Candidate{IsPlayer: true, PlayerID: cardstate.Role(id)}
	}
	return targeting.Candidate{CardID: id}
}

func (e *Engine) validateActivateAbility(state *cardstate.GameState, a actionpkg.Action) []string {
	var clauses []string
	source := state.FindCard(a.SourceID)
	if source == nil {
		return append(clauses, fmt.Sprintf("no card with instance id %s", a.SourceID))
	}
	if source.Controller != a.PlayerID {
		clauses = append(clauses, fmt.Sprintf("%s does not control %s", a.PlayerID, a.SourceID))
	}

	var chosen *ability.Ability
	for _, ab := range e.Activated.Abilities(source, state, e.Catalog) {
		if ab.ID == a.AbilityID {
			cp := ab
			chosen = &cp
			break
		}
	}
	if chosen == nil {
		return append(clauses, fmt.Sprintf("%s has no ability %q", a.SourceID, a.AbilityID))
	}
	ab := *chosen
	if !ab.CanActivate(state, e.Catalog, source, a.PlayerID) {
		clauses = append(clauses, fmt.Sprintf("ability %q cannot be activated right now", a.AbilityID))
	}
	if ab.Cost.ManaCost != nil {
		ps := state.Player(a.PlayerID)
		if !mana.CanPay(ps.ManaPool, *ab.Cost.ManaCost, 0) {
			clauses = append(clauses, "insufficient mana to activate this ability")
		}
	}
	if !ab.IsManaAbility {
		clauses = append(clauses, validateTargets(state, e, ab.TargetRequirements, a.Targets, a.PlayerID, source)...)
	}
	return clauses
}

func (e *Engine) validateDeclareAttackers(state *cardstate.GameState, a actionpkg.Action) []string {
	var clauses []string
	if a.PlayerID != state.ActivePlayer {
		clauses = append(clauses, "only the active player may declare attackers")
	}
	if state.Step != cardstate.StepDeclareAttackers {
		clauses = append(clauses, fmt.Sprintf("attackers may only be declared during declare_attackers, not %s", state.Step))
	}
	ps := state.Player(a.PlayerID)
	for _, id := range a.Attackers {
		c, zone, _ := ps.FindInstance(id)
		if c == nil || zone != cardstate.ZoneBattlefield {
			clauses = append(clauses, fmt.Sprintf("%s does not control a battlefield permanent %s", a.PlayerID, id))
			continue
		}
		if !e.Actions.IsEligibleAttacker(state, c) {
			clauses = append(clauses, fmt.Sprintf("%s is not eligible to attack", id))
		}
		if len(a.Attackers) == 1 {
			if tmpl, ok := e.Catalog.Lookup(c.TemplateID); ok && strings.Contains(strings.ToLower(tmpl.OracleText), "can't attack alone") {
				clauses = append(clauses, fmt.Sprintf("%s can't attack alone", id))
			}
		}
	}
	return clauses
}

func (e *Engine) validateDeclareBlockers(state *cardstate.GameState, a actionpkg.Action) []string {
	var clauses []string
	defender := state.ActivePlayer.Opponent()
	if a.PlayerID != defender {
		clauses = append(clauses, "only the defending player may declare blockers")
	}
	if state.Step != cardstate.StepDeclareBlockers {
		clauses = append(clauses, fmt.Sprintf("blockers may only be declared during declare_blockers, not %s", state.Step))
	}
	ps := state.Player(defender)
	seen := map[string]bool{}
	blockersPerAttacker := map[string]int{}
	for _, b := range a.Blocks {
		if seen[b.BlockerID] {
			clauses = append(clauses, fmt.Sprintf("blocker %s assigned to more than one attacker", b.BlockerID))
		}
		seen[b.BlockerID] = true
		blockersPerAttacker[b.AttackerID]++

		blocker, zone, _ := ps.FindInstance(b.BlockerID)
		if blocker == nil || zone != cardstate.ZoneBattlefield {
			clauses = append(clauses, fmt.Sprintf("%s does not control a battlefield creature %s", defender, b.BlockerID))
			continue
		}
		if blocker.Tapped {
			clauses = append(clauses, fmt.Sprintf("%s is tapped and cannot block", b.BlockerID))
		}
		atk := state.FindCard(b.AttackerID)
		if atk == nil || !atk.Attacking {
			clauses = append(clauses, fmt.Sprintf("%s is not an attacking creature", b.AttackerID))
			continue
		}
		if !e.Actions.CanBlock(state, blocker, atk) {
			clauses = append(clauses, fmt.Sprintf("%s cannot legally block %s", b.BlockerID, b.AttackerID))
		}
	}
	for attackerID, n := range blockersPerAttacker {
		atk := state.FindCard(attackerID)
		if atk == nil {
			continue
		}
		if tmpl, ok := e.Catalog.Lookup(atk.TemplateID); ok && tmpl.HasMenace() && n < 2 {
			clauses = append(clauses, fmt.Sprintf("%s has menace and must be blocked by two or more creatures", attackerID))
		}
	}
	return clauses
}

func (e *Engine) validateSacrifice(state *cardstate.GameState, a actionpkg.Action) []string {
	var clauses []string
	ps := state.Player(a.PlayerID)
	c, zone, _ := ps.FindInstance(a.PermanentID)
	if c == nil || zone != cardstate.ZoneBattlefield {
		clauses = append(clauses, fmt.Sprintf("%s does not control a battlefield permanent %s", a.PlayerID, a.PermanentID))
	}
	return clauses
}

func (e *Engine) validateEndTurn(state *cardstate.GameState, a actionpkg.Action) []string {
	var clauses []string
	if a.PlayerID != state.ActivePlayer {
		clauses = append(clauses, "only the active player may end the turn")
	}
	if state.Phase != cardstate.PhaseMain1 && state.Phase != cardstate.PhaseMain2 {
		clauses = append(clauses, "the turn may only be ended during a main phase")
	}
	if len(state.Stack) != 0 {
		clauses = append(clauses, "the turn may only be ended with an empty stack")
	}
	return clauses
}
