// Package engine wires the catalog, mana, targeting, ability, and
// combat packages into the reducer and priority/stack protocol (§4.6).
// apply is the engine's single mutating entry point; every other
// function in this package is a pure helper it calls.
package engine

import (
	"math/rand"

	"sixthed-backend/internal/ability"
	actionpkg "sixthed-backend/internal/action"
	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
	"sixthed-backend/internal/combat"
	apperrors "sixthed-backend/internal/errors"
	"sixthed-backend/internal/events"
	"sixthed-backend/internal/logger"
	"sixthed-backend/internal/mana"
	"sixthed-backend/internal/targeting"

	"go.uber.org/zap"
)

// triggerKind names a triggered-ability event the SBA/trigger fixed
// point queues and drains (§4.6 step 3).
type triggerKind string

const (
	triggerEntersBattlefield triggerKind = "ENTERS_BATTLEFIELD"
	triggerDies              triggerKind = "DIES"
	triggerBecomesTapped     triggerKind = "BECOMES_TAPPED"
	triggerDealsDamage       triggerKind = "DEALS_DAMAGE"
	triggerEndOfTurn         triggerKind = "END_OF_TURN"
)

type triggerEvent struct {
	Kind       triggerKind
	SourceID   string
	Controller cardstate.Role
}

// dispatcher carries the single event bus and pending-trigger queue for
// one Apply call. It is threaded through every apply* helper instead of
// being recreated, so triggers raised deep inside combat or stack
// resolution reach the same fixed-point loop as everything else.
type dispatcher struct {
	bus     *events.Bus
	pending []triggerEvent
}

func newDispatcher() *dispatcher {
	d := &dispatcher{bus: events.NewBus()}
	events.Subscribe(d.bus, func(ev triggerEvent) {
		d.pending = append(d.pending, ev)
	})
	return d
}

func (d *dispatcher) emit(ev triggerEvent) {
	events.Publish(d.bus, ev)
}

// drain returns and clears the queued triggers, for runFixedPoint to
// consume one batch at a time.
func (d *dispatcher) drain() []triggerEvent {
	batch := d.pending
	d.pending = nil
	return batch
}

// Engine bundles the catalog and ability registries the reducer
// consults; it holds no game state of its own.
type Engine struct {
	Catalog   catalog.Adapter
	Activated *ability.ActivatedRegistry
	Spells    *ability.SpellRegistry
	Actions   *actionpkg.Generator
	log       *zap.Logger
}

// New builds an Engine over the given catalog and registries.
func New(cat catalog.Adapter, activated *ability.ActivatedRegistry, spells *ability.SpellRegistry) *Engine {
	return &Engine{
		Catalog:   cat,
		Activated: activated,
		Spells:    spells,
		Actions:   actionpkg.NewGenerator(cat, activated),
		log:       logger.Get(),
	}
}

// CreateGameState builds a fresh GameState from two already-ordered
// libraries (no shuffling, no hand dealt) with the given RNG seed. This
// is the engine's public createGameState (§6).
func (e *Engine) CreateGameState(playerLibrary, opponentLibrary []*cardstate.CardInstance, seed int64) *cardstate.GameState {
	return &cardstate.GameState{
		ID: "",
		Players: map[cardstate.Role]*cardstate.PlayerState{
			cardstate.RoleP1: {Life: 20, Library: playerLibrary},
			cardstate.RoleP2: {Life: 20, Library: opponentLibrary},
		},
		ActivePlayer:   cardstate.RoleP1,
		PriorityPlayer: cardstate.RoleP1,
		TurnCount:      1,
		Phase:          cardstate.PhaseBeginning,
		Step:           cardstate.StepUntap,
		RNGSeed:        seed,
	}
}

// InitializeGame shuffles both decks with a PRNG keyed by seed, deals
// seven cards to each player, and returns turn-1 beginning-phase state
// (§6).
func (e *Engine) InitializeGame(playerDeck, opponentDeck []*cardstate.CardInstance, seed int64) *cardstate.GameState {
	rng := rand.New(rand.NewSource(seed))
	p1lib := shuffled(rng, playerDeck)
	p2lib := shuffled(rng, opponentDeck)

	state := e.CreateGameState(p1lib, p2lib, seed)
	for _, role := range []cardstate.Role{cardstate.RoleP1, cardstate.RoleP2} {
		ps := state.Players[role]
		for i := 0; i < 7; i++ {
			if c := ps.PopLibraryTop(); c != nil {
				ps.AppendToZone(cardstate.ZoneHand, c)
			}
		}
	}
	return state
}

func shuffled(rng *rand.Rand, deck []*cardstate.CardInstance) []*cardstate.CardInstance {
	out := make([]*cardstate.CardInstance, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// LegalActions delegates to the action generator.
func (e *Engine) LegalActions(state *cardstate.GameState, playerID cardstate.Role) []actionpkg.Action {
	return e.Actions.LegalActions(state, playerID)
}

// DescribeAction delegates to the action generator.
func (e *Engine) DescribeAction(a actionpkg.Action, state *cardstate.GameState) string {
	return e.Actions.DescribeAction(a, state)
}

// FindCard delegates to GameState.FindCard (§6's public findCard).
func (e *Engine) FindCard(state *cardstate.GameState, instanceID string) *cardstate.CardInstance {
	return state.FindCard(instanceID)
}

// Apply produces a new GameState by applying action to state. The input
// state is never mutated; on validation failure the original state is
// returned unchanged alongside an *errors.IllegalAction enumerating
// every failing clause (§4.6, §7).
func (e *Engine) Apply(state *cardstate.GameState, a actionpkg.Action) (*cardstate.GameState, error) {
	if clauses := e.validate(state, a); len(clauses) > 0 {
		return state, apperrors.NewIllegalAction(string(a.Kind), clauses...)
	}

	next := state.Clone()
	disp := newDispatcher()

	e.applyAction(next, a, disp)

	if json, err := a.CanonicalJSON(); err == nil {
		next.ActionHistory = append(next.ActionHistory, json)
	}

	e.runFixedPoint(next, disp)

	return next, nil
}

// applyAction dispatches to the per-kind effect implementations of §4.6.
// next is already a clone; handlers mutate it directly.
func (e *Engine) applyAction(next *cardstate.GameState, a actionpkg.Action, disp *dispatcher) {
	switch a.Kind {
	case actionpkg.KindPlayLand:
		e.applyPlayLand(next, a, disp)
	case actionpkg.KindCastSpell:
		e.applyCastSpell(next, a, disp)
	case actionpkg.KindActivateAbility:
		e.applyActivateAbility(next, a, disp)
	case actionpkg.KindDeclareAttackers:
		e.applyDeclareAttackers(next, a)
	case actionpkg.KindDeclareBlockers:
		e.applyDeclareBlockers(next, a, disp)
	case actionpkg.KindPassPriority:
		e.applyPassPriority(next, a, disp)
	case actionpkg.KindEndTurn:
		e.applyEndTurn(next, disp)
	case actionpkg.KindDrawCard:
		e.applyDrawCard(next, a)
	case actionpkg.KindUntap:
		e.applyUntap(next, a)
	case actionpkg.KindSacrificePermanent:
		e.applySacrifice(next, a, disp)
	}
}

func (e *Engine) applyPlayLand(next *cardstate.GameState, a actionpkg.Action, disp *dispatcher) {
	ps := next.Player(a.PlayerID)
	c, zone, idx := ps.FindInstance(a.CardInstanceID)
	if c == nil || zone != cardstate.ZoneHand {
		return
	}
	ps.RemoveFromZone(zone, idx)
	ps.AppendToZone(cardstate.ZoneBattlefield, c)
	c.Controller = a.PlayerID
	c.SummoningSick = false
	ps.LandsPlayedThisTurn++
	disp.emit(triggerEvent{Kind: triggerEntersBattlefield, SourceID: c.InstanceID, Controller: a.PlayerID})
}

func (e *Engine) applyCastSpell(next *cardstate.GameState, a actionpkg.Action, disp *dispatcher) {
	ps := next.Player(a.PlayerID)
	c, zone, idx := ps.FindInstance(a.CardInstanceID)
	if c == nil || zone != cardstate.ZoneHand {
		return
	}
	tmpl, ok := e.Catalog.Lookup(c.TemplateID)
	if !ok {
		return
	}
	cost := mana.ParseManaCost(tmpl.ManaCostText)
	xValue := 0
	if a.XValue != nil {
		xValue = *a.XValue
	}
	e.autoTap(next, ps, cost, xValue, disp)

	ps.RemoveFromZone(zone, idx)
	c.Zone = cardstate.ZoneStack
	so := &cardstate.StackObject{
		ID:         c.InstanceID,
		Controller: a.PlayerID,
		Card:       c,
		Targets:    a.Targets,
	}
	if a.XValue != nil {
		xv := xValue
		so.XValue = &xv
	}
	next.Stack = append(next.Stack, so)

	for _, role := range []cardstate.Role{cardstate.RoleP1, cardstate.RoleP2} {
		p := next.Player(role)
		p.HasPassedPriority = false
		p.ConsecutivePasses = 0
	}
	next.PriorityPlayer = a.PlayerID.Opponent()
}

// autoTap implements the §4.6 auto-tap algorithm: spend from the
// existing pool first, then tap untapped mana sources in affordability
// order until the cost is covered.
func (e *Engine) autoTap(next *cardstate.GameState, ps *cardstate.PlayerState, cost cardstate.ManaCost, xValue int, disp *dispatcher) {
	if mana.CanPay(ps.ManaPool, cost, xValue) {
		ps.ManaPool = mana.Pay(ps.ManaPool, cost, xValue)
		return
	}

	for _, c := range ps.Battlefield {
		if mana.CanPay(ps.ManaPool, cost, xValue) {
			break
		}
		if c.Tapped {
			continue
		}
		for _, ab := range e.Activated.Abilities(c, next, e.Catalog) {
			if !ab.IsManaAbility || !ab.Cost.RequiresTap {
				continue
			}
			c.Tapped = true
			disp.emit(triggerEvent{Kind: triggerBecomesTapped, SourceID: c.InstanceID, Controller: c.Controller})
			for _, color := range ab.Effect.AddManaColors {
				ps.ManaPool = mana.AddMana(ps.ManaPool, color, ab.Effect.Amount)
			}
			break
		}
	}
	if mana.CanPay(ps.ManaPool, cost, xValue) {
		ps.ManaPool = mana.Pay(ps.ManaPool, cost, xValue)
	}
	// if still unaffordable, the validator should have rejected this
	// cast already; this is the belt-and-braces guard of §4.6 step 5.
}

func (e *Engine) applyActivateAbility(next *cardstate.GameState, a actionpkg.Action, disp *dispatcher) {
	source := next.FindCard(a.SourceID)
	if source == nil {
		return
	}
	var chosen *ability.Ability
	for _, ab := range e.Activated.Abilities(source, next, e.Catalog) {
		if ab.ID == a.AbilityID {
			cp := ab
			chosen = &cp
			break
		}
	}
	if chosen == nil {
		return
	}
	ps := next.Player(source.Controller)

	wasTapped := source.Tapped
	if chosen.Cost.RequiresTap {
		source.Tapped = true
	}
	if !wasTapped && source.Tapped {
		disp.emit(triggerEvent{Kind: triggerBecomesTapped, SourceID: source.InstanceID, Controller: source.Controller})
	}
	if chosen.Cost.ManaCost != nil {
		ps.ManaPool = mana.Pay(ps.ManaPool, *chosen.Cost.ManaCost, 0)
	}
	if chosen.Cost.Life > 0 {
		ps.Life -= chosen.Cost.Life
	}
	if chosen.Cost.SacrificeSelf {
		if _, zone, idx := ps.FindInstance(source.InstanceID); zone == cardstate.ZoneBattlefield {
			ps.RemoveFromZone(zone, idx)
			ps.AppendToZone(cardstate.ZoneGraveyard, source)
			disp.emit(triggerEvent{Kind: triggerDies, SourceID: source.InstanceID, Controller: source.Controller})
		}
	}

	if chosen.IsManaAbility {
		for _, color := range chosen.Effect.AddManaColors {
			ps.ManaPool = mana.AddMana(ps.ManaPool, color, chosen.Effect.Amount)
		}
		return
	}

	e.applyEffect(next, chosen.Effect, source.Controller, a.Targets, source, disp)
}

func (e *Engine) applyEffect(next *cardstate.GameState, eff ability.Effect, controller cardstate.Role, targets []string, source *cardstate.CardInstance, disp *dispatcher) {
	switch eff.Kind {
	case ability.EffectDamage:
		for _, id := range targets {
			e.dealDamageTo(next, id, eff.Amount, disp)
		}
	case ability.EffectDestroy:
		for _, id := range targets {
			e.moveToGraveyard(next, id, disp)
		}
	case ability.EffectDrawCard:
		ps := next.Player(controller)
		for i := 0; i < eff.Amount; i++ {
			c := ps.PopLibraryTop()
			if c == nil {
				ps.AttemptedDrawFromEmpty = true
				break
			}
			ps.AppendToZone(cardstate.ZoneHand, c)
		}
	case ability.EffectRegenerate:
		if source != nil {
			source.RegenerationShields++
		}
	}
}

func (e *Engine) dealDamageTo(state *cardstate.GameState, targetID string, amount int, disp *dispatcher) {
	if targetID == string(cardstate.RoleP1) || targetID == string(cardstate.RoleP2) {
		state.Players[cardstate.Role(targetID)].Life -= amount
		return
	}
	if c := state.FindCard(targetID); c != nil {
		c.Damage += amount
		disp.emit(triggerEvent{Kind: triggerDealsDamage, SourceID: targetID, Controller: c.Controller})
	}
}

func (e *Engine) moveToGraveyard(state *cardstate.GameState, instanceID string, disp *dispatcher) {
	for _, role := range []cardstate.Role{cardstate.RoleP1, cardstate.RoleP2} {
		ps := state.Players[role]
		if c, zone, idx := ps.FindInstance(instanceID); c != nil && zone == cardstate.ZoneBattlefield {
			ps.RemoveFromZone(zone, idx)
			ps.AppendToZone(cardstate.ZoneGraveyard, c)
			tmpl, ok := e.Catalog.Lookup(c.TemplateID)
			if ok && tmpl.IsCreature() {
				disp.emit(triggerEvent{Kind: triggerDies, SourceID: c.InstanceID, Controller: role})
			}
			return
		}
	}
}

func (e *Engine) applyDeclareAttackers(next *cardstate.GameState, a actionpkg.Action) {
	ps := next.Player(a.PlayerID)
	for _, id := range a.Attackers {
		c, zone, _ := ps.FindInstance(id)
		if c == nil || zone != cardstate.ZoneBattlefield {
			continue
		}
		c.Attacking = true
		tmpl, _ := e.Catalog.Lookup(c.TemplateID)
		if !tmpl.HasVigilance() {
			c.Tapped = true
		}
	}
	next.Phase = cardstate.PhaseCombat
	next.Step = cardstate.StepDeclareBlockers
	next.PriorityPlayer = a.PlayerID.Opponent()
}

func (e *Engine) applyDeclareBlockers(next *cardstate.GameState, a actionpkg.Action, disp *dispatcher) {
	defender := next.Player(a.PlayerID)
	for _, b := range a.Blocks {
		blocker, zone, _ := defender.FindInstance(b.BlockerID)
		if blocker == nil || zone != cardstate.ZoneBattlefield {
			continue
		}
		blocker.Blocking = b.AttackerID
		if atk := next.FindCard(b.AttackerID); atk != nil {
			atk.BlockedBy = append(atk.BlockedBy, b.BlockerID)
		}
	}

	dmgEvents := combat.ResolveCombatDamage(next, e.Catalog)
	for _, ev := range dmgEvents {
		disp.emit(triggerEvent{Kind: triggerDealsDamage, SourceID: ev.SourceID, Controller: next.ActivePlayer})
	}
	e.runFixedPoint(next, disp)
	combat.CleanupCombat(next)

	next.Phase = cardstate.PhaseMain2
	next.Step = cardstate.StepMain
	next.PriorityPlayer = next.ActivePlayer
}

func (e *Engine) applyPassPriority(next *cardstate.GameState, a actionpkg.Action, disp *dispatcher) {
	ps := next.Player(a.PlayerID)
	ps.HasPassedPriority = true
	ps.ConsecutivePasses++

	if next.Phase == cardstate.PhaseBeginning && a.PlayerID == next.ActivePlayer {
		next.Phase = cardstate.PhaseMain1
		next.Step = cardstate.StepMain
		resetPassFlags(next)
		return
	}

	other := next.Player(a.PlayerID.Opponent())
	if !other.HasPassedPriority {
		next.PriorityPlayer = a.PlayerID.Opponent()
		return
	}

	// both players have passed.
	if len(next.Stack) > 0 {
		e.resolveTopOfStack(next, disp)
		return
	}
	e.advancePhase(next, disp)
	resetPassFlags(next)
}

func resetPassFlags(state *cardstate.GameState) {
	for _, role := range []cardstate.Role{cardstate.RoleP1, cardstate.RoleP2} {
		ps := state.Player(role)
		ps.HasPassedPriority = false
		ps.ConsecutivePasses = 0
	}
}

// advancePhase implements the §4.6 phase/step machinery for a
// both-passed, empty-stack state.
func (e *Engine) advancePhase(state *cardstate.GameState, disp *dispatcher) {
	switch state.Phase {
	case cardstate.PhaseMain1:
		state.Phase = cardstate.PhaseCombat
		state.Step = cardstate.StepDeclareAttackers
		state.PriorityPlayer = state.ActivePlayer
	case cardstate.PhaseCombat:
		switch state.Step {
		case cardstate.StepDeclareAttackers:
			// no attackers were declared; skip straight to main2.
			state.Phase = cardstate.PhaseMain2
			state.Step = cardstate.StepMain
			state.PriorityPlayer = state.ActivePlayer
		default:
			state.Phase = cardstate.PhaseMain2
			state.Step = cardstate.StepMain
			state.PriorityPlayer = state.ActivePlayer
		}
	case cardstate.PhaseMain2:
		e.endTurn(state)
		disp.emit(triggerEvent{Kind: triggerEndOfTurn, Controller: state.ActivePlayer})
	default:
		e.endTurn(state)
		disp.emit(triggerEvent{Kind: triggerEndOfTurn, Controller: state.ActivePlayer})
	}
}

func (e *Engine) resolveTopOfStack(next *cardstate.GameState, disp *dispatcher) {
	n := len(next.Stack)
	so := next.Stack[n-1]
	next.Stack = next.Stack[:n-1]

	if !so.Countered {
		source := so.Card
		reqs := targeting.ParseOracleText(templateOracleText(e.Catalog, source))
		if targeting.StillLegal(next, e.Catalog, reqs, so.Targets, so.Controller, source) {
			e.Spells.Resolve(next, so, e.Catalog)
			// a resolved instant or sorcery ends up in its owner's
			// graveyard; permanents were placed by the resolver and a
			// custom resolver may have moved the card itself (exile,
			// bounce), so only a card still marked as on the stack moves.
			if so.Card != nil && so.Card.Zone == cardstate.ZoneStack {
				putSpellInOwnerGraveyard(next, so)
			}
		} else {
			putSpellInOwnerGraveyard(next, so)
		}
	} else {
		putSpellInOwnerGraveyard(next, so)
	}

	resetPassFlags(next)
	next.PriorityPlayer = next.ActivePlayer
	e.runFixedPoint(next, disp)
}

func templateOracleText(cat catalog.Adapter, card *cardstate.CardInstance) string {
	if card == nil {
		return ""
	}
	tmpl, _ := cat.Lookup(card.TemplateID)
	return tmpl.OracleText
}

func putSpellInOwnerGraveyard(state *cardstate.GameState, so *cardstate.StackObject) {
	if so.Card == nil {
		return
	}
	ps := state.Player(so.Card.Owner)
	so.Card.Zone = cardstate.ZoneGraveyard
	ps.AppendToZone(cardstate.ZoneGraveyard, so.Card)
}

func (e *Engine) applyEndTurn(next *cardstate.GameState, disp *dispatcher) {
	e.endTurn(next)
	disp.emit(triggerEvent{Kind: triggerEndOfTurn, Controller: next.ActivePlayer})
}

func (e *Engine) endTurn(state *cardstate.GameState) {
	for _, role := range []cardstate.Role{cardstate.RoleP1, cardstate.RoleP2} {
		ps := state.Player(role)
		for _, c := range ps.Battlefield {
			c.Damage = 0
			c.DealtDeathtouchDamage = false
			c.RegenerationShields = 0
			if role == state.ActivePlayer {
				c.SummoningSick = false
			}
			kept := c.TemporaryModifications[:0]
			for _, m := range c.TemporaryModifications {
				if m.Expiry != cardstate.ExpiryEndOfTurn {
					kept = append(kept, m)
				}
			}
			c.TemporaryModifications = kept
		}
		ps.ManaPool = cardstate.Empty()
	}
	state.PreventAllCombatDamage = false

	state.ActivePlayer = state.ActivePlayer.Opponent()
	state.PriorityPlayer = state.ActivePlayer
	state.Phase = cardstate.PhaseBeginning
	state.Step = cardstate.StepUntap
	state.TurnCount++

	newActive := state.Player(state.ActivePlayer)
	for _, c := range newActive.Battlefield {
		c.Tapped = false
	}
	newActive.LandsPlayedThisTurn = 0
	resetPassFlags(state)
}

func (e *Engine) applyDrawCard(next *cardstate.GameState, a actionpkg.Action) {
	ps := next.Player(a.PlayerID)
	count := a.Count
	if count == 0 {
		count = 1
	}
	for i := 0; i < count; i++ {
		c := ps.PopLibraryTop()
		if c == nil {
			ps.AttemptedDrawFromEmpty = true
			return
		}
		ps.AppendToZone(cardstate.ZoneHand, c)
	}
}

func (e *Engine) applyUntap(next *cardstate.GameState, a actionpkg.Action) {
	ps := next.Player(a.PlayerID)
	for _, c := range ps.Battlefield {
		c.Tapped = false
	}
}

func (e *Engine) applySacrifice(next *cardstate.GameState, a actionpkg.Action, disp *dispatcher) {
	ps := next.Player(a.PlayerID)
	c, zone, idx := ps.FindInstance(a.PermanentID)
	if c == nil || zone != cardstate.ZoneBattlefield {
		return
	}
	ps.RemoveFromZone(zone, idx)
	ps.AppendToZone(cardstate.ZoneGraveyard, c)
	tmpl, ok := e.Catalog.Lookup(c.TemplateID)
	if ok && tmpl.IsCreature() {
		disp.emit(triggerEvent{Kind: triggerDies, SourceID: c.InstanceID, Controller: a.PlayerID})
	}
}
