package action

import (
	"fmt"
	"sort"
	"strings"

	"sixthed-backend/internal/ability"
	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
	"sixthed-backend/internal/mana"
	"sixthed-backend/internal/targeting"
)

// Generator exposes legalActions and describeAction against a catalog
// and the activated-ability registry (§4.4).
type Generator struct {
	Catalog    catalog.Adapter
	Activated  *ability.ActivatedRegistry
}

// NewGenerator builds a Generator over the given catalog and activated
// ability registry.
func NewGenerator(cat catalog.Adapter, activated *ability.ActivatedRegistry) *Generator {
	return &Generator{Catalog: cat, Activated: activated}
}

// LegalActions returns every Action playerID may currently submit,
// already collapsed by the R1-R5 auto-pass reductions.
func (g *Generator) LegalActions(state *cardstate.GameState, playerID cardstate.Role) []Action {
	if state.GameOver {
		return nil
	}

	if state.Step == cardstate.StepDeclareBlockers {
		defender := state.ActivePlayer.Opponent()
		if playerID == defender {
			return g.declareBlockerActions(state, defender)
		}
	}

	if state.PriorityPlayer != playerID {
		return nil
	}

	if state.Phase == cardstate.PhaseBeginning {
		return []Action{{Kind: KindPassPriority, PlayerID: playerID}}
	}

	var actions []Action
	actions = append(actions, g.landActions(state, playerID)...)
	actions = append(actions, g.spellActions(state, playerID)...)
	actions = append(actions, g.abilityActions(state, playerID)...)

	if g.canEndTurn(state, playerID) {
		actions = append(actions, Action{Kind: KindEndTurn, PlayerID: playerID})
	}
	if state.Step == cardstate.StepDeclareAttackers && playerID == state.ActivePlayer {
		actions = append(actions, g.declareAttackerActions(state, playerID)...)
	}

	actions = append(actions, Action{Kind: KindPassPriority, PlayerID: playerID})

	return g.applyAutoPassReductions(state, playerID, actions)
}

func (g *Generator) canEndTurn(state *cardstate.GameState, playerID cardstate.Role) bool {
	if playerID != state.ActivePlayer {
		return false
	}
	if state.Phase != cardstate.PhaseMain1 && state.Phase != cardstate.PhaseMain2 {
		return false
	}
	return len(state.Stack) == 0
}

// isSorcerySpeedWindow reports whether playerID may currently play a
// sorcery-speed spell or permanent: their own turn, a main phase, and an
// empty stack.
func (g *Generator) isSorcerySpeedWindow(state *cardstate.GameState, playerID cardstate.Role) bool {
	if playerID != state.ActivePlayer {
		return false
	}
	if state.Phase != cardstate.PhaseMain1 && state.Phase != cardstate.PhaseMain2 {
		return false
	}
	return len(state.Stack) == 0
}

func (g *Generator) landActions(state *cardstate.GameState, playerID cardstate.Role) []Action {
	if !g.isSorcerySpeedWindow(state, playerID) {
		return nil
	}
	ps := state.Player(playerID)
	maxLands := 1
	if ps.LandsPlayedThisTurn >= maxLands {
		return nil
	}
	seen := map[string]bool{}
	var actions []Action
	for _, c := range ps.Hand {
		tmpl, ok := g.Catalog.Lookup(c.TemplateID)
		if !ok || !tmpl.IsLand() {
			continue
		}
		if seen[tmpl.Name] {
			continue
		}
		seen[tmpl.Name] = true
		actions = append(actions, Action{Kind: KindPlayLand, PlayerID: playerID, CardInstanceID: c.InstanceID})
	}
	return actions
}

// potentialPool is the player's floating pool plus the mana their
// untapped tap-for-mana sources could produce. Affordability in the
// generator has to look at this, not the floating pool alone, because
// the reducer auto-taps during CAST_SPELL (§4.6): a player with two
// untapped Forests and an empty pool can cast a {1}{G} creature.
func (g *Generator) potentialPool(state *cardstate.GameState, playerID cardstate.Role) cardstate.ManaPool {
	ps := state.Player(playerID)
	pool := ps.ManaPool
	for _, c := range ps.Battlefield {
		if c.Tapped {
			continue
		}
		for _, ab := range g.Activated.Abilities(c, state, g.Catalog) {
			if !ab.IsManaAbility || !ab.Cost.RequiresTap {
				continue
			}
			for _, color := range ab.Effect.AddManaColors {
				pool = mana.AddMana(pool, color, ab.Effect.Amount)
			}
			break
		}
	}
	return pool
}

func (g *Generator) spellActions(state *cardstate.GameState, playerID cardstate.Role) []Action {
	ps := state.Player(playerID)
	pool := g.potentialPool(state, playerID)
	seen := map[string]bool{}
	var actions []Action
	for _, c := range ps.Hand {
		tmpl, ok := g.Catalog.Lookup(c.TemplateID)
		if !ok || tmpl.IsLand() {
			continue
		}
		if seen[tmpl.Name] {
			continue
		}

		sorcerySpeed := tmpl.IsSorcery() || tmpl.IsCreature() || tmpl.IsArtifact() || tmpl.IsEnchantment() || tmpl.IsPlaneswalker()
		if sorcerySpeed && !tmpl.HasFlash() {
			if !g.isSorcerySpeedWindow(state, playerID) {
				continue
			}
		}

		cost := mana.ParseManaCost(tmpl.ManaCostText)
		reqs := targeting.ParseOracleText(tmpl.OracleText)

		xMax := 0
		if cost.IsXSpell() {
			xMax = mana.MaxAffordableX(pool, cost)
			if xMax > mana.XMaxCap {
				xMax = mana.XMaxCap
			}
		}

		combos := [][]targeting.Candidate{{}}
		if len(reqs) > 0 {
			combos = targeting.EnumerateLegalTargetCombinations(state, g.Catalog, reqs, playerID, c)
			if len(combos) == 0 {
				continue
			}
		}

		affordable := false
		for x := 0; x <= xMax; x++ {
			if !mana.CanPay(pool, cost, x) {
				continue
			}
			affordable = true
			for _, combo := range combos {
				a := Action{Kind: KindCastSpell, PlayerID: playerID, CardInstanceID: c.InstanceID, Targets: candidateIDs(combo)}
				if cost.IsXSpell() {
					xv := x
					a.XValue = &xv
				}
				actions = append(actions, a)
			}
		}
		if affordable {
			seen[tmpl.Name] = true
		}
	}
	return actions
}

func candidateIDs(combo []targeting.Candidate) []string {
	out := make([]string, len(combo))
	for i, c := range combo {
		if c.IsPlayer {
			out[i] = string(c.PlayerID)
		} else {
			out[i] = c.CardID
		}
	}
	return out
}

func (g *Generator) abilityActions(state *cardstate.GameState, playerID cardstate.Role) []Action {
	ps := state.Player(playerID)
	var actions []Action
	for _, c := range ps.Battlefield {
		for _, ab := range g.Activated.Abilities(c, state, g.Catalog) {
			if !ab.CanActivate(state, g.Catalog, c, playerID) {
				continue
			}
			combos := [][]targeting.Candidate{{}}
			if len(ab.TargetRequirements) > 0 {
				combos = targeting.EnumerateLegalTargetCombinations(state, g.Catalog, ab.TargetRequirements, playerID, c)
			}
			for _, combo := range combos {
				actions = append(actions, Action{
					Kind:           KindActivateAbility,
					PlayerID:       playerID,
					SourceID:       c.InstanceID,
					AbilityID:      ab.ID,
					Targets:        candidateIDs(combo),
				})
			}
		}
	}
	return actions
}

// hasInstantSpeedOption implements R1: an instant/flash spell affordable
// with all targets fillable, or an activatable non-mana ability with
// targets satisfied.
func (g *Generator) hasInstantSpeedOption(state *cardstate.GameState, playerID cardstate.Role) bool {
	ps := state.Player(playerID)
	pool := g.potentialPool(state, playerID)
	for _, c := range ps.Hand {
		tmpl, ok := g.Catalog.Lookup(c.TemplateID)
		if !ok || tmpl.IsLand() {
			continue
		}
		if !tmpl.IsInstant() && !tmpl.HasFlash() {
			continue
		}
		cost := mana.ParseManaCost(tmpl.ManaCostText)
		if !mana.CanPay(pool, cost, 0) {
			continue
		}
		reqs := targeting.ParseOracleText(tmpl.OracleText)
		if len(reqs) == 0 || targeting.HasAnyLegalCombination(state, g.Catalog, reqs, playerID, c) {
			return true
		}
	}
	for _, c := range ps.Battlefield {
		for _, ab := range g.Activated.Abilities(c, state, g.Catalog) {
			if ab.IsManaAbility {
				continue
			}
			if ab.CanActivate(state, g.Catalog, c, playerID) {
				return true
			}
		}
	}
	return false
}

// applyAutoPassReductions implements R2-R5 over a fully enumerated
// action list.
func (g *Generator) applyAutoPassReductions(state *cardstate.GameState, playerID cardstate.Role, actions []Action) []Action {
	mustDeclare := state.Step == cardstate.StepDeclareAttackers && playerID == state.ActivePlayer

	if !mustDeclare && state.Phase != cardstate.PhaseBeginning {
		stackOrNotMain := len(state.Stack) > 0 || !g.isSorcerySpeedWindow(state, playerID)
		if stackOrNotMain && !g.hasInstantSpeedOption(state, playerID) {
			return []Action{{Kind: KindPassPriority, PlayerID: playerID}}
		}
	}

	hasCast := false
	for _, a := range actions {
		if a.Kind == KindCastSpell {
			hasCast = true
			break
		}
	}
	hasNonManaActivated := false
	for _, a := range actions {
		if a.Kind == KindActivateAbility && !g.isManaAbilityAction(state, a) {
			hasNonManaActivated = true
			break
		}
	}
	hasInstantInHand := g.hasInstantInHand(state, playerID)
	hasSpellInHand := len(state.Player(playerID).Hand) > 0

	strip := hasCast // R4, first clause
	if !hasCast && !g.isSorcerySpeedWindow(state, playerID) && !hasNonManaActivated && !hasInstantInHand {
		strip = true // R4, second clause
	}
	if !hasCast && !hasSpellInHand && !hasNonManaActivated {
		strip = true // R5
	}
	if strip {
		actions = stripManaAbilities(state, g, actions)
	}

	return actions
}

func (g *Generator) hasInstantInHand(state *cardstate.GameState, playerID cardstate.Role) bool {
	for _, c := range state.Player(playerID).Hand {
		tmpl, ok := g.Catalog.Lookup(c.TemplateID)
		if ok && tmpl.IsInstant() {
			return true
		}
	}
	return false
}

func (g *Generator) isManaAbilityAction(state *cardstate.GameState, a Action) bool {
	source := state.FindCard(a.SourceID)
	if source == nil {
		return false
	}
	for _, ab := range g.Activated.Abilities(source, state, g.Catalog) {
		if ab.ID == a.AbilityID {
			return ab.IsManaAbility
		}
	}
	return false
}

func stripManaAbilities(state *cardstate.GameState, g *Generator, actions []Action) []Action {
	var out []Action
	for _, a := range actions {
		if a.Kind == KindActivateAbility && g.isManaAbilityAction(state, a) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// declareAttackerActions implements the §4.4 "attack with each single
// eligible creature, plus one combined attack with all eligible
// creatures" enumeration.
func (g *Generator) declareAttackerActions(state *cardstate.GameState, playerID cardstate.Role) []Action {
	var eligible []string
	for _, c := range state.Player(playerID).Battlefield {
		if g.isEligibleAttacker(state, c) {
			eligible = append(eligible, c.InstanceID)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.Strings(eligible)

	var actions []Action
	for _, id := range eligible {
		if g.cantAttackAlone(state, id) {
			continue
		}
		actions = append(actions, Action{Kind: KindDeclareAttackers, PlayerID: playerID, Attackers: []string{id}})
	}
	if len(eligible) > 1 {
		actions = append(actions, Action{Kind: KindDeclareAttackers, PlayerID: playerID, Attackers: append([]string(nil), eligible...)})
	}
	return actions
}

// cantAttackAlone reports whether id's oracle text forbids attacking
// without company; such a creature only appears in the combined
// attack-with-everything action.
func (g *Generator) cantAttackAlone(state *cardstate.GameState, id string) bool {
	c := state.FindCard(id)
	if c == nil {
		return false
	}
	tmpl, ok := g.Catalog.Lookup(c.TemplateID)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(tmpl.OracleText), "can't attack alone")
}

// IsEligibleAttacker reports whether c may be declared as an attacker,
// per the §4.4 eligibility rule. Exported so the reducer's validator can
// reuse the same predicate the generator enumerates with.
func (g *Generator) IsEligibleAttacker(state *cardstate.GameState, c *cardstate.CardInstance) bool {
	return g.isEligibleAttacker(state, c)
}

func (g *Generator) isEligibleAttacker(state *cardstate.GameState, c *cardstate.CardInstance) bool {
	if c.Tapped {
		return false
	}
	tmpl, ok := g.Catalog.Lookup(c.TemplateID)
	if !ok || !tmpl.IsCreature() {
		return false
	}
	if c.SummoningSick && !tmpl.HasHaste() {
		return false
	}
	if tmpl.HasDefender() {
		return false
	}
	for _, attID := range c.Attachments {
		aura := state.FindCard(attID)
		if aura == nil {
			continue
		}
		auraTmpl, ok := g.Catalog.Lookup(aura.TemplateID)
		if ok && strings.Contains(strings.ToLower(auraTmpl.OracleText), "can't attack") {
			return false
		}
	}
	return true
}

// declareBlockerActions enumerates the defender's options during
// declare_blockers: no-block, every single legal assignment, and
// multi-blocker gang-blocks against Menace/high-power attackers, or the
// forced Lure assignment if present.
func (g *Generator) declareBlockerActions(state *cardstate.GameState, defender cardstate.Role) []Action {
	attackers := attackingCreatures(state)
	if len(attackers) == 0 {
		return []Action{{Kind: KindDeclareBlockers, PlayerID: defender, Blocks: nil}}
	}

	var blockers []*cardstate.CardInstance
	for _, c := range state.Player(defender).Battlefield {
		tmpl, ok := g.Catalog.Lookup(c.TemplateID)
		if !ok || !tmpl.IsCreature() || c.Tapped {
			continue
		}
		blockers = append(blockers, c)
	}

	legalPairs := map[string][]string{} // attackerID -> []blockerID
	anyLegal := false
	for _, atk := range attackers {
		atkTmpl, _ := g.Catalog.Lookup(atk.TemplateID)
		for _, blk := range blockers {
			if g.canBlock(state, blk, atk, atkTmpl) {
				legalPairs[atk.InstanceID] = append(legalPairs[atk.InstanceID], blk.InstanceID)
				anyLegal = true
			}
		}
	}

	if !anyLegal {
		// R3: auto-no-block.
		return []Action{{Kind: KindDeclareBlockers, PlayerID: defender, Blocks: nil}}
	}

	if lured := luredAttackers(state, g.Catalog, attackers); len(lured) > 0 {
		return []Action{{Kind: KindDeclareBlockers, PlayerID: defender, Blocks: forcedLureBlocks(lured, legalPairs)}}
	}

	actions := []Action{{Kind: KindDeclareBlockers, PlayerID: defender, Blocks: nil}}
	for _, atk := range attackers {
		atkTmpl, _ := g.Catalog.Lookup(atk.TemplateID)
		if !atkTmpl.HasMenace() {
			// Menace attackers can't be blocked by a single creature, so
			// single-block assignments are only offered for the rest.
			for _, blkID := range legalPairs[atk.InstanceID] {
				actions = append(actions, Action{Kind: KindDeclareBlockers, PlayerID: defender, Blocks: []BlockAssignment{{BlockerID: blkID, AttackerID: atk.InstanceID}}})
			}
		}
		if atkTmpl.HasMenace() || effectivePower(atk, atkTmpl) >= 4 {
			actions = append(actions, g.gangBlockActions(defender, atk, legalPairs[atk.InstanceID])...)
		}
	}
	return actions
}

func effectivePower(c *cardstate.CardInstance, tmpl catalog.Template) int {
	base := 0
	if tmpl.Power != nil {
		base = *tmpl.Power
	}
	return c.EffectivePower(base)
}

// gangBlockActions generates 2- and 3-blocker combinations against atk
// from the given pool of eligible blockers.
func (g *Generator) gangBlockActions(defender cardstate.Role, atk *cardstate.CardInstance, pool []string) []Action {
	var actions []Action
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			actions = append(actions, Action{Kind: KindDeclareBlockers, PlayerID: defender, Blocks: []BlockAssignment{
				{BlockerID: pool[i], AttackerID: atk.InstanceID},
				{BlockerID: pool[j], AttackerID: atk.InstanceID},
			}})
			for k := j + 1; k < len(pool); k++ {
				actions = append(actions, Action{Kind: KindDeclareBlockers, PlayerID: defender, Blocks: []BlockAssignment{
					{BlockerID: pool[i], AttackerID: atk.InstanceID},
					{BlockerID: pool[j], AttackerID: atk.InstanceID},
					{BlockerID: pool[k], AttackerID: atk.InstanceID},
				}})
			}
		}
	}
	return actions
}

// luredAttackers returns the subset of attackers with a Lure aura
// attached (§4.4, §4.7 glossary): "All creatures able to block enchanted
// creature do so."
func luredAttackers(state *cardstate.GameState, cat catalog.Adapter, attackers []*cardstate.CardInstance) []*cardstate.CardInstance {
	var out []*cardstate.CardInstance
	for _, atk := range attackers {
		for _, attID := range atk.Attachments {
			aura := state.FindCard(attID)
			if aura == nil {
				continue
			}
			tmpl, ok := cat.Lookup(aura.TemplateID)
			if ok && tmpl.HasLure() {
				out = append(out, atk)
				break
			}
		}
	}
	return out
}

// forcedLureBlocks assigns every blocker named in legalPairs for a lured
// attacker to block one of the lured attackers it can legally block,
// since Lure leaves no choice. A blocker able to block more than one
// lured attacker is assigned to the first in lured order; it never sits
// out and it never blocks a non-lured attacker instead.
func forcedLureBlocks(lured []*cardstate.CardInstance, legalPairs map[string][]string) []BlockAssignment {
	assigned := map[string]bool{}
	var out []BlockAssignment
	for _, atk := range lured {
		for _, blkID := range legalPairs[atk.InstanceID] {
			if assigned[blkID] {
				continue
			}
			assigned[blkID] = true
			out = append(out, BlockAssignment{BlockerID: blkID, AttackerID: atk.InstanceID})
		}
	}
	return out
}

func attackingCreatures(state *cardstate.GameState) []*cardstate.CardInstance {
	var out []*cardstate.CardInstance
	for _, ps := range state.Players {
		for _, c := range ps.Battlefield {
			if c.Attacking {
				out = append(out, c)
			}
		}
	}
	return out
}

// CanBlock reports whether blocker may legally block attacker, applying
// the §4.4 evasion rules. Exported so the reducer's validator can reuse
// the same predicate the generator enumerates with.
func (g *Generator) CanBlock(state *cardstate.GameState, blocker, attacker *cardstate.CardInstance) bool {
	atkTmpl, ok := g.Catalog.Lookup(attacker.TemplateID)
	if !ok {
		return false
	}
	return g.canBlock(state, blocker, attacker, atkTmpl)
}

// canBlock applies the evasion rules of §4.4: flying/reach, fear,
// protection, and landwalk.
func (g *Generator) canBlock(state *cardstate.GameState, blocker, attacker *cardstate.CardInstance, atkTmpl catalog.Template) bool {
	blkTmpl, ok := g.Catalog.Lookup(blocker.TemplateID)
	if !ok {
		return false
	}
	if atkTmpl.HasFlying() && !(blkTmpl.HasFlying() || blkTmpl.HasReach()) {
		return false
	}
	if atkTmpl.HasKeyword("fear") && !(blkTmpl.IsArtifact() || hasBlackColor(blkTmpl)) {
		return false
	}
	if targeting.ProtectedFrom(atkTmpl, blkTmpl) {
		// an attacker with protection from the blocker's color or type
		// can't be blocked by it.
		return false
	}
	for _, landType := range atkTmpl.GetLandwalkTypes() {
		if g.defenderControlsLandType(state, attacker, landType) {
			return false
		}
	}
	return true
}

func hasBlackColor(tmpl catalog.Template) bool {
	for _, c := range tmpl.Colors {
		if c == "B" {
			return true
		}
	}
	return false
}

// defenderControlsLandType reports whether the player defending against
// attacker controls a land whose type line names landType (e.g. "island"
// for Islandwalk).
func (g *Generator) defenderControlsLandType(state *cardstate.GameState, attacker *cardstate.CardInstance, landType string) bool {
	defender := attacker.Controller.Opponent()
	for _, c := range state.Player(defender).Battlefield {
		tmpl, ok := g.Catalog.Lookup(c.TemplateID)
		if !ok || !tmpl.IsLand() {
			continue
		}
		for _, part := range splitTypeWords(tmpl.TypeLine) {
			if part == landType {
				return true
			}
		}
	}
	return false
}

func splitTypeWords(typeLine string) []string {
	var out []string
	var cur []rune
	for _, r := range typeLine {
		if r == ' ' || r == '-' {
			if len(cur) > 0 {
				out = append(out, lower(string(cur)))
				cur = nil
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		out = append(out, lower(string(cur)))
	}
	return out
}

func lower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'Z' {
			out[i] = r + ('a' - 'A')
		}
	}
	return string(out)
}

// DescribeAction is a pure formatter resolving ids to human-readable
// names; it consults no engine semantics beyond the catalog (§4.4).
func (g *Generator) DescribeAction(a Action, state *cardstate.GameState) string {
	name := func(instanceID string) string {
		c := state.FindCard(instanceID)
		if c == nil {
			return instanceID
		}
		if tmpl, ok := g.Catalog.Lookup(c.TemplateID); ok {
			return tmpl.Name
		}
		return instanceID
	}

	switch a.Kind {
	case KindPlayLand:
		return fmt.Sprintf("%s plays %s", a.PlayerID, name(a.CardInstanceID))
	case KindCastSpell:
		return fmt.Sprintf("%s casts %s", a.PlayerID, name(a.CardInstanceID))
	case KindActivateAbility:
		return fmt.Sprintf("%s activates %s's %s", a.PlayerID, name(a.SourceID), a.AbilityID)
	case KindDeclareAttackers:
		return fmt.Sprintf("%s attacks with %d creature(s)", a.PlayerID, len(a.Attackers))
	case KindDeclareBlockers:
		return fmt.Sprintf("%s declares %d block(s)", a.PlayerID, len(a.Blocks))
	case KindSacrificePermanent:
		return fmt.Sprintf("%s sacrifices %s", a.PlayerID, name(a.PermanentID))
	case KindPassPriority:
		return fmt.Sprintf("%s passes priority", a.PlayerID)
	case KindEndTurn:
		return fmt.Sprintf("%s ends their turn", a.PlayerID)
	default:
		return string(a.Kind)
	}
}
