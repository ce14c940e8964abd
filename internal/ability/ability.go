// Package ability holds the data-driven representation of activated
// abilities and spell effects, plus the two registries the reducer
// consults to resolve them (§4.5).
package ability

import (
	"regexp"
	"strconv"
	"strings"

	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
	"sixthed-backend/internal/targeting"
)

// EffectKind tags the variant carried by an Effect.
type EffectKind string

const (
	EffectDamage    EffectKind = "DAMAGE"
	EffectDestroy   EffectKind = "DESTROY"
	EffectDrawCard  EffectKind = "DRAW_CARD"
	EffectAddMana   EffectKind = "ADD_MANA"
	EffectRegenerate EffectKind = "REGENERATE"
	EffectCustom    EffectKind = "CUSTOM"
)

// Effect is a tagged variant describing what an ability or spell does.
type Effect struct {
	Kind EffectKind

	Amount int // DAMAGE count, DRAW_CARD count, ADD_MANA amount per color

	// AddManaColors lists the mana an ADD_MANA effect produces: each entry
	// adds Amount of that color, so "{U}{U}" lists Blue twice. The Action
	// payload's manaColorChoice is not consulted.
	AddManaColors []cardstate.Color

	CustomID string // opaque key a CUSTOM effect's handler dispatches on
}

// Cost describes what an activated ability demands to put it on the
// stack (or, for mana abilities, to resolve it immediately).
type Cost struct {
	RequiresTap    bool
	ManaCost       *cardstate.ManaCost
	SacrificeSelf  bool
	Life           int
}

// Ability is one activatable or triggered capability of a source.
type Ability struct {
	ID                 string
	SourceTemplateID   string
	Cost               Cost
	Effect             Effect
	IsManaAbility      bool
	TargetRequirements []targeting.TargetRequirement
}

// CanActivate reports whether source's ability a may be activated right
// now by controller: tap cost needs an untapped source, mana cost needs
// an affordable pool (checked by the caller via the mana package), and
// every target slot needs at least one legal filler.
func (a Ability) CanActivate(state *cardstate.GameState, cat catalog.Adapter, source *cardstate.CardInstance, controller cardstate.Role) bool {
	if a.Cost.RequiresTap && source.Tapped {
		return false
	}
	if a.Cost.RequiresTap && source.SummoningSick {
		// summoning sickness gates tap abilities of creatures, not lands.
		if tmpl, ok := cat.Lookup(source.TemplateID); ok && tmpl.IsCreature() && !tmpl.HasHaste() {
			return false
		}
	}
	if len(a.TargetRequirements) > 0 {
		return targeting.HasAnyLegalCombination(state, cat, a.TargetRequirements, controller, source)
	}
	return true
}

// ActivatedRegistry maps a templateId to the Abilities its instances
// carry, given the current instance and state (some abilities are
// conditional on board state, e.g. "tap: deal damage equal to creatures
// you control").
type ActivatedRegistry struct {
	byTemplate map[string]func(instance *cardstate.CardInstance, state *cardstate.GameState) []Ability
}

// NewActivatedRegistry returns an empty registry.
func NewActivatedRegistry() *ActivatedRegistry {
	return &ActivatedRegistry{byTemplate: make(map[string]func(*cardstate.CardInstance, *cardstate.GameState) []Ability)}
}

// Register installs the ability-producing function for templateId.
func (r *ActivatedRegistry) Register(templateID string, fn func(*cardstate.CardInstance, *cardstate.GameState) []Ability) {
	r.byTemplate[templateID] = fn
}

// Abilities returns the abilities instance currently carries. Basic
// lands with no registered override derive a tap-for-mana ability from
// their type line; other lands fall through a shallow "{T}: Add {X}."
// oracle-text parser (§4.5).
func (r *ActivatedRegistry) Abilities(instance *cardstate.CardInstance, state *cardstate.GameState, cat catalog.Adapter) []Ability {
	if fn, ok := r.byTemplate[instance.TemplateID]; ok {
		return fn(instance, state)
	}
	tmpl, ok := cat.Lookup(instance.TemplateID)
	if !ok {
		return nil
	}
	if tmpl.IsLand() {
		if a, ok := basicLandAbility(instance.TemplateID, tmpl); ok {
			return []Ability{a}
		}
		if a, ok := parseTapManaAbility(instance.TemplateID, tmpl); ok {
			return []Ability{a}
		}
	}
	return nil
}

var basicLandColor = map[string]cardstate.Color{
	"plains":   cardstate.ColorWhite,
	"island":   cardstate.ColorBlue,
	"swamp":    cardstate.ColorBlack,
	"mountain": cardstate.ColorRed,
	"forest":   cardstate.ColorGreen,
}

func basicLandAbility(templateID string, tmpl catalog.Template) (Ability, bool) {
	for _, word := range strings.Fields(strings.ToLower(tmpl.TypeLine)) {
		color, ok := basicLandColor[word]
		if !ok {
			continue
		}
		return Ability{
			ID:               "tap_for_mana",
			SourceTemplateID: templateID,
			Cost:             Cost{RequiresTap: true},
			Effect:           Effect{Kind: EffectAddMana, Amount: 1, AddManaColors: []cardstate.Color{color}},
			IsManaAbility:    true,
		}, true
	}
	return Ability{}, false
}

// tapManaPattern matches oracle text of the shallow form "{T}: Add {X}."
// where X is one or more mana symbols.
var tapManaPattern = regexp.MustCompile(`\{t\}:\s*add\s*((?:\{[^}]+\})+)`)

func parseTapManaAbility(templateID string, tmpl catalog.Template) (Ability, bool) {
	m := tapManaPattern.FindStringSubmatch(strings.ToLower(tmpl.OracleText))
	if m == nil {
		return Ability{}, false
	}
	colors := parseManaSymbols(m[1])
	if len(colors) == 0 {
		return Ability{}, false
	}
	return Ability{
		ID:               "tap_for_mana",
		SourceTemplateID: templateID,
		Cost:             Cost{RequiresTap: true},
		Effect:           Effect{Kind: EffectAddMana, Amount: 1, AddManaColors: colors},
		IsManaAbility:    true,
	}, true
}

func parseManaSymbols(raw string) []cardstate.Color {
	var out []cardstate.Color
	for _, tok := range strings.Split(raw, "}{") {
		tok = strings.Trim(tok, "{}")
		switch strings.ToUpper(tok) {
		case "W":
			out = append(out, cardstate.ColorWhite)
		case "U":
			out = append(out, cardstate.ColorBlue)
		case "B":
			out = append(out, cardstate.ColorBlack)
		case "R":
			out = append(out, cardstate.ColorRed)
		case "G":
			out = append(out, cardstate.ColorGreen)
		case "C":
			out = append(out, cardstate.ColorColorless)
		}
	}
	return out
}

// SpellResolver mutates a cloned GameState to apply a resolving spell's
// effect. Resolvers never push to the stack themselves; the engine owns
// stack bookkeeping.
type SpellResolver func(state *cardstate.GameState, so *cardstate.StackObject, cat catalog.Adapter) error

// SpellRegistry maps templateId to a hand-written SpellResolver. A
// template with no entry falls back to GenericResolve.
type SpellRegistry struct {
	byTemplate map[string]SpellResolver
}

// NewSpellRegistry returns an empty registry.
func NewSpellRegistry() *SpellRegistry {
	return &SpellRegistry{byTemplate: make(map[string]SpellResolver)}
}

// Register installs resolver for templateId.
func (r *SpellRegistry) Register(templateID string, resolver SpellResolver) {
	r.byTemplate[templateID] = resolver
}

// Resolve dispatches to the registered resolver, or GenericResolve.
func (r *SpellRegistry) Resolve(state *cardstate.GameState, so *cardstate.StackObject, cat catalog.Adapter) error {
	if fn, ok := r.byTemplate[so.Card.TemplateID]; ok {
		return fn(state, so, cat)
	}
	return GenericResolve(state, so, cat)
}

// damagePattern matches "deals N damage to" style oracle text.
var damagePattern = regexp.MustCompile(`deals (\d+) damage`)

// GenericResolve implements the §4.5 fallback for unregistered cards:
// creatures/artifacts/enchantments enter the battlefield; instants and
// sorceries run a small pattern match over their oracle text (damage,
// counter target spell, destroy target permanent, draw a card).
func GenericResolve(state *cardstate.GameState, so *cardstate.StackObject, cat catalog.Adapter) error {
	tmpl, ok := cat.Lookup(so.Card.TemplateID)
	if !ok {
		return nil // missing-template spells fizzle quietly, per §7
	}

	if tmpl.IsCreature() || tmpl.IsArtifact() || tmpl.IsEnchantment() || tmpl.IsPlaneswalker() {
		ps := state.Player(so.Controller)
		so.Card.Zone = cardstate.ZoneBattlefield
		so.Card.Controller = so.Controller
		so.Card.SummoningSick = tmpl.IsCreature()
		ps.AppendToZone(cardstate.ZoneBattlefield, so.Card)
		return nil
	}

	text := strings.ToLower(tmpl.OracleText)
	switch {
	case strings.Contains(text, "counter target spell"):
		for _, stackObj := range state.Stack {
			for _, id := range so.Targets {
				if stackObj.Card != nil && stackObj.Card.InstanceID == id {
					stackObj.Countered = true
				}
			}
		}
	case strings.Contains(text, "destroy target"):
		for _, id := range so.Targets {
			destroyPermanent(state, id)
		}
	case strings.Contains(text, "draw a card"):
		ps := state.Player(so.Controller)
		if c := ps.PopLibraryTop(); c != nil {
			ps.AppendToZone(cardstate.ZoneHand, c)
		} else {
			ps.AttemptedDrawFromEmpty = true
		}
	default:
		if m := damagePattern.FindStringSubmatch(text); m != nil {
			amount, _ := strconv.Atoi(m[1])
			for _, id := range so.Targets {
				dealDamage(state, id, amount, so.Card)
			}
		}
	}
	return nil
}

func destroyPermanent(state *cardstate.GameState, instanceID string) {
	for _, role := range []cardstate.Role{cardstate.RoleP1, cardstate.RoleP2} {
		ps := state.Players[role]
		if ps == nil {
			continue
		}
		if c, zone, idx := ps.FindInstance(instanceID); c != nil && zone == cardstate.ZoneBattlefield {
			ps.RemoveFromZone(zone, idx)
			ps.AppendToZone(cardstate.ZoneGraveyard, c)
			return
		}
	}
}

func dealDamage(state *cardstate.GameState, targetID string, amount int, source *cardstate.CardInstance) {
	if targetID == string(cardstate.RoleP1) {
		state.Players[cardstate.RoleP1].Life -= amount
		return
	}
	if targetID == string(cardstate.RoleP2) {
		state.Players[cardstate.RoleP2].Life -= amount
		return
	}
	if c := state.FindCard(targetID); c != nil {
		c.Damage += amount
	}
}
