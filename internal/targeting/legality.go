package targeting

import (
	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
)

// Candidate is one addressable target: either a card instance (permanent,
// spell on the stack, graveyard card) or a player.
type Candidate struct {
	CardID   string // empty if this candidate is a player
	PlayerID cardstate.Role
	IsPlayer bool
}

// Legal reports whether candidate satisfies req under the five-point
// legality predicate of §4.3: zone residency, type/restriction match,
// Shroud, Hexproof-from-opponent, and Protection from the source.
func Legal(state *cardstate.GameState, cat catalog.Adapter, req TargetRequirement, candidate Candidate, caster cardstate.Role, source *cardstate.CardInstance) bool {
	if candidate.IsPlayer {
		return req.TargetType == TargetPlayer || req.TargetType == TargetAny
	}

	card := state.FindCard(candidate.CardID)
	if card == nil {
		return false
	}
	if !inRequiredZone(state, req, card) {
		return false
	}

	tmpl, _ := cat.Lookup(card.TemplateID)

	if !matchesType(req, tmpl) {
		return false
	}
	if !matchesRestrictions(req.Restrictions, tmpl) {
		return false
	}

	if card.Zone == cardstate.ZoneBattlefield {
		if tmpl.HasKeyword("shroud") {
			return false
		}
		if tmpl.HasKeyword("hexproof") && card.Controller != caster {
			return false
		}
		if source != nil && hasProtectionFrom(tmpl, cat, source, caster) {
			return false
		}
	}
	return true
}

func inRequiredZone(state *cardstate.GameState, req TargetRequirement, card *cardstate.CardInstance) bool {
	switch req.TargetType {
	case TargetSpell, TargetCreatureSpell, TargetNoncreatureSpell:
		for _, so := range state.Stack {
			if so.Card != nil && so.Card.InstanceID == card.InstanceID {
				return true
			}
		}
		return false
	case TargetGraveyardCard:
		return card.Zone == cardstate.ZoneGraveyard
	default:
		return card.Zone == cardstate.ZoneBattlefield
	}
}

func matchesType(req TargetRequirement, tmpl catalog.Template) bool {
	switch req.TargetType {
	case TargetAny:
		// "any target" reaches creatures, players, and planeswalkers —
		// not arbitrary permanents.
		return tmpl.IsCreature() || tmpl.IsPlaneswalker()
	case TargetPlayer, TargetGraveyardCard:
		return true
	case TargetCreature:
		return tmpl.IsCreature()
	case TargetPermanent:
		return true // any battlefield resident qualifies
	case TargetArtifact:
		return tmpl.IsArtifact()
	case TargetEnchantment:
		return tmpl.IsEnchantment()
	case TargetArtifactOrEnch:
		return tmpl.IsArtifact() || tmpl.IsEnchantment()
	case TargetSpell:
		return true
	case TargetCreatureSpell:
		return tmpl.IsCreature()
	case TargetNoncreatureSpell:
		return !tmpl.IsCreature()
	default:
		return false
	}
}

func matchesRestrictions(restrictions []Restriction, tmpl catalog.Template) bool {
	for _, r := range restrictions {
		var have bool
		switch r.Kind {
		case RestrictColor:
			have = hasColor(tmpl, cardstate.Color(r.Value))
		case RestrictType:
			have = hasTypeWord(tmpl, r.Value)
		}
		if have == r.Negated {
			return false
		}
	}
	return true
}

func hasColor(tmpl catalog.Template, c cardstate.Color) bool {
	for _, col := range tmpl.Colors {
		if col == string(c) {
			return true
		}
	}
	return false
}

func hasTypeWord(tmpl catalog.Template, word string) bool {
	switch word {
	case "artifact":
		return tmpl.IsArtifact()
	case "enchantment":
		return tmpl.IsEnchantment()
	case "creature":
		return tmpl.IsCreature()
	case "land":
		return tmpl.IsLand()
	default:
		return false
	}
}

// hasProtectionFrom reports whether the target template has protection
// from the source's color(s), types, or exact name.
func hasProtectionFrom(targetTmpl catalog.Template, cat catalog.Adapter, source *cardstate.CardInstance, caster cardstate.Role) bool {
	srcTmpl, ok := cat.Lookup(source.TemplateID)
	if !ok {
		return false
	}
	return ProtectedFrom(targetTmpl, srcTmpl)
}

// ProtectedFrom reports whether target's protection keywords cover
// source (by color, type, or exact name). Shared by target legality
// (§4.3), blocking legality, and combat damage prevention (§4.7).
func ProtectedFrom(target, srcTmpl catalog.Template) bool {
	protections := target.ProtectionFrom()
	if len(protections) == 0 {
		return false
	}
	for _, p := range protections {
		switch p {
		case "everything":
			return true
		case "white":
			if hasColor(srcTmpl, cardstate.ColorWhite) {
				return true
			}
		case "blue":
			if hasColor(srcTmpl, cardstate.ColorBlue) {
				return true
			}
		case "black":
			if hasColor(srcTmpl, cardstate.ColorBlack) {
				return true
			}
		case "red":
			if hasColor(srcTmpl, cardstate.ColorRed) {
				return true
			}
		case "green":
			if hasColor(srcTmpl, cardstate.ColorGreen) {
				return true
			}
		case "artifacts":
			if srcTmpl.IsArtifact() {
				return true
			}
		case "creatures":
			if srcTmpl.IsCreature() {
				return true
			}
		default:
			if p == normalizeName(srcTmpl.Name) {
				return true
			}
		}
	}
	return false
}

func normalizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
