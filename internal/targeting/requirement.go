// Package targeting turns oracle text into TargetRequirements, judges
// whether a proposed target id is still legal, and enumerates the legal
// combinations a caster may choose from (§4.3).
package targeting

import (
	"regexp"
	"strings"

	"sixthed-backend/internal/cardstate"
)

// TargetType is the semantic category a requirement's slot accepts.
type TargetType string

const (
	TargetAny               TargetType = "any"
	TargetPlayer            TargetType = "player"
	TargetCreature          TargetType = "creature"
	TargetPermanent         TargetType = "permanent"
	TargetArtifact          TargetType = "artifact"
	TargetEnchantment       TargetType = "enchantment"
	TargetArtifactOrEnch    TargetType = "artifact_or_enchantment"
	TargetSpell             TargetType = "spell"
	TargetCreatureSpell     TargetType = "creature_spell"
	TargetNoncreatureSpell  TargetType = "noncreature_spell"
	TargetGraveyardCard     TargetType = "graveyard_card"
)

// RestrictionKind names what a Restriction constrains.
type RestrictionKind string

const (
	RestrictColor RestrictionKind = "color" // value is one of W/U/B/R/G
	RestrictType  RestrictionKind = "type"  // value is a type-line word
)

// Restriction is one stacked predicate on an otherwise-qualifying target,
// e.g. "nonblack" is {Kind: color, Value: "B", Negated: true}.
type Restriction struct {
	Kind    RestrictionKind
	Value   string
	Negated bool
}

// TargetRequirement describes one target slot of a spell or ability.
type TargetRequirement struct {
	TargetType   TargetType
	Count        int
	Zone         cardstate.Zone // "" only for player targets
	Restrictions []Restriction
	// AllowRepeats permits the same id to fill more than one slot of a
	// single spell's target set; false by default per §4.3.
	AllowRepeats bool
}

// pattern maps an oracle-text phrasing to the requirement it produces.
// Patterns are tried in order; the first match wins, mirroring the
// "shallow pattern matcher" posture of §4.3.
type pattern struct {
	re      *regexp.Regexp
	build   func(m []string) TargetRequirement
}

var patterns = []pattern{
	{
		re: regexp.MustCompile(`any target`),
		build: func(m []string) TargetRequirement {
			return TargetRequirement{TargetType: TargetAny, Count: 1, Zone: cardstate.ZoneBattlefield}
		},
	},
	{
		re: regexp.MustCompile(`target (non\w+(?:, non\w+)*\s*)?creature spell`),
		build: func(m []string) TargetRequirement {
			return TargetRequirement{TargetType: TargetCreatureSpell, Count: 1, Zone: cardstate.ZoneStack, Restrictions: parseRestrictions(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`target (non\w+(?:, non\w+)*\s*)?noncreature spell`),
		build: func(m []string) TargetRequirement {
			return TargetRequirement{TargetType: TargetNoncreatureSpell, Count: 1, Zone: cardstate.ZoneStack, Restrictions: parseRestrictions(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`target (non\w+(?:, non\w+)*\s*)?spell`),
		build: func(m []string) TargetRequirement {
			return TargetRequirement{TargetType: TargetSpell, Count: 1, Zone: cardstate.ZoneStack, Restrictions: parseRestrictions(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`target artifact or enchantment`),
		build: func(m []string) TargetRequirement {
			return TargetRequirement{TargetType: TargetArtifactOrEnch, Count: 1, Zone: cardstate.ZoneBattlefield}
		},
	},
	{
		re: regexp.MustCompile(`target (non\w+(?:, non\w+)*\s*)?artifact\b`),
		build: func(m []string) TargetRequirement {
			return TargetRequirement{TargetType: TargetArtifact, Count: 1, Zone: cardstate.ZoneBattlefield, Restrictions: parseRestrictions(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`target (non\w+(?:, non\w+)*\s*)?enchantment\b`),
		build: func(m []string) TargetRequirement {
			return TargetRequirement{TargetType: TargetEnchantment, Count: 1, Zone: cardstate.ZoneBattlefield, Restrictions: parseRestrictions(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`target (non\w+(?:, non\w+)*\s*)?permanent`),
		build: func(m []string) TargetRequirement {
			return TargetRequirement{TargetType: TargetPermanent, Count: 1, Zone: cardstate.ZoneBattlefield, Restrictions: parseRestrictions(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`target (non\w+(?:, non\w+)*\s*)?creature`),
		build: func(m []string) TargetRequirement {
			return TargetRequirement{TargetType: TargetCreature, Count: 1, Zone: cardstate.ZoneBattlefield, Restrictions: parseRestrictions(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`target card in a graveyard`),
		build: func(m []string) TargetRequirement {
			return TargetRequirement{TargetType: TargetGraveyardCard, Count: 1, Zone: cardstate.ZoneGraveyard}
		},
	},
	{
		re: regexp.MustCompile(`target player`),
		build: func(m []string) TargetRequirement {
			return TargetRequirement{TargetType: TargetPlayer, Count: 1}
		},
	},
}

var nonWordRe = regexp.MustCompile(`non(\w+)`)

// parseRestrictions turns a captured "non-X, non-Y " cluster into stacked
// Restrictions. Color words are recognized by name; anything else is
// treated as a type-line restriction.
func parseRestrictions(captured string) []Restriction {
	captured = strings.TrimSpace(captured)
	if captured == "" {
		return nil
	}
	var out []Restriction
	for _, m := range nonWordRe.FindAllStringSubmatch(captured, -1) {
		word := strings.ToLower(m[1])
		if color, ok := colorWords[word]; ok {
			out = append(out, Restriction{Kind: RestrictColor, Value: string(color), Negated: true})
			continue
		}
		out = append(out, Restriction{Kind: RestrictType, Value: word, Negated: true})
	}
	return out
}

var colorWords = map[string]cardstate.Color{
	"white": cardstate.ColorWhite,
	"blue":  cardstate.ColorBlue,
	"black": cardstate.ColorBlack,
	"red":   cardstate.ColorRed,
	"green": cardstate.ColorGreen,
}

// ParseOracleText extracts zero or more TargetRequirements from raw
// oracle text by scanning it for the known phrasings above, in the order
// they are written.
func ParseOracleText(oracleText string) []TargetRequirement {
	text := strings.ToLower(oracleText)
	var reqs []TargetRequirement
	for _, seg := range splitClauses(text) {
		for _, p := range patterns {
			if m := p.re.FindStringSubmatch(seg); m != nil {
				reqs = append(reqs, p.build(m))
				break
			}
		}
	}
	return reqs
}

// splitClauses breaks oracle text on "." and ";" boundaries coarsely
// enough to find independent "target ..." clauses; commas are kept, so a
// stacked "non-X, non-Y" restriction stays in one clause.
func splitClauses(text string) []string {
	return regexp.MustCompile(`[.;]`).Split(text, -1)
}
