// Package catalog is the read-only adapter over the card template table.
// It has no mutable state and no side effects: a missing template simply
// yields an absent Template, and callers treat the card as inert (§4.1,
// §7's MissingTemplate).
package catalog

import "strings"

// Template is the catalog record for one card name, as consumed from an
// external card database (§6's "Catalog record").
type Template struct {
	ID            string
	Name          string
	TypeLine      string
	OracleText    string
	ManaCostText  string // oracle notation, e.g. "{2}{R}{B}"
	CMC           int
	Colors        []string // subset of {W,U,B,R,G}
	ColorIdentity []string
	Keywords      []string
	Power         *int
	Toughness     *int
}

// Adapter is the read-only lookup interface the rest of the engine
// consumes. A missing template is represented by ok == false.
type Adapter interface {
	Lookup(templateID string) (Template, bool)
}

// InMemory is the simplest Adapter: a map keyed by template ID, the
// shape the teacher's deck repository loads from its card JSON
// (internal/session/game/deck/deck_repository.go's LoadCardsFromJSON).
type InMemory struct {
	templates map[string]Template
}

// NewInMemory builds a catalog from a slice of templates.
func NewInMemory(templates []Template) *InMemory {
	m := make(map[string]Template, len(templates))
	for _, t := range templates {
		m[t.ID] = t
	}
	return &InMemory{templates: m}
}

// Lookup implements Adapter.
func (c *InMemory) Lookup(templateID string) (Template, bool) {
	t, ok := c.templates[templateID]
	return t, ok
}

// Register adds or overwrites a single template, used by tests and by
// set-loading code that merges several JSON files.
func (c *InMemory) Register(t Template) {
	if c.templates == nil {
		c.templates = make(map[string]Template)
	}
	c.templates[t.ID] = t
}

func hasWord(typeLine, word string) bool {
	for _, part := range strings.Fields(strings.ToLower(typeLine)) {
		if part == word {
			return true
		}
	}
	return false
}

// IsLand reports whether the type line names the Land type.
func (t Template) IsLand() bool { return hasWord(t.TypeLine, "land") }

// IsCreature reports whether the type line names the Creature type.
func (t Template) IsCreature() bool { return hasWord(t.TypeLine, "creature") }

// IsInstant reports whether the type line names the Instant type.
func (t Template) IsInstant() bool { return hasWord(t.TypeLine, "instant") }

// IsSorcery reports whether the type line names the Sorcery type.
func (t Template) IsSorcery() bool { return hasWord(t.TypeLine, "sorcery") }

// IsArtifact reports whether the type line names the Artifact type.
func (t Template) IsArtifact() bool { return hasWord(t.TypeLine, "artifact") }

// IsEnchantment reports whether the type line names the Enchantment type.
func (t Template) IsEnchantment() bool { return hasWord(t.TypeLine, "enchantment") }

// IsPlaneswalker reports whether the type line names the Planeswalker type.
func (t Template) IsPlaneswalker() bool { return hasWord(t.TypeLine, "planeswalker") }

// HasKeyword reports whether keyword (case-insensitive) is carried.
func (t Template) HasKeyword(keyword string) bool {
	for _, k := range t.Keywords {
		if strings.EqualFold(k, keyword) {
			return true
		}
	}
	return false
}

func (t Template) HasFlying() bool      { return t.HasKeyword("flying") }
func (t Template) HasReach() bool       { return t.HasKeyword("reach") }
func (t Template) HasFirstStrike() bool { return t.HasKeyword("first strike") }
func (t Template) HasDoubleStrike() bool { return t.HasKeyword("double strike") }
func (t Template) HasTrample() bool     { return t.HasKeyword("trample") }
func (t Template) HasVigilance() bool   { return t.HasKeyword("vigilance") }
func (t Template) HasHaste() bool       { return t.HasKeyword("haste") }
func (t Template) HasDefender() bool    { return t.HasKeyword("defender") }
func (t Template) HasMenace() bool      { return t.HasKeyword("menace") }
func (t Template) HasFear() bool        { return t.HasKeyword("fear") }
func (t Template) HasFlash() bool       { return t.HasKeyword("flash") }
func (t Template) HasDeathtouch() bool  { return t.HasKeyword("deathtouch") }
func (t Template) HasLifelink() bool    { return t.HasKeyword("lifelink") }
func (t Template) HasShroud() bool      { return t.HasKeyword("shroud") }
func (t Template) HasHexproof() bool    { return t.HasKeyword("hexproof") }
func (t Template) HasLure() bool        { return t.HasKeyword("lure") }

// protectionPrefix is how this catalog encodes "Protection from X" in the
// Keywords list, e.g. "protection from red", "protection from artifacts".
const protectionPrefix = "protection from "

// ProtectionFrom returns the list of things (colors, types, or names) this
// template has protection from, lower-cased.
func (t Template) ProtectionFrom() []string {
	var out []string
	for _, k := range t.Keywords {
		lower := strings.ToLower(k)
		if strings.HasPrefix(lower, protectionPrefix) {
			out = append(out, strings.TrimPrefix(lower, protectionPrefix))
		}
	}
	return out
}

// landwalkSuffixes lists how this catalog encodes landwalk, e.g. "islandwalk".
var landwalkSuffixes = []string{"islandwalk", "swampwalk", "mountainwalk", "forestwalk", "plainswalk"}

// GetLandwalkTypes returns the basic land types this template has walk for.
func (t Template) GetLandwalkTypes() []string {
	var out []string
	for _, k := range t.Keywords {
		lower := strings.ToLower(k)
		for _, suffix := range landwalkSuffixes {
			if lower == suffix {
				out = append(out, strings.TrimSuffix(suffix, "walk"))
			}
		}
	}
	return out
}
