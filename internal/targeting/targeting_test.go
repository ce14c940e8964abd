package targeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
)

func TestParseOracleText_AnyTarget(t *testing.T) {
	reqs := ParseOracleText("Lightning Bolt deals 3 damage to any target.")
	require.Len(t, reqs, 1)
	assert.Equal(t, TargetAny, reqs[0].TargetType)
}

func TestParseOracleText_NonblackCreature(t *testing.T) {
	reqs := ParseOracleText("Destroy target nonblack creature.")
	require.Len(t, reqs, 1)
	assert.Equal(t, TargetCreature, reqs[0].TargetType)
	require.Len(t, reqs[0].Restrictions, 1)
	assert.Equal(t, RestrictColor, reqs[0].Restrictions[0].Kind)
	assert.Equal(t, "B", reqs[0].Restrictions[0].Value)
	assert.True(t, reqs[0].Restrictions[0].Negated)
}

func TestParseOracleText_StackedRestrictions(t *testing.T) {
	reqs := ParseOracleText("Tap target nonartifact, nonblack creature.")
	require.Len(t, reqs, 1)
	assert.Len(t, reqs[0].Restrictions, 2)
}

func TestParseOracleText_ArtifactOrEnchantment(t *testing.T) {
	reqs := ParseOracleText("Destroy target artifact or enchantment.")
	require.Len(t, reqs, 1)
	assert.Equal(t, TargetArtifactOrEnch, reqs[0].TargetType)
}

func TestParseOracleText_GraveyardCard(t *testing.T) {
	reqs := ParseOracleText("Return target card in a graveyard to its owner's hand.")
	require.Len(t, reqs, 1)
	assert.Equal(t, TargetGraveyardCard, reqs[0].TargetType)
}

func newTestState() (*cardstate.GameState, catalog.Adapter) {
	bear := catalog.Template{ID: "bear", TypeLine: "Creature - Bear", Power: intPtr(2), Toughness: intPtr(2)}
	shrouded := catalog.Template{ID: "shrouded", TypeLine: "Creature - Spirit", Keywords: []string{"shroud"}}
	cat := catalog.NewInMemory([]catalog.Template{bear, shrouded})

	p1 := &cardstate.PlayerState{Battlefield: []*cardstate.CardInstance{
		{InstanceID: "c1", TemplateID: "bear", Owner: cardstate.RoleP1, Controller: cardstate.RoleP1, Zone: cardstate.ZoneBattlefield},
	}}
	p2 := &cardstate.PlayerState{Battlefield: []*cardstate.CardInstance{
		{InstanceID: "c2", TemplateID: "shrouded", Owner: cardstate.RoleP2, Controller: cardstate.RoleP2, Zone: cardstate.ZoneBattlefield},
	}}
	state := &cardstate.GameState{Players: map[cardstate.Role]*cardstate.PlayerState{cardstate.RoleP1: p1, cardstate.RoleP2: p2}}
	return state, cat
}

func intPtr(n int) *int { return &n }

func TestLegal_ShroudBlocksTargeting(t *testing.T) {
	state, cat := newTestState()
	req := TargetRequirement{TargetType: TargetCreature, Count: 1, Zone: cardstate.ZoneBattlefield}
	assert.False(t, Legal(state, cat, req, Candidate{CardID: "c2"}, cardstate.RoleP1, nil))
	assert.True(t, Legal(state, cat, req, Candidate{CardID: "c1"}, cardstate.RoleP1, nil))
}

func TestEnumerateLegalTargetCombinations_ExcludesIllegal(t *testing.T) {
	state, cat := newTestState()
	reqs := []TargetRequirement{{TargetType: TargetCreature, Count: 1, Zone: cardstate.ZoneBattlefield}}
	combos := EnumerateLegalTargetCombinations(state, cat, reqs, cardstate.RoleP1, nil)
	require.Len(t, combos, 1)
	assert.Equal(t, "c1", combos[0][0].CardID)
}

func TestEnumerateLegalTargetCombinations_NoLegalTargetsYieldsNone(t *testing.T) {
	state, cat := newTestState()
	// remove the only legal creature
	state.Players[cardstate.RoleP1].Battlefield = nil
	reqs := []TargetRequirement{{TargetType: TargetCreature, Count: 1, Zone: cardstate.ZoneBattlefield}}
	combos := EnumerateLegalTargetCombinations(state, cat, reqs, cardstate.RoleP1, nil)
	assert.Nil(t, combos)
}

func TestStillLegal_FizzleWhenTargetGone(t *testing.T) {
	state, cat := newTestState()
	reqs := []TargetRequirement{{TargetType: TargetCreature, Count: 1, Zone: cardstate.ZoneBattlefield}}
	assert.True(t, StillLegal(state, cat, reqs, []string{"c1"}, cardstate.RoleP1, nil))

	state.Players[cardstate.RoleP1].Battlefield = nil
	assert.False(t, StillLegal(state, cat, reqs, []string{"c1"}, cardstate.RoleP1, nil))
}
