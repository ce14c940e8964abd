package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
)

func intPtr(n int) *int { return &n }

func TestResolveCombatDamage_UnblockedHitsPlayer(t *testing.T) {
	cat := catalog.NewInMemory([]catalog.Template{
		{ID: "bear", TypeLine: "Creature - Bear", Power: intPtr(2), Toughness: intPtr(2)},
	})
	atk := &cardstate.CardInstance{InstanceID: "a1", TemplateID: "bear", Controller: cardstate.RoleP1, Attacking: true}
	state := &cardstate.GameState{Players: map[cardstate.Role]*cardstate.PlayerState{
		cardstate.RoleP1: {Battlefield: []*cardstate.CardInstance{atk}},
		cardstate.RoleP2: {Life: 20},
	}}

	events := ResolveCombatDamage(state, cat)
	require.Len(t, events, 1)
	assert.Equal(t, 18, state.Players[cardstate.RoleP2].Life)
}

func TestResolveCombatDamage_TrampleOverflow(t *testing.T) {
	cat := catalog.NewInMemory([]catalog.Template{
		{ID: "trampler", TypeLine: "Creature - Beast", Power: intPtr(5), Toughness: intPtr(5), Keywords: []string{"trample"}},
		{ID: "chump", TypeLine: "Creature - Goblin", Power: intPtr(1), Toughness: intPtr(1)},
	})
	atk := &cardstate.CardInstance{InstanceID: "a1", TemplateID: "trampler", Controller: cardstate.RoleP1, Attacking: true, BlockedBy: []string{"b1"}}
	blk := &cardstate.CardInstance{InstanceID: "b1", TemplateID: "chump", Controller: cardstate.RoleP2}
	state := &cardstate.GameState{Players: map[cardstate.Role]*cardstate.PlayerState{
		cardstate.RoleP1: {Battlefield: []*cardstate.CardInstance{atk}},
		cardstate.RoleP2: {Life: 20, Battlefield: []*cardstate.CardInstance{blk}},
	}}

	ResolveCombatDamage(state, cat)
	assert.Equal(t, 1, blk.Damage)
	assert.Equal(t, 16, state.Players[cardstate.RoleP2].Life) // 5 power - 1 lethal = 4 trample through
}

func TestResolveCombatDamage_FirstStrikeKillsBeforeRegularDamage(t *testing.T) {
	cat := catalog.NewInMemory([]catalog.Template{
		{ID: "knight", TypeLine: "Creature - Knight", Power: intPtr(2), Toughness: intPtr(2), Keywords: []string{"first strike"}},
		{ID: "ogre", TypeLine: "Creature - Ogre", Power: intPtr(2), Toughness: intPtr(1)},
	})
	atk := &cardstate.CardInstance{InstanceID: "a1", TemplateID: "knight", Controller: cardstate.RoleP1, Attacking: true, BlockedBy: []string{"b1"}}
	blk := &cardstate.CardInstance{InstanceID: "b1", TemplateID: "ogre", Controller: cardstate.RoleP2}
	state := &cardstate.GameState{Players: map[cardstate.Role]*cardstate.PlayerState{
		cardstate.RoleP1: {Battlefield: []*cardstate.CardInstance{atk}},
		cardstate.RoleP2: {Battlefield: []*cardstate.CardInstance{blk}},
	}}

	ResolveCombatDamage(state, cat)
	// the ogre (no first strike) never gets to deal its damage back
	// because it dies to first-strike damage before the regular step.
	assert.Equal(t, 2, blk.Damage)
	assert.Equal(t, 0, atk.Damage)
}

func TestResolveCombatDamage_ProtectionPreventsDamage(t *testing.T) {
	cat := catalog.NewInMemory([]catalog.Template{
		{ID: "raider", TypeLine: "Creature - Goblin", Power: intPtr(3), Toughness: intPtr(3), Colors: []string{"R"}},
		{ID: "crusader", TypeLine: "Creature - Knight", Power: intPtr(2), Toughness: intPtr(2), Colors: []string{"W"}, Keywords: []string{"protection from red"}},
	})
	atk := &cardstate.CardInstance{InstanceID: "a1", TemplateID: "raider", Controller: cardstate.RoleP1, Attacking: true, BlockedBy: []string{"b1"}}
	blk := &cardstate.CardInstance{InstanceID: "b1", TemplateID: "crusader", Controller: cardstate.RoleP2}
	state := &cardstate.GameState{Players: map[cardstate.Role]*cardstate.PlayerState{
		cardstate.RoleP1: {Battlefield: []*cardstate.CardInstance{atk}},
		cardstate.RoleP2: {Life: 20, Battlefield: []*cardstate.CardInstance{blk}},
	}}

	ResolveCombatDamage(state, cat)

	// the pro-red crusader takes nothing from the red attacker but still
	// deals its own damage back.
	assert.Equal(t, 0, blk.Damage)
	assert.Equal(t, 2, atk.Damage)
	assert.Equal(t, 20, state.Players[cardstate.RoleP2].Life)
}

func TestResolveCombatDamage_TramplerHoldsLethalAgainstProtectedBlocker(t *testing.T) {
	cat := catalog.NewInMemory([]catalog.Template{
		{ID: "wurm", TypeLine: "Creature - Wurm", Power: intPtr(6), Toughness: intPtr(6), Colors: []string{"G"}, Keywords: []string{"trample"}},
		{ID: "warden", TypeLine: "Creature - Cleric", Power: intPtr(1), Toughness: intPtr(2), Colors: []string{"W"}, Keywords: []string{"protection from green"}},
	})
	atk := &cardstate.CardInstance{InstanceID: "a1", TemplateID: "wurm", Controller: cardstate.RoleP1, Attacking: true, BlockedBy: []string{"b1"}}
	blk := &cardstate.CardInstance{InstanceID: "b1", TemplateID: "warden", Controller: cardstate.RoleP2}
	state := &cardstate.GameState{Players: map[cardstate.Role]*cardstate.PlayerState{
		cardstate.RoleP1: {Battlefield: []*cardstate.CardInstance{atk}},
		cardstate.RoleP2: {Life: 20, Battlefield: []*cardstate.CardInstance{blk}},
	}}

	ResolveCombatDamage(state, cat)

	// lethal (2) is still assigned to the blocker and prevented there;
	// only the remaining 4 tramples through.
	assert.Equal(t, 0, blk.Damage)
	assert.Equal(t, 16, state.Players[cardstate.RoleP2].Life)
}

func TestResolveCombatDamage_PreventAllShortCircuits(t *testing.T) {
	cat := catalog.NewInMemory(nil)
	state := &cardstate.GameState{
		PreventAllCombatDamage: true,
		Players: map[cardstate.Role]*cardstate.PlayerState{
			cardstate.RoleP1: {}, cardstate.RoleP2: {},
		},
	}
	events := ResolveCombatDamage(state, cat)
	assert.Nil(t, events)
}

func TestCleanupCombat_ClearsAttackingAndBlocking(t *testing.T) {
	c := &cardstate.CardInstance{Attacking: true, Blocking: "x", BlockedBy: []string{"y"}}
	state := &cardstate.GameState{Players: map[cardstate.Role]*cardstate.PlayerState{
		cardstate.RoleP1: {Battlefield: []*cardstate.CardInstance{c}},
	}}
	CleanupCombat(state)
	assert.False(t, c.Attacking)
	assert.Empty(t, c.Blocking)
	assert.Nil(t, c.BlockedBy)
}
