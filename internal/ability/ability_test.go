package ability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
)

func TestActivatedRegistry_BasicLand(t *testing.T) {
	cat := catalog.NewInMemory([]catalog.Template{
		{ID: "forest", Name: "Forest", TypeLine: "Basic Land - Forest"},
	})
	reg := NewActivatedRegistry()
	instance := &cardstate.CardInstance{InstanceID: "f1", TemplateID: "forest"}
	state := &cardstate.GameState{}

	abilities := reg.Abilities(instance, state, cat)
	require.Len(t, abilities, 1)
	assert.True(t, abilities[0].IsManaAbility)
	assert.Equal(t, []cardstate.Color{cardstate.ColorGreen}, abilities[0].Effect.AddManaColors)
}

func TestActivatedRegistry_NonbasicTapForMana(t *testing.T) {
	cat := catalog.NewInMemory([]catalog.Template{
		{ID: "vault", Name: "Tolarian Academy Knockoff", TypeLine: "Land", OracleText: "{T}: Add {U}{U}."},
	})
	reg := NewActivatedRegistry()
	instance := &cardstate.CardInstance{InstanceID: "v1", TemplateID: "vault"}
	state := &cardstate.GameState{}

	abilities := reg.Abilities(instance, state, cat)
	require.Len(t, abilities, 1)
	assert.Equal(t, []cardstate.Color{cardstate.ColorBlue, cardstate.ColorBlue}, abilities[0].Effect.AddManaColors)
}

func TestCanActivate_RequiresUntappedSource(t *testing.T) {
	a := Ability{Cost: Cost{RequiresTap: true}}
	source := &cardstate.CardInstance{Tapped: true}
	state := &cardstate.GameState{Players: map[cardstate.Role]*cardstate.PlayerState{}}
	cat := catalog.NewInMemory(nil)
	assert.False(t, a.CanActivate(state, cat, source, cardstate.RoleP1))
}

func TestGenericResolve_CreatureEntersBattlefield(t *testing.T) {
	cat := catalog.NewInMemory([]catalog.Template{
		{ID: "bear", TypeLine: "Creature - Bear"},
	})
	state := &cardstate.GameState{Players: map[cardstate.Role]*cardstate.PlayerState{
		cardstate.RoleP1: {},
	}}
	so := &cardstate.StackObject{
		Controller: cardstate.RoleP1,
		Card:       &cardstate.CardInstance{InstanceID: "c1", TemplateID: "bear"},
	}

	require.NoError(t, GenericResolve(state, so, cat))
	require.Len(t, state.Players[cardstate.RoleP1].Battlefield, 1)
	assert.True(t, state.Players[cardstate.RoleP1].Battlefield[0].SummoningSick)
}

func TestGenericResolve_DamageSpell(t *testing.T) {
	cat := catalog.NewInMemory([]catalog.Template{
		{ID: "bolt", TypeLine: "Instant", OracleText: "Deals 3 damage to any target."},
	})
	state := &cardstate.GameState{Players: map[cardstate.Role]*cardstate.PlayerState{
		cardstate.RoleP1: {Life: 20},
		cardstate.RoleP2: {Life: 20},
	}}
	so := &cardstate.StackObject{
		Controller: cardstate.RoleP1,
		Card:       &cardstate.CardInstance{InstanceID: "s1", TemplateID: "bolt"},
		Targets:    []string{string(cardstate.RoleP2)},
	}

	require.NoError(t, GenericResolve(state, so, cat))
	assert.Equal(t, 17, state.Players[cardstate.RoleP2].Life)
}
