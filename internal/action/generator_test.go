package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sixthed-backend/internal/ability"
	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
)

func newGenerator() (*Generator, catalog.Adapter) {
	cat := catalog.NewInMemory([]catalog.Template{
		{ID: "forest", Name: "Forest", TypeLine: "Basic Land - Forest"},
		{ID: "bear", Name: "Grizzly Bears", TypeLine: "Creature - Bear", ManaCostText: "{1}{G}", Power: intPtr(2), Toughness: intPtr(2)},
		{ID: "bolt", Name: "Shock", TypeLine: "Instant", ManaCostText: "{R}", OracleText: "Deals 2 damage to any target."},
	})
	reg := ability.NewActivatedRegistry()
	return NewGenerator(cat, reg), cat
}

func intPtr(n int) *int { return &n }

func TestLegalActions_BeginningPhaseOnlyPass(t *testing.T) {
	gen, _ := newGenerator()
	state := &cardstate.GameState{
		Players:        map[cardstate.Role]*cardstate.PlayerState{cardstate.RoleP1: {}, cardstate.RoleP2: {}},
		ActivePlayer:   cardstate.RoleP1,
		PriorityPlayer: cardstate.RoleP1,
		Phase:          cardstate.PhaseBeginning,
	}
	actions := gen.LegalActions(state, cardstate.RoleP1)
	require.Len(t, actions, 1)
	assert.Equal(t, KindPassPriority, actions[0].Kind)
}

func TestLegalActions_PriorityGateBlocksNonPriorityPlayer(t *testing.T) {
	gen, _ := newGenerator()
	state := &cardstate.GameState{
		Players:        map[cardstate.Role]*cardstate.PlayerState{cardstate.RoleP1: {}, cardstate.RoleP2: {}},
		ActivePlayer:   cardstate.RoleP1,
		PriorityPlayer: cardstate.RoleP1,
		Phase:          cardstate.PhaseMain1,
	}
	actions := gen.LegalActions(state, cardstate.RoleP2)
	assert.Nil(t, actions)
}

func TestLegalActions_PlayLandOncePerTurn(t *testing.T) {
	gen, _ := newGenerator()
	p1 := &cardstate.PlayerState{
		Hand: []*cardstate.CardInstance{{InstanceID: "f1", TemplateID: "forest", Zone: cardstate.ZoneHand}},
	}
	state := &cardstate.GameState{
		Players:        map[cardstate.Role]*cardstate.PlayerState{cardstate.RoleP1: p1, cardstate.RoleP2: {}},
		ActivePlayer:   cardstate.RoleP1,
		PriorityPlayer: cardstate.RoleP1,
		Phase:          cardstate.PhaseMain1,
	}
	actions := gen.LegalActions(state, cardstate.RoleP1)
	var sawPlayLand bool
	for _, a := range actions {
		if a.Kind == KindPlayLand {
			sawPlayLand = true
		}
	}
	assert.True(t, sawPlayLand)

	p1.LandsPlayedThisTurn = 1
	actions = gen.LegalActions(state, cardstate.RoleP1)
	for _, a := range actions {
		assert.NotEqual(t, KindPlayLand, a.Kind)
	}
}

func TestLegalActions_AutoPassDuringOpponentMain(t *testing.T) {
	gen, _ := newGenerator()
	state := &cardstate.GameState{
		Players:        map[cardstate.Role]*cardstate.PlayerState{cardstate.RoleP1: {}, cardstate.RoleP2: {}},
		ActivePlayer:   cardstate.RoleP1,
		PriorityPlayer: cardstate.RoleP2,
		Phase:          cardstate.PhaseMain1,
	}
	actions := gen.LegalActions(state, cardstate.RoleP2)
	require.Len(t, actions, 1)
	assert.Equal(t, KindPassPriority, actions[0].Kind)
}

func TestLegalActions_DeclareBlockersIgnoresPriority(t *testing.T) {
	gen, _ := newGenerator()
	p2 := &cardstate.PlayerState{}
	state := &cardstate.GameState{
		Players:        map[cardstate.Role]*cardstate.PlayerState{cardstate.RoleP1: {}, cardstate.RoleP2: p2},
		ActivePlayer:   cardstate.RoleP1,
		PriorityPlayer: cardstate.RoleP1,
		Phase:          cardstate.PhaseCombat,
		Step:           cardstate.StepDeclareBlockers,
	}
	actions := gen.LegalActions(state, cardstate.RoleP2)
	require.Len(t, actions, 1)
	assert.Equal(t, KindDeclareBlockers, actions[0].Kind)
	assert.Nil(t, actions[0].Blocks)
}

func TestCanBlock_ProtectionFromBlockerColor(t *testing.T) {
	cat := catalog.NewInMemory([]catalog.Template{
		{ID: "paladin", Name: "Verdant Paladin", TypeLine: "Creature - Knight", Power: intPtr(2), Toughness: intPtr(2), Colors: []string{"W"}, Keywords: []string{"protection from green"}},
		{ID: "elf", Name: "Elvish Warrior", TypeLine: "Creature - Elf", Power: intPtr(2), Toughness: intPtr(3), Colors: []string{"G"}},
		{ID: "soldier", Name: "Tower Soldier", TypeLine: "Creature - Soldier", Power: intPtr(1), Toughness: intPtr(3), Colors: []string{"W"}},
	})
	gen := NewGenerator(cat, ability.NewActivatedRegistry())

	atk := &cardstate.CardInstance{InstanceID: "a1", TemplateID: "paladin", Controller: cardstate.RoleP1, Attacking: true}
	elf := &cardstate.CardInstance{InstanceID: "b1", TemplateID: "elf", Controller: cardstate.RoleP2}
	soldier := &cardstate.CardInstance{InstanceID: "b2", TemplateID: "soldier", Controller: cardstate.RoleP2}
	state := &cardstate.GameState{Players: map[cardstate.Role]*cardstate.PlayerState{
		cardstate.RoleP1: {Battlefield: []*cardstate.CardInstance{atk}},
		cardstate.RoleP2: {Battlefield: []*cardstate.CardInstance{elf, soldier}},
	}}

	assert.False(t, gen.CanBlock(state, elf, atk), "a pro-green attacker can't be blocked by a green creature")
	assert.True(t, gen.CanBlock(state, soldier, atk))
}

func TestDescribeAction_PassPriority(t *testing.T) {
	gen, _ := newGenerator()
	state := &cardstate.GameState{}
	desc := gen.DescribeAction(Action{Kind: KindPassPriority, PlayerID: cardstate.RoleP1}, state)
	assert.Equal(t, "P1 passes priority", desc)
}
