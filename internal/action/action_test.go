package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sixthed-backend/internal/cardstate"
)

func TestCanonicalJSON_PlayLand(t *testing.T) {
	a := Action{Kind: KindPlayLand, PlayerID: cardstate.RoleP1, CardInstanceID: "c1"}
	out, err := a.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"PLAY_LAND","playerId":"P1","payload":{"cardInstanceId":"c1"}}`, out)
}

func TestCanonicalJSON_CastSpellWithXValue(t *testing.T) {
	x := 3
	a := Action{Kind: KindCastSpell, PlayerID: cardstate.RoleP2, CardInstanceID: "s1", Targets: []string{"t1"}, XValue: &x}
	out, err := a.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"CAST_SPELL","playerId":"P2","payload":{"cardInstanceId":"s1","targets":["t1"],"xValue":3}}`, out)
}

func TestCanonicalJSON_PassPriorityEmptyPayload(t *testing.T) {
	a := Action{Kind: KindPassPriority, PlayerID: cardstate.RoleP1}
	out, err := a.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"PASS_PRIORITY","playerId":"P1","payload":{}}`, out)
}
