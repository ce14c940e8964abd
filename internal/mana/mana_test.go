package mana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sixthed-backend/internal/cardstate"
)

func TestParseManaCost(t *testing.T) {
	cost := ParseManaCost("{2}{R}{B}")
	assert.Equal(t, 2, cost.Generic)
	assert.Equal(t, 1, cost.R)
	assert.Equal(t, 1, cost.B)
	assert.Equal(t, 0, cost.XCount)
}

func TestParseManaCost_X(t *testing.T) {
	cost := ParseManaCost("{X}{X}{U}")
	assert.Equal(t, 2, cost.XCount)
	assert.Equal(t, 1, cost.U)
}

func TestParseManaCost_UnknownSymbolIgnored(t *testing.T) {
	cost := ParseManaCost("{2/W}{S}{1}")
	assert.Equal(t, 1, cost.Generic)
}

func TestCanPay_ColoredRequirement(t *testing.T) {
	pool := cardstate.ManaPool{R: 1, C: 2}
	cost := cardstate.ManaCost{R: 1, Generic: 2}
	assert.True(t, CanPay(pool, cost, 0))

	short := cardstate.ManaPool{R: 0, C: 3}
	assert.False(t, CanPay(short, cost, 0))
}

func TestCanPay_GenericDrawsFromAnyColor(t *testing.T) {
	pool := cardstate.ManaPool{W: 1, U: 1, G: 1}
	cost := cardstate.ManaCost{Generic: 3}
	require.True(t, CanPay(pool, cost, 0))
}

func TestCanPay_XRequiresExtra(t *testing.T) {
	pool := cardstate.ManaPool{C: 3}
	cost := cardstate.ManaCost{XCount: 1}
	assert.True(t, CanPay(pool, cost, 3))
	assert.False(t, CanPay(pool, cost, 4))
}

func TestMaxAffordableX(t *testing.T) {
	pool := cardstate.ManaPool{R: 1, C: 10}
	cost := cardstate.ManaCost{R: 1, XCount: 2}
	assert.Equal(t, 5, MaxAffordableX(pool, cost))
}

func TestMaxAffordableX_CappedAtXMax(t *testing.T) {
	pool := cardstate.ManaPool{C: 100}
	cost := cardstate.ManaCost{XCount: 1}
	assert.Equal(t, XMaxCap, MaxAffordableX(pool, cost))
}

func TestMaxAffordableX_NoXSymbol(t *testing.T) {
	pool := cardstate.ManaPool{C: 10}
	cost := cardstate.ManaCost{Generic: 2}
	assert.Equal(t, 0, MaxAffordableX(pool, cost))
}

func TestPay_ColoredFirstThenGenericOrder(t *testing.T) {
	pool := cardstate.ManaPool{W: 1, U: 1, R: 1, C: 1}
	cost := cardstate.ManaCost{R: 1, Generic: 2}

	residual := Pay(pool, cost, 0)

	// R paid from the colored requirement; generic drains colorless
	// first, then W, leaving U untouched.
	assert.Equal(t, 0, residual.R)
	assert.Equal(t, 0, residual.C)
	assert.Equal(t, 0, residual.W)
	assert.Equal(t, 1, residual.U)
}

func TestPay_ConservesTotalMinusCost(t *testing.T) {
	pool := cardstate.ManaPool{W: 2, U: 2, B: 2, R: 2, G: 2, C: 2}
	cost := cardstate.ManaCost{W: 1, Generic: 3, XCount: 1}
	before := pool.Total()

	residual := Pay(pool, cost, 2)

	paid := cost.Generic + cost.XCount*2 + cost.W
	assert.Equal(t, before-paid, residual.Total())
}

func TestAddMana(t *testing.T) {
	pool := AddMana(cardstate.ManaPool{}, cardstate.ColorGreen, 3)
	assert.Equal(t, 3, pool.G)
}
