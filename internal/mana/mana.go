// Package mana implements the cost-parsing and payment algebra the
// reducer uses to decide whether a spell or ability can be cast, and to
// deterministically tap it away (§4.2).
package mana

import (
	"strconv"
	"strings"

	"sixthed-backend/internal/cardstate"
)

// XMaxCap bounds maxAffordableX so the action generator never has to
// enumerate an unbounded number of X choices.
const XMaxCap = 15

// ParseManaCost scans a `{…}`-token oracle cost string into a ManaCost.
// Unknown symbols (hybrid, phyrexian, snow — anything this table doesn't
// know) are ignored rather than rejected, matching the shallow-parser
// posture the rest of the engine takes toward oracle text (§4.2, §4.3).
func ParseManaCost(raw string) cardstate.ManaCost {
	var cost cardstate.ManaCost
	for _, tok := range tokens(raw) {
		switch tok {
		case "W":
			cost.W++
		case "U":
			cost.U++
		case "B":
			cost.B++
		case "R":
			cost.R++
		case "G":
			cost.G++
		case "C":
			cost.Colorless++
		case "X":
			cost.XCount++
		default:
			if n, err := strconv.Atoi(tok); err == nil && n >= 0 {
				cost.Generic += n
			}
			// anything else (hybrid symbols, phyrexian mana, snow "S") is
			// silently ignored per the shallow-parser contract.
		}
	}
	return cost
}

// tokens splits "{2}{R}{B}" into ["2","R","B"].
func tokens(raw string) []string {
	var out []string
	var cur strings.Builder
	inside := false
	for _, r := range raw {
		switch r {
		case '{':
			inside = true
			cur.Reset()
		case '}':
			if inside {
				out = append(out, strings.ToUpper(cur.String()))
			}
			inside = false
		default:
			if inside {
				cur.WriteRune(r)
			}
		}
	}
	return out
}

// CanPay reports whether pool covers cost at the given xValue: every
// colored requirement must be met by the matching color, and the
// remaining pool must cover cost.Generic + cost.XCount*xValue, drawn from
// whatever colors are left (§4.2).
func CanPay(pool cardstate.ManaPool, cost cardstate.ManaCost, xValue int) bool {
	if cost.XCount > 0 && xValue < 0 {
		return false
	}
	residual := pool
	for _, c := range cardstate.AllColors {
		need := cost.ColoredRequirement(c)
		if residual.Get(c) < need {
			return false
		}
		residual = residual.Add(c, -need)
	}
	if residual.Get(cardstate.ColorColorless) < cost.Colorless {
		return false
	}
	residual = residual.Add(cardstate.ColorColorless, -cost.Colorless)

	genericNeed := cost.Generic + cost.XCount*xValue
	return residual.Total() >= genericNeed
}

// MaxAffordableX computes the largest xValue the pool can afford after
// paying the fixed (non-X) portion of cost, capped at XMaxCap.
func MaxAffordableX(pool cardstate.ManaPool, cost cardstate.ManaCost) int {
	if cost.XCount == 0 {
		return 0
	}
	residual := pool
	for _, c := range cardstate.AllColors {
		residual = residual.Add(c, -cost.ColoredRequirement(c))
	}
	residual = residual.Add(cardstate.ColorColorless, -cost.Colorless)

	free := residual.Total() - cost.Generic
	if free <= 0 {
		return 0
	}
	x := free / cost.XCount
	if x > XMaxCap {
		x = XMaxCap
	}
	return x
}

// Pay deducts cost (at xValue) from pool and returns the residual pool.
// Colored requirements are paid first from their exact color; the generic
// and X portion is then paid greedily in the fixed order colorless → W →
// U → B → R → G (§4.2). Pay assumes CanPay already returned true; callers
// that skip that check may get a pool with negative counts.
func Pay(pool cardstate.ManaPool, cost cardstate.ManaCost, xValue int) cardstate.ManaPool {
	residual := pool
	for _, c := range cardstate.AllColors {
		residual = residual.Add(c, -cost.ColoredRequirement(c))
	}
	residual = residual.Add(cardstate.ColorColorless, -cost.Colorless)

	genericNeed := cost.Generic + cost.XCount*xValue
	for _, c := range cardstate.GenericPaymentOrder {
		if genericNeed <= 0 {
			break
		}
		have := residual.Get(c)
		take := have
		if take > genericNeed {
			take = genericNeed
		}
		if take <= 0 {
			continue
		}
		residual = residual.Add(c, -take)
		genericNeed -= take
	}
	return residual
}

// AddMana returns a new pool with n added to color c.
func AddMana(pool cardstate.ManaPool, c cardstate.Color, n int) cardstate.ManaPool {
	return pool.Add(c, n)
}
