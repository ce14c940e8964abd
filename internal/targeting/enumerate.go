package targeting

import (
	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
)

// CandidatesForRequirement lists every Candidate in state that could
// currently satisfy req, ignoring the restrictions of any other slot in
// the same spell's target set.
func CandidatesForRequirement(state *cardstate.GameState, req TargetRequirement) []Candidate {
	var out []Candidate
	if req.TargetType == TargetPlayer || req.TargetType == TargetAny {
		out = append(out, Candidate{IsPlayer: true, PlayerID: cardstate.RoleP1})
		out = append(out, Candidate{IsPlayer: true, PlayerID: cardstate.RoleP2})
	}
	switch req.TargetType {
	case TargetSpell, TargetCreatureSpell, TargetNoncreatureSpell:
		for _, so := range state.Stack {
			if so.Card != nil {
				out = append(out, Candidate{CardID: so.Card.InstanceID})
			}
		}
	case TargetGraveyardCard:
		for _, role := range []cardstate.Role{cardstate.RoleP1, cardstate.RoleP2} {
			ps := state.Players[role]
			if ps == nil {
				continue
			}
			for _, c := range ps.Graveyard {
				out = append(out, Candidate{CardID: c.InstanceID})
			}
		}
	case TargetPlayer:
		// already appended above
	default:
		for _, role := range []cardstate.Role{cardstate.RoleP1, cardstate.RoleP2} {
			ps := state.Players[role]
			if ps == nil {
				continue
			}
			for _, c := range ps.Battlefield {
				out = append(out, Candidate{CardID: c.InstanceID})
			}
		}
	}
	return out
}

// EnumerateLegalTargetCombinations produces the Cartesian product of
// per-slot legal candidate ids across reqs, filtered to exclude
// combinations that repeat an id within the same spell's target set
// unless the slot explicitly allows repeats (§4.3).
func EnumerateLegalTargetCombinations(state *cardstate.GameState, cat catalog.Adapter, reqs []TargetRequirement, caster cardstate.Role, source *cardstate.CardInstance) [][]Candidate {
	if len(reqs) == 0 {
		return [][]Candidate{{}}
	}

	var perSlot [][]Candidate
	for _, req := range reqs {
		var legal []Candidate
		for _, cand := range CandidatesForRequirement(state, req) {
			if Legal(state, cat, req, cand, caster, source) {
				legal = append(legal, cand)
			}
		}
		if len(legal) == 0 {
			return nil
		}
		perSlot = append(perSlot, legal)
	}

	var combos [][]Candidate
	var walk func(depth int, current []Candidate)
	walk = func(depth int, current []Candidate) {
		if depth == len(perSlot) {
			combos = append(combos, append([]Candidate(nil), current...))
			return
		}
		for _, cand := range perSlot[depth] {
			if !reqs[depth].AllowRepeats && containsCandidate(current, cand) {
				continue
			}
			walk(depth+1, append(current, cand))
		}
	}
	walk(0, nil)
	return combos
}

func containsCandidate(set []Candidate, c Candidate) bool {
	for _, existing := range set {
		if existing.IsPlayer && c.IsPlayer && existing.PlayerID == c.PlayerID {
			return true
		}
		if !existing.IsPlayer && !c.IsPlayer && existing.CardID == c.CardID {
			return true
		}
	}
	return false
}

// HasAnyLegalCombination reports whether reqs has at least one fully
// legal target combination, without materializing all of them — used by
// the action generator's instant-speed-option probe (R1).
func HasAnyLegalCombination(state *cardstate.GameState, cat catalog.Adapter, reqs []TargetRequirement, caster cardstate.Role, source *cardstate.CardInstance) bool {
	return len(EnumerateLegalTargetCombinations(state, cat, reqs, caster, source)) > 0
}

// StillLegal reports whether every target originally chosen for a stack
// object is still a legal target under its requirements; a false result
// means the spell fizzles (§4.3).
func StillLegal(state *cardstate.GameState, cat catalog.Adapter, reqs []TargetRequirement, targetIDs []string, caster cardstate.Role, source *cardstate.CardInstance) bool {
	if len(reqs) == 0 {
		return true
	}
	if len(targetIDs) != len(reqs) {
		return false
	}
	for i, req := range reqs {
		cand := candidateFromID(state, targetIDs[i])
		if !Legal(state, cat, req, cand, caster, source) {
			return false
		}
	}
	return true
}

func candidateFromID(state *cardstate.GameState, id string) Candidate {
	if id == string(cardstate.RoleP1) || id == string(cardstate.RoleP2) {
		return Candidate{IsPlayer: true, PlayerID: cardstate.Role(id)}
	}
	return Candidate{CardID: id}
}
