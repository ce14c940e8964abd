// Package action defines the tagged Action variant, its canonical JSON
// form, and the legalActions/describeAction generator — including the
// auto-pass reductions that keep the action set AI-friendly (§4.4).
package action

import (
	"encoding/json"
	"fmt"

	"sixthed-backend/internal/cardstate"
)

// Kind tags which variant an Action carries.
type Kind string

const (
	KindPlayLand           Kind = "PLAY_LAND"
	KindCastSpell          Kind = "CAST_SPELL"
	KindActivateAbility    Kind = "ACTIVATE_ABILITY"
	KindDeclareAttackers   Kind = "DECLARE_ATTACKERS"
	KindDeclareBlockers    Kind = "DECLARE_BLOCKERS"
	KindSacrificePermanent Kind = "SACRIFICE_PERMANENT"
	KindPassPriority       Kind = "PASS_PRIORITY"
	KindEndTurn            Kind = "END_TURN"
	KindDrawCard           Kind = "DRAW_CARD"
	KindUntap              Kind = "UNTAP"
)

// BlockAssignment pairs one blocker with the attacker it blocks.
type BlockAssignment struct {
	BlockerID  string `json:"blockerId"`
	AttackerID string `json:"attackerId"`
}

// Action is the tagged variant every reducer call consumes. Only the
// fields relevant to Kind are populated; the rest are zero values.
type Action struct {
	Kind     Kind        `json:"type"`
	PlayerID cardstate.Role `json:"playerId"`

	// PLAY_LAND, CAST_SPELL, ACTIVATE_ABILITY
	CardInstanceID string `json:"cardInstanceId,omitempty"`

	// CAST_SPELL, ACTIVATE_ABILITY
	Targets         []string        `json:"targets,omitempty"`
	XValue          *int            `json:"xValue,omitempty"`

	// ACTIVATE_ABILITY
	SourceID        string          `json:"sourceId,omitempty"`
	AbilityID       string          `json:"abilityId,omitempty"`
	ManaColorChoice *cardstate.Color `json:"manaColorChoice,omitempty"`

	// DECLARE_ATTACKERS
	Attackers []string `json:"attackers,omitempty"`

	// DECLARE_BLOCKERS
	Blocks []BlockAssignment `json:"blocks,omitempty"`

	// SACRIFICE_PERMANENT
	PermanentID string `json:"permanentId,omitempty"`
	Reason      string `json:"reason,omitempty"`

	// DRAW_CARD (engine-internal)
	Count int `json:"count,omitempty"`
}

// payloadField is one (name, value) pair of an action's payload, ordered
// deterministically per Kind to satisfy the "field order within payload
// is fixed by action type" rule of §6.
type payloadField struct {
	Name  string
	Value interface{}
}

func (a Action) payloadFields() []payloadField {
	switch a.Kind {
	case KindPlayLand:
		return []payloadField{{"cardInstanceId", a.CardInstanceID}}
	case KindCastSpell:
		fields := []payloadField{{"cardInstanceId", a.CardInstanceID}, {"targets", orEmpty(a.Targets)}}
		if a.XValue != nil {
			fields = append(fields, payloadField{"xValue", *a.XValue})
		}
		return fields
	case KindActivateAbility:
		fields := []payloadField{
			{"sourceId", a.SourceID},
			{"abilityId", a.AbilityID},
			{"targets", orEmpty(a.Targets)},
		}
		if a.ManaColorChoice != nil {
			fields = append(fields, payloadField{"manaColorChoice", *a.ManaColorChoice})
		}
		if a.XValue != nil {
			fields = append(fields, payloadField{"xValue", *a.XValue})
		}
		return fields
	case KindDeclareAttackers:
		return []payloadField{{"attackers", orEmpty(a.Attackers)}}
	case KindDeclareBlockers:
		return []payloadField{{"blocks", a.Blocks}}
	case KindSacrificePermanent:
		return []payloadField{{"permanentId", a.PermanentID}, {"reason", a.Reason}}
	case KindDrawCard:
		return []payloadField{{"count", a.Count}}
	default: // PASS_PRIORITY, END_TURN, UNTAP carry no payload
		return nil
	}
}

// DecodeCanonicalJSON parses an action's canonical JSON form back into
// an Action. It is the inverse of CanonicalJSON, used by the replay
// helper (§C) to drive the engine back over a stored ActionHistory;
// Action's own json tags already name every payload field, so decoding
// just has to flatten the payload object back onto the envelope before
// handing it to the standard unmarshaler.
func DecodeCanonicalJSON(s string) (Action, error) {
	var envelope struct {
		Type     Kind                       `json:"type"`
		PlayerID cardstate.Role             `json:"playerId"`
		Payload  map[string]json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal([]byte(s), &envelope); err != nil {
		return Action{}, fmt.Errorf("action: decode envelope: %w", err)
	}

	flat := map[string]json.RawMessage{}
	for k, v := range envelope.Payload {
		flat[k] = v
	}
	typeJSON, _ := json.Marshal(envelope.Type)
	playerJSON, _ := json.Marshal(envelope.PlayerID)
	flat["type"] = typeJSON
	flat["playerId"] = playerJSON

	merged, err := json.Marshal(flat)
	if err != nil {
		return Action{}, fmt.Errorf("action: remarshal flattened payload: %w", err)
	}

	var a Action
	if err := json.Unmarshal(merged, &a); err != nil {
		return Action{}, fmt.Errorf("action: decode flattened action: %w", err)
	}
	return a, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// CanonicalJSON renders a's canonical JSON form: {type, playerId,
// payload}, with payload fields ordered per action kind.
func (a Action) CanonicalJSON() (string, error) {
	payload := make(map[string]interface{})
	var order []string
	for _, f := range a.payloadFields() {
		payload[f.Name] = f.Value
		order = append(order, f.Name)
	}
	// encoding/json sorts map keys alphabetically; to honor the fixed
	// field order we build the payload object by hand.
	buf := []byte("{")
	for i, name := range order {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, _ := json.Marshal(name)
		valJSON, err := json.Marshal(payload[name])
		if err != nil {
			return "", fmt.Errorf("action: marshal payload field %q: %w", name, err)
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')

	envelope := struct {
		Type     Kind            `json:"type"`
		PlayerID cardstate.Role  `json:"playerId"`
		Payload  json.RawMessage `json:"payload"`
	}{Type: a.Kind, PlayerID: a.PlayerID, Payload: buf}

	out, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("action: marshal envelope: %w", err)
	}
	return string(out), nil
}
