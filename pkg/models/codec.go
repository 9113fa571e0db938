package models

import (
	"encoding/json"
	"fmt"
)

// envelope is the persisted wire form of an event: a kind discriminator
// plus the event's own JSON payload.
type envelope struct {
	Kind    EventKind       `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalEvent encodes an event into its tagged envelope form.
func MarshalEvent(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", e.Kind(), err)
	}
	return json.Marshal(envelope{Kind: e.Kind(), Payload: payload})
}

// UnmarshalEvent decodes a tagged envelope back into a concrete event.
// Unknown kinds are an error: the union is closed.
func UnmarshalEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	var e Event
	switch env.Kind {
	case KindDelegateAction:
		var a DelegateAction
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return nil, fmt.Errorf("decode delegate action: %w", err)
		}
		e = a
	case KindFinishAction:
		var a FinishAction
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return nil, fmt.Errorf("decode finish action: %w", err)
		}
		e = a
	case KindDelegateObservation:
		var o DelegateObservation
		if err := json.Unmarshal(env.Payload, &o); err != nil {
			return nil, fmt.Errorf("decode delegate observation: %w", err)
		}
		e = o
	case KindErrorObservation:
		var o ErrorObservation
		if err := json.Unmarshal(env.Payload, &o); err != nil {
			return nil, fmt.Errorf("decode error observation: %w", err)
		}
		e = o
	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Kind)
	}

	return e, nil
}
