package events

import (
	"encoding/json"
	"fmt"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
)

// Envelope is the wire form of an event.
type Envelope struct {
	Kind      Kind               `json:"kind"`
	SessionID multisig.SessionID `json:"session_id"`
	Payload   json.RawMessage    `json:"payload"`
}

// Encode returns the JSON envelope of e.
func Encode(e Event) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("encode event: nil event")
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Kind(), err)
	}
	return json.Marshal(Envelope{Kind: e.Kind(), SessionID: e.Session(), Payload: payload})
}

// Decode parses a JSON envelope produced by Encode.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return DecodePayload(env.Kind, env.Payload)
}

// DecodePayload parses the payload of an event of the given kind.
func DecodePayload(kind Kind, payload []byte) (Event, error) {
	var (
		e   Event
		err error
	)
	switch kind {
	case KindSigningStarted:
		var v SigningStarted
		err = json.Unmarshal(payload, &v)
		e = v
	case KindSignatureSubmitted:
		var v SignatureSubmitted
		err = json.Unmarshal(payload, &v)
		e = v
	case KindSigningCompleted:
		var v SigningCompleted
		err = json.Unmarshal(payload, &v)
		e = v
	default:
		return nil, fmt.Errorf("decode event: unknown kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return e, nil
}
