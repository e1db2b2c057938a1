package multisig

import (
	"fmt"
	"strconv"

	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
)

// Algorithm is an alias for sigverify.Algorithm.
type Algorithm = sigverify.Algorithm

// Algorithm constants re-exported for convenience.
const (
	AlgorithmUnknown = sigverify.Unknown
	ECDSASecp256k1   = sigverify.ECDSASecp256k1
	Ed25519          = sigverify.Ed25519
	EdDSABabyJubjub  = sigverify.EdDSABabyJubjub
	StarkCurve       = sigverify.StarkCurve
)

// KeyID identifies a signing key registered with the key store.
type KeyID string

// ParticipantID identifies one committee member within a snapshot.
type ParticipantID string

// SessionID identifies a signing session. Ids are assigned monotonically
// starting at 1 and never reused.
type SessionID uint64

// String returns the decimal form of the id.
func (id SessionID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseSessionID parses a decimal session id.
func ParseSessionID(s string) (SessionID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse session id %q: %w", s, err)
	}
	return SessionID(v), nil
}

// State is the lifecycle state of a signing session.
type State uint8

// Session states. Completed and Expired are terminal.
const (
	StatePending State = iota
	StateCompleted
	StateExpired
)

// String returns a lower-case name for the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCompleted:
		return "completed"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateExpired
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if s > StateExpired {
		return nil, fmt.Errorf("cannot marshal state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*s = StatePending
	case "completed":
		*s = StateCompleted
	case "expired":
		*s = StateExpired
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}
