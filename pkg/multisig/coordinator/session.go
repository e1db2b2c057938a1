package coordinator

import (
	"maps"
	"slices"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
)

// session is the stored record of one signing round. The snapshot is a value
// copy taken at creation and never re-read from the key store.
type session struct {
	id          multisig.SessionID
	keyID       multisig.KeyID
	chain       string
	message     []byte
	snapshot    multisig.Snapshot
	threshold   multisig.Threshold
	quorum      uint64
	verifier    sigverify.Verifier
	signatures  map[multisig.ParticipantID][]byte
	weight      uint64
	state       multisig.State
	createdAt   uint64
	expiresAt   uint64
	completedAt uint64
}

// expiredAt is the lazy expiry predicate shared by every entry point.
func (s *session) expiredAt(height uint64) bool {
	return s.state == multisig.StatePending && height >= s.expiresAt
}

// stateAt is the state an observer sees at height.
func (s *session) stateAt(height uint64) multisig.State {
	if s.expiredAt(height) {
		return multisig.StateExpired
	}
	return s.state
}

// signers returns the ids with a recorded signature, sorted.
func (s *session) signers() []multisig.ParticipantID {
	return slices.Sorted(maps.Keys(s.signatures))
}

func (s *session) view(state multisig.State) SessionView {
	sigs := make(map[multisig.ParticipantID][]byte, len(s.signatures))
	for id, sig := range s.signatures {
		sigs[id] = slices.Clone(sig)
	}
	return SessionView{
		ID:          s.id,
		KeyID:       s.keyID,
		Chain:       s.chain,
		State:       state,
		Signatures:  sigs,
		Snapshot:    s.snapshot,
		Message:     slices.Clone(s.message),
		CreatedAt:   s.createdAt,
		ExpiresAt:   s.expiresAt,
		CompletedAt: s.completedAt,
		Threshold:   s.threshold,
		Quorum:      s.quorum,
		Weight:      s.weight,
	}
}

// SessionView is a read-only copy of a session. Mutating it does not affect
// the coordinator.
type SessionView struct {
	ID    multisig.SessionID `json:"id"`
	KeyID multisig.KeyID     `json:"key_id"`
	Chain string             `json:"chain,omitempty"`
	State multisig.State     `json:"state"`

	// Signatures maps each signer to its accepted signature.
	Signatures map[multisig.ParticipantID][]byte `json:"signatures"`
	Snapshot   multisig.Snapshot                 `json:"snapshot"`
	Message    []byte                            `json:"message"`
	CreatedAt  uint64                            `json:"created_at"`
	ExpiresAt  uint64                            `json:"expires_at"`

	// CompletedAt is the completion height, zero unless State is Completed.
	CompletedAt uint64             `json:"completed_at,omitempty"`
	Threshold   multisig.Threshold `json:"threshold"`

	// Quorum is the weight needed to complete and Weight the summed weight
	// of the signers so far.
	Quorum uint64 `json:"quorum"`
	Weight uint64 `json:"weight"`
}
