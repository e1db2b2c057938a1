package multisig

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"

	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
)

// Participant is one committee member: an identity, the public key it signs
// with and its voting weight.
type Participant struct {
	ID        ParticipantID `json:"id"`
	PublicKey []byte        `json:"public_key"`
	Weight    uint64        `json:"weight"`
}

func (p Participant) clone() Participant {
	p.PublicKey = append([]byte(nil), p.PublicKey...)
	return p
}

// SnapshotParams describes a snapshot to build with NewSnapshot.
type SnapshotParams struct {
	KeyID     KeyID
	Algorithm Algorithm
	// Height is the logical height at which the committee was captured.
	Height uint64
	// Threshold optionally overrides the coordinator's default threshold for
	// sessions bound to this snapshot. Leave zero to use the default.
	Threshold    Threshold
	Participants []Participant
}

// Snapshot is an immutable, point-in-time weighted committee bound to a key.
// The zero value is an empty snapshot with no participants.
type Snapshot struct {
	keyID        KeyID
	alg          Algorithm
	height       uint64
	threshold    Threshold
	participants map[ParticipantID]Participant
	totalWeight  uint64
}

// NewSnapshot validates params and returns the snapshot. It rejects an empty
// committee, empty or duplicate ids, zero weights, public keys that do not
// parse for the algorithm and a total weight that overflows 64 bits.
func NewSnapshot(params *SnapshotParams) (Snapshot, error) {
	if params == nil {
		return Snapshot{}, fmt.Errorf("%w: nil params", ErrInvalidSnapshot)
	}
	if params.KeyID == "" {
		return Snapshot{}, fmt.Errorf("%w: empty key id", ErrInvalidSnapshot)
	}
	if !params.Algorithm.Valid() {
		return Snapshot{}, fmt.Errorf("%w: unsupported algorithm %s", ErrInvalidSnapshot, params.Algorithm)
	}
	if !params.Threshold.IsZero() {
		if err := params.Threshold.Validate(); err != nil {
			return Snapshot{}, err
		}
	}
	if len(params.Participants) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no participants", ErrInvalidSnapshot)
	}

	members := make(map[ParticipantID]Participant, len(params.Participants))
	var total uint64
	for _, p := range params.Participants {
		if p.ID == "" {
			return Snapshot{}, fmt.Errorf("%w: empty participant id", ErrInvalidSnapshot)
		}
		if _, dup := members[p.ID]; dup {
			return Snapshot{}, fmt.Errorf("%w: duplicate participant %s", ErrInvalidSnapshot, p.ID)
		}
		if p.Weight == 0 {
			return Snapshot{}, fmt.Errorf("%w: participant %s has zero weight", ErrInvalidSnapshot, p.ID)
		}
		if err := sigverify.ValidatePublicKey(params.Algorithm, p.PublicKey); err != nil {
			return Snapshot{}, fmt.Errorf("%w: participant %s: %v", ErrInvalidSnapshot, p.ID, err)
		}
		var carry uint64
		total, carry = bits.Add64(total, p.Weight, 0)
		if carry != 0 {
			return Snapshot{}, fmt.Errorf("%w: total weight overflows", ErrInvalidSnapshot)
		}
		members[p.ID] = p.clone()
	}

	return Snapshot{
		keyID:        params.KeyID,
		alg:          params.Algorithm,
		height:       params.Height,
		threshold:    params.Threshold,
		participants: members,
		totalWeight:  total,
	}, nil
}

// KeyID returns the key the snapshot belongs to.
func (s Snapshot) KeyID() KeyID { return s.keyID }

// Algorithm returns the signature algorithm every participant key uses.
func (s Snapshot) Algorithm() Algorithm { return s.alg }

// Height returns the logical height at which the snapshot was captured.
func (s Snapshot) Height() uint64 { return s.height }

// Threshold returns the snapshot's threshold override, or the zero value.
func (s Snapshot) Threshold() Threshold { return s.threshold }

// TotalWeight returns the sum of all participant weights.
func (s Snapshot) TotalWeight() uint64 { return s.totalWeight }

// Len returns the number of participants.
func (s Snapshot) Len() int { return len(s.participants) }

// IsZero reports whether s is the empty zero value.
func (s Snapshot) IsZero() bool { return s.participants == nil }

// Participant returns a copy of the member with the given id.
func (s Snapshot) Participant(id ParticipantID) (Participant, bool) {
	p, ok := s.participants[id]
	if !ok {
		return Participant{}, false
	}
	return p.clone(), true
}

// Contains reports whether id is a member.
func (s Snapshot) Contains(id ParticipantID) bool {
	_, ok := s.participants[id]
	return ok
}

// Participants returns copies of all members ordered by id.
func (s Snapshot) Participants() []Participant {
	out := make([]Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PublicKeys returns a copy of the id to public key mapping.
func (s Snapshot) PublicKeys() map[ParticipantID][]byte {
	out := make(map[ParticipantID][]byte, len(s.participants))
	for id, p := range s.participants {
		out[id] = append([]byte(nil), p.PublicKey...)
	}
	return out
}

// WeightOf returns the summed weight of the listed members. Ids that are not
// members contribute nothing; duplicates are counted once.
func (s Snapshot) WeightOf(ids ...ParticipantID) uint64 {
	seen := make(map[ParticipantID]struct{}, len(ids))
	var w uint64
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		w += s.participants[id].Weight
	}
	return w
}

type snapshotJSON struct {
	KeyID        KeyID         `json:"key_id"`
	Algorithm    Algorithm     `json:"algorithm"`
	Height       uint64        `json:"height"`
	Threshold    *Threshold    `json:"threshold,omitempty"`
	TotalWeight  uint64        `json:"total_weight"`
	Participants []Participant `json:"participants"`
}

// MarshalJSON encodes the snapshot with participants ordered by id.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	enc := snapshotJSON{
		KeyID:        s.keyID,
		Algorithm:    s.alg,
		Height:       s.height,
		TotalWeight:  s.totalWeight,
		Participants: s.Participants(),
	}
	if !s.threshold.IsZero() {
		t := s.threshold
		enc.Threshold = &t
	}
	return json.Marshal(enc)
}

// UnmarshalJSON decodes and revalidates a snapshot.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var dec snapshotJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	params := &SnapshotParams{
		KeyID:        dec.KeyID,
		Algorithm:    dec.Algorithm,
		Height:       dec.Height,
		Participants: dec.Participants,
	}
	if dec.Threshold != nil {
		params.Threshold = *dec.Threshold
	}
	snap, err := NewSnapshot(params)
	if err != nil {
		return err
	}
	if dec.TotalWeight != 0 && dec.TotalWeight != snap.totalWeight {
		return fmt.Errorf("%w: total weight %d does not match participants (%d)", ErrInvalidSnapshot, dec.TotalWeight, snap.totalWeight)
	}
	*s = snap
	return nil
}
