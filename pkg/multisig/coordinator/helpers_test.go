package coordinator_test

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/coordinator"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/events"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/keystore"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/logging"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/testsigner"
)

const testKey multisig.KeyID = "key-1"

type fixture struct {
	t       *testing.T
	ctx     context.Context
	clock   *coordinator.ManualClock
	store   *keystore.Memory
	log     *events.Log
	sink    *flakySink
	coord   *coordinator.Coordinator
	signers map[multisig.ParticipantID]*testsigner.Signer
	msg     []byte
}

// participantID names the i-th committee member "a", "b", ...
func participantID(i int) multisig.ParticipantID {
	return multisig.ParticipantID(rune('a' + i))
}

// digest hashes s into a 32-byte message every algorithm can sign.
func digest(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	sum[0] &= 0x07
	return sum[:]
}

// newFixture registers an ECDSA committee with the given weights as the
// active key and returns a coordinator at height 100.
func newFixture(t *testing.T, opts *coordinator.Options, weights ...uint64) *fixture {
	t.Helper()
	return newFixtureWith(t, sigverify.ECDSASecp256k1, multisig.Threshold{}, opts, weights...)
}

func newFixtureWith(t *testing.T, alg sigverify.Algorithm, threshold multisig.Threshold, opts *coordinator.Options, weights ...uint64) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		t:       t,
		ctx:     ctx,
		clock:   coordinator.NewManualClock(100),
		store:   keystore.NewMemory(),
		log:     events.NewLog(),
		signers: make(map[multisig.ParticipantID]*testsigner.Signer),
		msg:     digest("withdraw 10 to chain b"),
	}
	f.sink = &flakySink{next: f.log}

	members := make([]multisig.Participant, 0, len(weights))
	for i, w := range weights {
		s, err := testsigner.New(alg, rand.Reader)
		require.NoError(t, err)
		id := participantID(i)
		f.signers[id] = s
		members = append(members, multisig.Participant{ID: id, PublicKey: s.PublicKey(), Weight: w})
	}
	snap, err := multisig.NewSnapshot(&multisig.SnapshotParams{
		KeyID:        testKey,
		Algorithm:    alg,
		Height:       90,
		Threshold:    threshold,
		Participants: members,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.Put(ctx, snap))
	require.NoError(t, f.store.Activate(ctx, testKey))

	if opts == nil {
		opts = &coordinator.Options{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	f.coord, err = coordinator.New(f.store, f.sink, f.clock, opts)
	require.NoError(t, err)
	return f
}

func (f *fixture) start() multisig.SessionID {
	f.t.Helper()
	id, err := f.coord.StartSigningSession(f.ctx, f.msg)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) sign(id multisig.ParticipantID) []byte {
	f.t.Helper()
	s, ok := f.signers[id]
	require.True(f.t, ok, "no signer %s", id)
	sig, err := s.Sign(f.msg)
	require.NoError(f.t, err)
	return sig
}

func (f *fixture) submit(session multisig.SessionID, id multisig.ParticipantID) error {
	f.t.Helper()
	return f.coord.SubmitSignature(f.ctx, session, id, f.sign(id))
}

func (f *fixture) view(session multisig.SessionID) coordinator.SessionView {
	f.t.Helper()
	v, err := f.coord.GetSigningSession(f.ctx, session)
	require.NoError(f.t, err)
	return v
}

var errSinkDown = errors.New("sink unavailable")

// flakySink forwards to next unless failing is set. With lossyReply set it
// forwards and then fails, like a write whose acknowledgement was lost.
type flakySink struct {
	next       events.Sink
	failing    atomic.Bool
	lossyReply atomic.Bool
	calls      atomic.Int64
}

func (s *flakySink) Append(ctx context.Context, batch ...events.Event) error {
	s.calls.Add(1)
	if s.failing.Load() {
		return fmt.Errorf("append %d: %w", len(batch), errSinkDown)
	}
	if err := s.next.Append(ctx, batch...); err != nil {
		return err
	}
	if s.lossyReply.Load() {
		return fmt.Errorf("append %d: reply lost: %w", len(batch), errSinkDown)
	}
	return nil
}

// acceptAll verifies every signature. It lets property tests skip real
// signing.
var acceptAll = sigverify.VerifierFunc(func(sigverify.Algorithm, []byte, []byte, []byte) bool { return true })
