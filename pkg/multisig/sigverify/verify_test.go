package sigverify_test

import (
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/testsigner"
)

// digest hashes s and clears the top bits so the value is also a valid
// StarkCurve message.
func digest(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	sum[0] &= 0x07
	return sum[:]
}

func newSigner(t *testing.T, alg sigverify.Algorithm) *testsigner.Signer {
	t.Helper()
	s, err := testsigner.New(alg, rand.Reader)
	require.NoError(t, err)
	return s
}

func TestVerifyRoundTrip(t *testing.T) {
	msg := digest("relay batch 42")
	for _, alg := range sigverify.Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			s := newSigner(t, alg)
			sig, err := s.Sign(msg)
			require.NoError(t, err)

			assert.True(t, sigverify.Verify(alg, s.PublicKey(), msg, sig))
			assert.True(t, sigverify.Default.Verify(alg, s.PublicKey(), msg, sig))
			assert.NoError(t, sigverify.ValidatePublicKey(alg, s.PublicKey()))
		})
	}
}

func TestVerifyRejectsWrongMessage(t *testing.T) {
	msg := digest("original")
	other := digest("tampered")
	for _, alg := range sigverify.Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			s := newSigner(t, alg)
			sig, err := s.Sign(msg)
			require.NoError(t, err)
			assert.False(t, sigverify.Verify(alg, s.PublicKey(), other, sig))
		})
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	msg := digest("payload")
	for _, alg := range sigverify.Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			signer := newSigner(t, alg)
			stranger := newSigner(t, alg)
			sig, err := signer.Sign(msg)
			require.NoError(t, err)
			assert.False(t, sigverify.Verify(alg, stranger.PublicKey(), msg, sig))
		})
	}
}

func TestVerifyMalformedInputNeverPanics(t *testing.T) {
	msg := digest("payload")
	inputs := [][]byte{nil, {}, {0x01}, make([]byte, 31), make([]byte, 32), make([]byte, 33), make([]byte, 64), make([]byte, 65), make([]byte, 200)}
	for _, alg := range append(sigverify.Algorithms(), sigverify.Unknown, sigverify.Algorithm(99)) {
		for _, pub := range inputs {
			for _, sig := range inputs {
				assert.NotPanics(t, func() {
					sigverify.Verify(alg, pub, msg, sig)
				})
			}
		}
	}
}

func TestVerifyRejectsWrongLengths(t *testing.T) {
	msg := digest("payload")
	for _, alg := range sigverify.Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			s := newSigner(t, alg)
			sig, err := s.Sign(msg)
			require.NoError(t, err)

			assert.False(t, sigverify.Verify(alg, nil, msg, sig))
			assert.False(t, sigverify.Verify(alg, s.PublicKey(), msg, nil))
			assert.False(t, sigverify.Verify(alg, s.PublicKey(), msg, sig[:len(sig)-1]))
			assert.False(t, sigverify.Verify(alg, s.PublicKey()[:len(s.PublicKey())-1], msg, sig))
			assert.False(t, sigverify.Verify(alg, s.PublicKey(), msg, append(sig, 0x00, 0x00)))
		})
	}
}

func TestVerifyAlgorithmMismatch(t *testing.T) {
	msg := digest("payload")
	s := newSigner(t, sigverify.Ed25519)
	sig, err := s.Sign(msg)
	require.NoError(t, err)

	assert.False(t, sigverify.Verify(sigverify.ECDSASecp256k1, s.PublicKey(), msg, sig))
	assert.False(t, sigverify.Verify(sigverify.EdDSABabyJubjub, s.PublicKey(), msg, sig))
}

func TestECDSARecoverableSignature(t *testing.T) {
	msg := digest("recoverable")
	s := newSigner(t, sigverify.ECDSASecp256k1)

	sig, err := s.SignRecoverable(msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.True(t, sigverify.Verify(sigverify.ECDSASecp256k1, s.PublicKey(), msg, sig))

	// Raw recovery ids are accepted alongside the 27/28 encoding.
	raw := append([]byte(nil), sig...)
	raw[64] -= 27
	assert.True(t, sigverify.Verify(sigverify.ECDSASecp256k1, s.PublicKey(), msg, raw))

	flipped := append([]byte(nil), sig...)
	flipped[64] ^= 1
	assert.False(t, sigverify.Verify(sigverify.ECDSASecp256k1, s.PublicKey(), msg, flipped))

	invalidV := append([]byte(nil), sig...)
	invalidV[64] = 5
	assert.False(t, sigverify.Verify(sigverify.ECDSASecp256k1, s.PublicKey(), msg, invalidV))
}

func TestECDSARequiresDigestSizedMessage(t *testing.T) {
	s := newSigner(t, sigverify.ECDSASecp256k1)
	sig, err := s.Sign(digest("x"))
	require.NoError(t, err)

	assert.False(t, sigverify.Verify(sigverify.ECDSASecp256k1, s.PublicKey(), []byte("short"), sig))
	_, err = s.Sign([]byte("short"))
	assert.Error(t, err)
}

func TestECDSARejectsHighS(t *testing.T) {
	msg := digest("malleable")
	s := newSigner(t, sigverify.ECDSASecp256k1)
	sig, err := s.Sign(msg)
	require.NoError(t, err)

	// s' = N - s is the malleated twin of a valid low-S signature.
	highS := append([]byte(nil), sig...)
	copy(highS[32:], negateModN(sig[32:]))
	assert.False(t, sigverify.Verify(sigverify.ECDSASecp256k1, s.PublicKey(), msg, highS))
}

func TestECDSAAcceptsUncompressedKey(t *testing.T) {
	msg := digest("uncompressed")
	s := newSigner(t, sigverify.ECDSASecp256k1)
	sig, err := s.Sign(msg)
	require.NoError(t, err)

	uncompressed := decompress(t, s.PublicKey())
	assert.True(t, sigverify.Verify(sigverify.ECDSASecp256k1, uncompressed, msg, sig))
}

func TestValidatePublicKey(t *testing.T) {
	assert.ErrorIs(t, sigverify.ValidatePublicKey(sigverify.ECDSASecp256k1, []byte{0x02, 0x01}), sigverify.ErrInvalidPublicKey)
	assert.ErrorIs(t, sigverify.ValidatePublicKey(sigverify.Ed25519, make([]byte, 31)), sigverify.ErrInvalidPublicKey)
	assert.ErrorIs(t, sigverify.ValidatePublicKey(sigverify.EdDSABabyJubjub, make([]byte, 12)), sigverify.ErrInvalidPublicKey)
	assert.ErrorIs(t, sigverify.ValidatePublicKey(sigverify.StarkCurve, make([]byte, 33)), sigverify.ErrInvalidPublicKey)
	assert.ErrorIs(t, sigverify.ValidatePublicKey(sigverify.Unknown, make([]byte, 32)), sigverify.ErrInvalidPublicKey)
}

func TestVerifierFunc(t *testing.T) {
	var calls int
	v := sigverify.VerifierFunc(func(sigverify.Algorithm, []byte, []byte, []byte) bool {
		calls++
		return true
	})
	assert.True(t, v.Verify(sigverify.Ed25519, nil, nil, nil))
	assert.Equal(t, 1, calls)
}

func TestStarkSignatureLayout(t *testing.T) {
	msg := digest("starknet batch")
	s := newSigner(t, sigverify.StarkCurve)
	sig, err := s.Sign(msg)
	require.NoError(t, err)
	require.Len(t, sig, sigverify.StarkSignatureSize)
	require.Len(t, s.PublicKey(), 32)
	assert.True(t, sigverify.Verify(sigverify.StarkCurve, s.PublicKey(), msg, sig))

	// extra bytes are rejected, not truncated away
	assert.False(t, sigverify.Verify(sigverify.StarkCurve, s.PublicKey(), msg, append(append([]byte(nil), sig...), 0x00)))
	assert.False(t, sigverify.Verify(sigverify.StarkCurve, s.PublicKey(), msg, sig[:64]))

	// v carries recovery data only
	otherV := append([]byte(nil), sig...)
	otherV[95] ^= 0x01
	assert.True(t, sigverify.Verify(sigverify.StarkCurve, s.PublicKey(), msg, otherV))

	tampered := append([]byte(nil), sig...)
	tampered[40] ^= 0x01
	assert.False(t, sigverify.Verify(sigverify.StarkCurve, s.PublicKey(), msg, tampered))
}

func TestStarkMessageRange(t *testing.T) {
	assert.True(t, sigverify.StarkCurve.AcceptsMessage(digest("in range")))

	high := digest("in range")
	high[0] = 0x08
	assert.False(t, sigverify.StarkCurve.AcceptsMessage(high))
	assert.False(t, sigverify.StarkCurve.AcceptsMessage(make([]byte, 31)))

	s := newSigner(t, sigverify.StarkCurve)
	_, err := s.Sign(high)
	assert.Error(t, err)

	sig, err := s.Sign(digest("in range"))
	require.NoError(t, err)
	assert.False(t, sigverify.Verify(sigverify.StarkCurve, s.PublicKey(), high, sig))
}

func TestStarkRejectsFlaggedKey(t *testing.T) {
	s := newSigner(t, sigverify.StarkCurve)
	pub := s.PublicKey()
	assert.NoError(t, sigverify.ValidatePublicKey(sigverify.StarkCurve, pub))

	flagged := append([]byte(nil), pub...)
	flagged[0] |= 0x80
	assert.ErrorIs(t, sigverify.ValidatePublicKey(sigverify.StarkCurve, flagged), sigverify.ErrInvalidPublicKey)
}

func TestAcceptsMessage(t *testing.T) {
	msg := digest("any")
	for _, alg := range sigverify.Algorithms() {
		assert.True(t, alg.AcceptsMessage(msg), alg.String())
		assert.False(t, alg.AcceptsMessage(nil), alg.String())
	}
	assert.True(t, sigverify.Ed25519.AcceptsMessage([]byte("short")))
	assert.False(t, sigverify.ECDSASecp256k1.AcceptsMessage([]byte("short")))
	assert.False(t, sigverify.Unknown.AcceptsMessage(msg))
}
