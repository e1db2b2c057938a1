// Package testsigner produces signatures for every algorithm sigverify
// accepts. It exists for tests, simulations and examples; it is not a key
// custody solution and keeps private keys in plain memory.
package testsigner

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	starkecdsa "github.com/consensys/gnark-crypto/ecc/stark-curve/ecdsa"

	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
)

// ErrClosed is returned when signing with a closed Signer.
var ErrClosed = errors.New("signer is closed")

// Signer holds one private key for one algorithm.
type Signer struct {
	alg       sigverify.Algorithm
	publicKey []byte

	ecdsaKey *btcec.PrivateKey
	edKey    ed25519.PrivateKey
	bjjKey   *eddsa.PrivateKey
	starkKey *starkecdsa.PrivateKey
}

// New generates a fresh key for alg using entropy from rng.
func New(alg sigverify.Algorithm, rng io.Reader) (*Signer, error) {
	if rng == nil {
		return nil, errors.New("nil entropy source")
	}
	s := &Signer{alg: alg}
	switch alg {
	case sigverify.ECDSASecp256k1:
		seed := make([]byte, 32)
		defer zeroize(seed)
		if _, err := io.ReadFull(rng, seed); err != nil {
			return nil, fmt.Errorf("read seed: %w", err)
		}
		priv, pub := btcec.PrivKeyFromBytes(seed)
		s.ecdsaKey = priv
		s.publicKey = pub.SerializeCompressed()
	case sigverify.Ed25519:
		pub, priv, err := ed25519.GenerateKey(rng)
		if err != nil {
			return nil, fmt.Errorf("generate ed25519 key: %w", err)
		}
		s.edKey = priv
		s.publicKey = pub
	case sigverify.EdDSABabyJubjub:
		priv, err := eddsa.GenerateKey(rng)
		if err != nil {
			return nil, fmt.Errorf("generate babyjubjub key: %w", err)
		}
		s.bjjKey = priv
		s.publicKey = priv.PublicKey.Bytes()
	case sigverify.StarkCurve:
		priv, err := starkecdsa.GenerateKey(rng)
		if err != nil {
			return nil, fmt.Errorf("generate stark key: %w", err)
		}
		s.starkKey = priv
		s.publicKey = sigverify.StarkPublicKey(&priv.PublicKey.A)
	default:
		return nil, fmt.Errorf("unsupported algorithm %s", alg)
	}
	return s, nil
}

// Algorithm returns the signer's algorithm.
func (s *Signer) Algorithm() sigverify.Algorithm { return s.alg }

// PublicKey returns a copy of the encoded public key.
func (s *Signer) PublicKey() []byte {
	return append([]byte(nil), s.publicKey...)
}

// Sign signs message. ECDSA signatures are the 64-byte r||s form and
// StarkCurve signatures the 96-byte r||s||v form.
func (s *Signer) Sign(message []byte) ([]byte, error) {
	if s.closed() {
		return nil, ErrClosed
	}
	switch s.alg {
	case sigverify.ECDSASecp256k1:
		compact, err := s.signCompact(message)
		if err != nil {
			return nil, err
		}
		return compact[1:], nil
	case sigverify.Ed25519:
		return ed25519.Sign(s.edKey, message), nil
	case sigverify.EdDSABabyJubjub:
		return s.bjjKey.Sign(message, sigverify.BabyJubjubHash())
	case sigverify.StarkCurve:
		return s.signStark(message)
	default:
		return nil, fmt.Errorf("unsupported algorithm %s", s.alg)
	}
}

// SignRecoverable returns a 65-byte r||s||v ECDSA signature with v in {27, 28}.
func (s *Signer) SignRecoverable(message []byte) ([]byte, error) {
	if s.alg != sigverify.ECDSASecp256k1 {
		return nil, fmt.Errorf("recoverable signatures require %s, have %s", sigverify.ECDSASecp256k1, s.alg)
	}
	compact, err := s.signCompact(message)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 65)
	copy(out, compact[1:])
	// Header is 27 + recid + 4 for compressed keys.
	out[64] = compact[0] - 4
	return out, nil
}

func (s *Signer) signCompact(message []byte) ([]byte, error) {
	if s.closed() {
		return nil, ErrClosed
	}
	if len(message) != sigverify.ECDSASecp256k1.MessageSize() {
		return nil, fmt.Errorf("ecdsa message must be %d bytes, got %d", sigverify.ECDSASecp256k1.MessageSize(), len(message))
	}
	return btcecdsa.SignCompact(s.ecdsaKey, message, true), nil
}

func (s *Signer) signStark(message []byte) ([]byte, error) {
	if !sigverify.StarkCurve.AcceptsMessage(message) {
		return nil, fmt.Errorf("stark message must be a 32-byte value below 2^251")
	}
	v, r, sv, err := s.starkKey.SignForRecover(message, nil)
	if err != nil {
		return nil, fmt.Errorf("sign stark: %w", err)
	}
	out := make([]byte, sigverify.StarkSignatureSize)
	r.FillBytes(out[:32])
	sv.FillBytes(out[32:64])
	out[95] = byte(v)
	return out, nil
}

// Close overwrites the private key material of every algorithm. The signer
// cannot sign afterwards.
func (s *Signer) Close() {
	if s.ecdsaKey != nil {
		s.ecdsaKey.Zero()
		s.ecdsaKey = nil
	}
	zeroize(s.edKey)
	s.edKey = nil
	if s.bjjKey != nil {
		// public key || scalar || nonce seed, the last two zeroed
		wipe := make([]byte, 96)
		copy(wipe, s.bjjKey.PublicKey.Bytes())
		_, _ = s.bjjKey.SetBytes(wipe)
		s.bjjKey = nil
	}
	if s.starkKey != nil {
		// public key || scalar, the scalar zeroed
		wipe := make([]byte, 64)
		copy(wipe, s.starkKey.PublicKey.Bytes())
		_, _ = s.starkKey.SetBytes(wipe)
		s.starkKey = nil
	}
}

func (s *Signer) closed() bool {
	return s.ecdsaKey == nil && s.edKey == nil && s.bjjKey == nil && s.starkKey == nil
}

// zeroize overwrites buf; runtime.KeepAlive keeps the stores from being
// eliminated (golang/go#33325).
func zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}
