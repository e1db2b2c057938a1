package sigverify

import (
	"errors"
	"fmt"
)

// Verifier checks a single signature. Implementations must be deterministic
// and must report malformed input as false rather than panicking.
type Verifier interface {
	Verify(alg Algorithm, publicKey, message, signature []byte) bool
}

// VerifierFunc adapts a plain function to the Verifier interface.
type VerifierFunc func(alg Algorithm, publicKey, message, signature []byte) bool

// Verify calls f.
func (f VerifierFunc) Verify(alg Algorithm, publicKey, message, signature []byte) bool {
	return f(alg, publicKey, message, signature)
}

// Default verifies signatures with the built-in algorithm implementations.
var Default Verifier = VerifierFunc(Verify)

// ErrInvalidPublicKey reports a public key that cannot be parsed for its
// algorithm.
var ErrInvalidPublicKey = errors.New("invalid public key")

// Verify reports whether signature is a valid signature of message under
// publicKey for the given algorithm. Any malformed input yields false.
func Verify(alg Algorithm, publicKey, message, signature []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	switch alg {
	case ECDSASecp256k1:
		return verifyECDSA(publicKey, message, signature)
	case Ed25519:
		return verifyEd25519(publicKey, message, signature)
	case EdDSABabyJubjub:
		return verifyBabyJubjub(publicKey, message, signature)
	case StarkCurve:
		return verifyStark(publicKey, message, signature)
	default:
		return false
	}
}

// ValidatePublicKey checks that publicKey parses for alg. Key stores call it
// before a snapshot is frozen so sessions never carry unusable keys.
func ValidatePublicKey(alg Algorithm, publicKey []byte) (err error) {
	defer func() {
		if recover() != nil {
			err = fmt.Errorf("%w: %s key rejected", ErrInvalidPublicKey, alg)
		}
	}()

	var valid bool
	switch alg {
	case ECDSASecp256k1:
		valid = validECDSAKey(publicKey)
	case Ed25519:
		valid = validEd25519Key(publicKey)
	case EdDSABabyJubjub:
		valid = validBabyJubjubKey(publicKey)
	case StarkCurve:
		valid = validStarkKey(publicKey)
	default:
		return fmt.Errorf("%w: unsupported algorithm %s", ErrInvalidPublicKey, alg)
	}
	if !valid {
		return fmt.Errorf("%w: malformed %s key of %d bytes", ErrInvalidPublicKey, alg, len(publicKey))
	}
	return nil
}
