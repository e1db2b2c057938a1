package sigverify

import (
	"crypto/sha256"
	"hash"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
)

const (
	babyJubjubPublicKeySize = 32
	babyJubjubSignatureSize = 64
)

// BabyJubjubHash returns the challenge hash used for EdDSABabyJubjub
// signatures. Signers must use the same function.
func BabyJubjubHash() hash.Hash {
	return sha256.New()
}

func verifyBabyJubjub(publicKey, message, signature []byte) bool {
	if len(signature) != babyJubjubSignatureSize {
		return false
	}
	key, ok := parseBabyJubjubKey(publicKey)
	if !ok {
		return false
	}
	valid, err := key.Verify(signature, message, BabyJubjubHash())
	return err == nil && valid
}

func parseBabyJubjubKey(publicKey []byte) (*eddsa.PublicKey, bool) {
	if len(publicKey) != babyJubjubPublicKeySize {
		return nil, false
	}
	var key eddsa.PublicKey
	if _, err := key.SetBytes(publicKey); err != nil {
		return nil, false
	}
	return &key, true
}

func validBabyJubjubKey(publicKey []byte) bool {
	_, ok := parseBabyJubjubKey(publicKey)
	return ok
}
