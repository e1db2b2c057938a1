package sigverify

import (
	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

const (
	ecdsaSignatureSize            = 64
	ecdsaRecoverableSignatureSize = 65

	// compactHeaderCompressed is the btcec compact signature header base for
	// a compressed key: 27 + 4.
	compactHeaderCompressed = 31
)

func verifyECDSA(publicKey, message, signature []byte) bool {
	if len(message) != ECDSASecp256k1.MessageSize() {
		return false
	}
	key, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false
	}

	switch len(signature) {
	case ecdsaSignatureSize:
		r, s, ok := parseRS(signature)
		if !ok {
			return false
		}
		return btcecdsa.NewSignature(&r, &s).Verify(message, key)
	case ecdsaRecoverableSignatureSize:
		recID, ok := recoveryID(signature[ecdsaSignatureSize])
		if !ok {
			return false
		}
		if _, _, ok := parseRS(signature[:ecdsaSignatureSize]); !ok {
			return false
		}
		compact := make([]byte, ecdsaRecoverableSignatureSize)
		compact[0] = compactHeaderCompressed + recID
		copy(compact[1:], signature[:ecdsaSignatureSize])

		recovered, _, err := btcecdsa.RecoverCompact(compact, message)
		if err != nil {
			return false
		}
		return recovered.IsEqual(key)
	default:
		return false
	}
}

// parseRS decodes a fixed-width r||s pair. Zero, out-of-range and high-S
// values are rejected.
func parseRS(b []byte) (r, s btcec.ModNScalar, ok bool) {
	if r.SetByteSlice(b[:32]) || s.SetByteSlice(b[32:64]) {
		return r, s, false
	}
	if r.IsZero() || s.IsZero() || s.IsOverHalfOrder() {
		return r, s, false
	}
	return r, s, true
}

// recoveryID normalizes the trailing v byte. Both raw (0, 1) and
// Ethereum-style (27, 28) encodings are accepted.
func recoveryID(v byte) (byte, bool) {
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return 0, false
	}
	return v, true
}

func validECDSAKey(publicKey []byte) bool {
	_, err := btcec.ParsePubKey(publicKey)
	return err == nil
}
