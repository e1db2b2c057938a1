package sigverify

import (
	starkcurve "github.com/consensys/gnark-crypto/ecc/stark-curve"
	starkecdsa "github.com/consensys/gnark-crypto/ecc/stark-curve/ecdsa"
)

const (
	// StarkSignatureSize is the r||s||v layout used on Starknet, each part a
	// 32-byte big-endian field element.
	StarkSignatureSize = 96
	starkPublicKeySize = 32

	// Compression flags in the top bits of a gnark-crypto encoded point.
	starkFlagMask     = 0b11 << 6
	starkFlagSmallest = 0b10 << 6
	starkFlagLargest  = 0b11 << 6
)

// verifyStark checks r and s against the x-only public key. Both points
// with that x coordinate are tried. v only helps key recovery and is not
// checked. Signatures of any length but 96 bytes are rejected outright.
func verifyStark(publicKey, message, signature []byte) bool {
	if len(signature) != StarkSignatureSize || !starkMessageInRange(message) {
		return false
	}
	keys, ok := parseStarkKey(publicKey)
	if !ok {
		return false
	}
	rs := signature[:64]
	for _, key := range keys {
		// nil hash: message is already the field element that was signed.
		if valid, err := key.Verify(rs, message, nil); err == nil && valid {
			return true
		}
	}
	return false
}

// parseStarkKey decodes a 32-byte x coordinate into the two curve points
// sharing it.
func parseStarkKey(publicKey []byte) ([2]*starkecdsa.PublicKey, bool) {
	var keys [2]*starkecdsa.PublicKey
	if len(publicKey) != starkPublicKeySize || publicKey[0]&starkFlagMask != 0 {
		return keys, false
	}
	for i, flag := range []byte{starkFlagSmallest, starkFlagLargest} {
		buf := make([]byte, starkPublicKeySize)
		copy(buf, publicKey)
		buf[0] |= flag

		var key starkecdsa.PublicKey
		if _, err := key.SetBytes(buf); err != nil {
			return keys, false
		}
		if key.A.IsInfinity() {
			return keys, false
		}
		keys[i] = &key
	}
	return keys, true
}

func validStarkKey(publicKey []byte) bool {
	_, ok := parseStarkKey(publicKey)
	return ok
}

// starkMessageInRange reports whether message is a 32-byte big-endian value
// below 2^251, the bound Starknet places on signed message hashes.
func starkMessageInRange(message []byte) bool {
	return len(message) == 32 && message[0] < 0x08
}

// StarkPublicKey encodes a point as the x-only key StarkCurve verification
// expects.
func StarkPublicKey(p *starkcurve.G1Affine) []byte {
	x := p.X.Bytes()
	return x[:]
}
