package sigverify

import (
	"fmt"
	"strings"
)

// Algorithm identifies the signature scheme a key signs with. The algorithm is
// carried explicitly with every key so verification never has to guess.
type Algorithm uint8

// Supported signature algorithms.
const (
	Unknown Algorithm = iota
	ECDSASecp256k1
	Ed25519
	EdDSABabyJubjub
	StarkCurve
)

var algorithmNames = map[Algorithm]string{
	ECDSASecp256k1:  "ecdsa-secp256k1",
	Ed25519:         "ed25519",
	EdDSABabyJubjub: "eddsa-babyjubjub",
	StarkCurve:      "ecdsa-stark",
}

// Algorithms lists every supported algorithm.
func Algorithms() []Algorithm {
	return []Algorithm{ECDSASecp256k1, Ed25519, EdDSABabyJubjub, StarkCurve}
}

// String returns the canonical name of the algorithm.
func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether a names a supported algorithm.
func (a Algorithm) Valid() bool {
	_, ok := algorithmNames[a]
	return ok
}

// MessageSize returns the required message length in bytes, or 0 when the
// algorithm signs messages of any length.
func (a Algorithm) MessageSize() int {
	switch a {
	case ECDSASecp256k1, StarkCurve:
		return 32
	default:
		return 0
	}
}

// AcceptsMessage reports whether message can be signed under a: it has the
// fixed size where one applies and, for StarkCurve, encodes a field element
// below 2^251.
func (a Algorithm) AcceptsMessage(message []byte) bool {
	if len(message) == 0 || !a.Valid() {
		return false
	}
	if size := a.MessageSize(); size > 0 && len(message) != size {
		return false
	}
	if a == StarkCurve {
		return starkMessageInRange(message)
	}
	return true
}

// ParseAlgorithm parses a canonical algorithm name. Matching is
// case-insensitive; "ecdsa" and "secp256k1" are accepted as aliases, as are
// "stark" and "starknet" for StarkCurve.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ecdsa-secp256k1", "ecdsa", "secp256k1":
		return ECDSASecp256k1, nil
	case "ed25519":
		return Ed25519, nil
	case "eddsa-babyjubjub", "babyjubjub", "bjj":
		return EdDSABabyJubjub, nil
	case "ecdsa-stark", "stark", "starknet", "stark-curve":
		return StarkCurve, nil
	default:
		return Unknown, fmt.Errorf("unknown signature algorithm %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("cannot marshal algorithm %d", uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
