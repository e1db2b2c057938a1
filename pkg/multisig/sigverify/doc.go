// Package sigverify validates individual signer signatures for threshold
// signing sessions.
//
// Verification is a pure function of the algorithm, the signer's public key,
// the message digest and the signature bytes. It never panics and never
// returns an error: malformed keys, malformed signatures and mismatches all
// yield false, and callers decide how to report the rejection.
//
// # Algorithms
//
//   - ECDSASecp256k1: SEC1 public keys (compressed or uncompressed), a 32-byte
//     message digest, and either a 64-byte r||s signature or a 65-byte
//     recoverable r||s||v signature. High-S signatures are rejected.
//   - Ed25519: 32-byte public keys and 64-byte signatures over the raw message.
//   - EdDSABabyJubjub: EdDSA over the Baby Jubjub curve (BN254 twisted
//     Edwards), 32-byte compressed public keys, 64-byte signatures, SHA-256
//     challenge hash.
//   - StarkCurve: ECDSA over the Stark curve as used by Starknet. Public keys
//     are the 32-byte x coordinate, messages are 32-byte values below 2^251
//     and signatures are exactly 96 bytes r||s||v.
//
// # Usage
//
//	ok := sigverify.Verify(sigverify.Ed25519, pub, msg, sig)
//
// The Verifier interface lets a coordinator substitute an external verifier
// service for a single session:
//
//	var v sigverify.Verifier = sigverify.Default
//	if !v.Verify(alg, pub, msg, sig) {
//	    // reject
//	}
package sigverify
