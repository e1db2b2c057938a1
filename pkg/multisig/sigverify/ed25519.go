package sigverify

import "crypto/ed25519"

func verifyEd25519(publicKey, message, signature []byte) bool {
	if !validEd25519Key(publicKey) || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}

func validEd25519Key(publicKey []byte) bool {
	return len(publicKey) == ed25519.PublicKeySize
}
