// Package multisig defines the domain model of a threshold multi-party
// signing coordinator: weighted committee snapshots, signing thresholds,
// session states and the error taxonomy shared by every subpackage.
//
// A signing session binds one message to the snapshot of one key. Signers
// submit individual signatures, each validated against the signer's public
// key in the frozen snapshot, and the session completes once the accumulated
// weight of valid signers reaches the threshold fraction of the snapshot's
// total weight.
//
// # Subpackages
//
//   - coordinator: session registry, signature intake state machine and query facade
//   - sigverify: per-signature verification for ECDSA (secp256k1), Ed25519 and Baby Jubjub EdDSA
//   - keystore: snapshot stores (in-memory and SQLite)
//   - events: ordered domain events and sinks (in-memory, Redis streams)
//   - config: environment configuration
//   - logging: context-aware slog facade
//
// # Snapshots
//
//	snap, err := multisig.NewSnapshot(&multisig.SnapshotParams{
//	    KeyID:     "key-7",
//	    Algorithm: multisig.ECDSASecp256k1,
//	    Height:    120,
//	    Participants: []multisig.Participant{
//	        {ID: "validator-a", PublicKey: pubA, Weight: 1},
//	        {ID: "validator-b", PublicKey: pubB, Weight: 1},
//	        {ID: "validator-c", PublicKey: pubC, Weight: 1},
//	    },
//	})
//
// A Snapshot is an immutable value; accessors return copies so later key
// rotation never reaches into an open session.
//
// # Errors
//
// Every caller-facing rejection matches one sentinel with errors.Is:
//
//	if errors.Is(err, multisig.ErrDuplicateSignature) {
//	    // signer already counted
//	}
package multisig
