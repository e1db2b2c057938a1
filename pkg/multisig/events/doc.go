// Package events defines the domain events a signing coordinator emits and
// the ordered, append-only sinks that receive them.
//
// Each event carries enough data for an external observer to reconstruct
// session progress without querying the coordinator:
//
//   - SigningStarted: session id, key id, every participant public key, the
//     message, destination chain and expiry height
//   - SignatureSubmitted: session id, participant, signature bytes
//   - SigningCompleted: session id and completion height
//
// A coordinator appends all events produced by one call as a single batch
// before committing the call's state change. Sinks must either accept the
// whole batch in order or reject it.
package events
