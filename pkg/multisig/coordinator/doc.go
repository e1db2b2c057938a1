// Package coordinator runs threshold signing sessions.
//
// A Coordinator opens a session for a message under the committee snapshot of
// a key, accepts one verified signature per committee member and completes
// the session once the accumulated weight meets the session threshold.
// Sessions that are still pending when the logical clock reaches their expiry
// height are reported as expired; expiry is evaluated on every call rather
// than by a background process.
//
// Every public method runs under a single lock, so calls are applied one at a
// time and a failed call leaves no partial state behind. The only state a
// failing call commits is the Expired transition discovered by
// SubmitSignature.
//
// Events for a call are appended to the configured events.Sink as one batch
// before the call's state is committed. When the sink fails, the call fails
// and nothing is committed.
package coordinator
