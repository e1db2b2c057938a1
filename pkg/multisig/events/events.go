package events

import (
	"context"
	"sync"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
)

// Kind names an event type on the wire.
type Kind string

// Event kinds.
const (
	KindSigningStarted     Kind = "signing_started"
	KindSignatureSubmitted Kind = "signature_submitted"
	KindSigningCompleted   Kind = "signing_completed"
)

// Event is implemented by SigningStarted, SignatureSubmitted and
// SigningCompleted.
type Event interface {
	Kind() Kind
	Session() multisig.SessionID
}

// SigningStarted is emitted when a session is opened.
type SigningStarted struct {
	SessionID multisig.SessionID                `json:"session_id"`
	KeyID     multisig.KeyID                    `json:"key_id"`
	PubKeys   map[multisig.ParticipantID][]byte `json:"pub_keys"`
	Msg       []byte                            `json:"msg"`
	Chain     string                            `json:"chain,omitempty"`
	ExpiresAt uint64                            `json:"expires_at"`
}

// SignatureSubmitted is emitted for every accepted signature.
type SignatureSubmitted struct {
	SessionID   multisig.SessionID     `json:"session_id"`
	Participant multisig.ParticipantID `json:"participant"`
	Signature   []byte                 `json:"signature"`
}

// SigningCompleted is emitted once, when a session reaches its threshold.
// Signatures and the snapshot are available through a session query.
type SigningCompleted struct {
	SessionID   multisig.SessionID `json:"session_id"`
	CompletedAt uint64             `json:"completed_at"`
}

// Kind implements Event.
func (SigningStarted) Kind() Kind { return KindSigningStarted }

// Session implements Event.
func (e SigningStarted) Session() multisig.SessionID { return e.SessionID }

// Kind implements Event.
func (SignatureSubmitted) Kind() Kind { return KindSignatureSubmitted }

// Session implements Event.
func (e SignatureSubmitted) Session() multisig.SessionID { return e.SessionID }

// Kind implements Event.
func (SigningCompleted) Kind() Kind { return KindSigningCompleted }

// Session implements Event.
func (e SigningCompleted) Session() multisig.SessionID { return e.SessionID }

// Sink receives ordered batches of events.
type Sink interface {
	Append(ctx context.Context, events ...Event) error
}

// Discard is a Sink that drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Append(context.Context, ...Event) error { return nil }

// Log is an in-memory, append-only Sink. It is safe for concurrent use.
type Log struct {
	mu     sync.RWMutex
	events []Event
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append implements Sink.
func (l *Log) Append(ctx context.Context, events ...Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	l.events = append(l.events, events...)
	l.mu.Unlock()
	return nil
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Events returns a copy of every recorded event in append order.
func (l *Log) Events() []Event {
	return l.Since(0)
}

// Since returns the events recorded at or after offset. Callers keep the
// returned length as their next cursor.
func (l *Log) Since(offset int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(l.events) {
		return nil
	}
	return append([]Event(nil), l.events[offset:]...)
}

// ForSession returns the recorded events of one session in order.
func (l *Log) ForSession(id multisig.SessionID) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for _, e := range l.events {
		if e.Session() == id {
			out = append(out, e)
		}
	}
	return out
}

var _ Sink = (*Log)(nil)
