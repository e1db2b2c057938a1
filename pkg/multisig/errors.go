package multisig

import (
	"errors"
	"strings"
)

// Caller-facing rejections. Each aborts only the current call.
var (
	ErrUnknownKey         = errors.New("unknown key")
	ErrUnknownSession     = errors.New("unknown signing session")
	ErrSessionClosed      = errors.New("signing session closed")
	ErrSessionExpired     = errors.New("signing session expired")
	ErrNotAParticipant    = errors.New("signer is not a participant")
	ErrDuplicateSignature = errors.New("duplicate signature")
	ErrInvalidSignature   = errors.New("invalid signature")
)

// Rejections raised before a session exists or while building snapshots.
var (
	ErrInvalidMessage     = errors.New("invalid message")
	ErrSigningDisabled    = errors.New("signing is disabled")
	ErrUnauthorizedCaller = errors.New("caller is not authorized")
	ErrInvalidThreshold   = errors.New("invalid threshold")
	ErrInvalidSnapshot    = errors.New("invalid snapshot")
)

// SessionError attaches session context to one of the sentinel errors above.
// errors.Is matches the wrapped sentinel.
type SessionError struct {
	SessionID   SessionID
	Participant ParticipantID
	Reason      string
	Err         error
}

func (e *SessionError) Error() string {
	var b strings.Builder
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("signing session error")
	}
	if e.SessionID != 0 {
		b.WriteString(": session ")
		b.WriteString(e.SessionID.String())
	}
	if e.Participant != "" {
		b.WriteString(": participant ")
		b.WriteString(string(e.Participant))
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *SessionError) Unwrap() error { return e.Err }

// Kind returns the sentinel error err matches, or nil when err is not part
// of the taxonomy.
func Kind(err error) error {
	for _, sentinel := range []error{
		ErrUnknownKey,
		ErrUnknownSession,
		ErrSessionClosed,
		ErrSessionExpired,
		ErrNotAParticipant,
		ErrDuplicateSignature,
		ErrInvalidSignature,
		ErrInvalidMessage,
		ErrSigningDisabled,
		ErrUnauthorizedCaller,
		ErrInvalidThreshold,
		ErrInvalidSnapshot,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}
