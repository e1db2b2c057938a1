package coordinator

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/events"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/logging"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
)

// StartParams describes a session to open.
type StartParams struct {
	// KeyID selects the snapshot. Empty selects the store's active key.
	KeyID   multisig.KeyID
	Message []byte
	// Chain names the destination chain of the message. Optional.
	Chain string
	// Caller identifies the requester for authorization checks.
	Caller string
	// Verifier replaces the coordinator's verifier for this session only.
	Verifier sigverify.Verifier
}

// StartSigningSession opens a session for message under the active key.
func (c *Coordinator) StartSigningSession(ctx context.Context, message []byte) (multisig.SessionID, error) {
	return c.StartSession(ctx, &StartParams{Message: message})
}

// StartSession opens a session and returns its id. Ids start at 1 and are
// never reused; a start that fails on the event sink leaves a gap.
func (c *Coordinator) StartSession(ctx context.Context, params *StartParams) (id multisig.SessionID, err error) {
	if params == nil {
		params = &StartParams{}
	}
	ctx, span := c.tel.start(ctx, "coordinator.StartSession", attrKeyID.String(string(params.KeyID)))
	defer func() {
		if id != 0 {
			span.SetAttributes(sessionAttr(id))
		}
		end(span, err)
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return 0, multisig.ErrSigningDisabled
	}
	if !c.authorized(params.Caller, params.Chain) {
		return 0, fmt.Errorf("%w: %q for chain %q", multisig.ErrUnauthorizedCaller, params.Caller, params.Chain)
	}
	if len(params.Message) == 0 {
		return 0, fmt.Errorf("%w: empty message", multisig.ErrInvalidMessage)
	}

	keyID := params.KeyID
	if keyID == "" {
		if keyID, err = c.store.ActiveKey(ctx); err != nil {
			return 0, c.storeError(ctx, "resolve active key", err)
		}
	}
	snap, err := c.store.Snapshot(ctx, keyID)
	if err != nil {
		return 0, c.storeError(ctx, "load snapshot "+string(keyID), err)
	}
	if snap.IsZero() {
		return 0, fmt.Errorf("%w: key %s has no participants", multisig.ErrInvalidSnapshot, keyID)
	}
	if alg := snap.Algorithm(); !alg.AcceptsMessage(params.Message) {
		return 0, fmt.Errorf("%w: %d bytes cannot be signed with %s",
			multisig.ErrInvalidMessage, len(params.Message), alg)
	}

	threshold := snap.Threshold()
	if threshold.IsZero() {
		threshold = c.threshold
	}
	height := c.clock.Height()
	s := &session{
		id:         c.lastID + 1,
		keyID:      keyID,
		chain:      params.Chain,
		message:    slices.Clone(params.Message),
		snapshot:   snap,
		threshold:  threshold,
		quorum:     threshold.Quorum(snap.TotalWeight()),
		verifier:   params.Verifier,
		signatures: make(map[multisig.ParticipantID][]byte),
		state:      multisig.StatePending,
		createdAt:  height,
		expiresAt:  expiryHeight(height, c.expiryWindow),
	}

	started := events.SigningStarted{
		SessionID: s.id,
		KeyID:     keyID,
		PubKeys:   snap.PublicKeys(),
		Msg:       slices.Clone(s.message),
		Chain:     s.chain,
		ExpiresAt: s.expiresAt,
	}
	// The id is spent even if the append fails: the sink may already have
	// delivered the event.
	c.lastID = s.id
	if err := c.emit(ctx, started); err != nil {
		c.log.Warn(ctx, "session id abandoned", logging.KeySessionID, s.id)
		return 0, err
	}

	c.sessions[s.id] = s
	c.tel.started.Add(ctx, 1)
	c.log.Info(ctx, "signing session started",
		logging.KeySessionID, s.id,
		logging.KeyKeyID, keyID,
		"chain", s.chain,
		logging.Fingerprint("message", s.message),
		"participants", snap.Len(),
		"quorum", s.quorum,
		"expires_at", s.expiresAt,
	)
	return s.id, nil
}

// Session returns the stored record of a session without applying expiry.
// Use GetSigningSession for the state an observer should act on.
func (c *Coordinator) Session(ctx context.Context, id multisig.SessionID) (SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return SessionView{}, &multisig.SessionError{SessionID: id, Err: multisig.ErrUnknownSession}
	}
	return s.view(s.state), nil
}

// SessionCount returns the number of sessions ever started.
func (c *Coordinator) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// emit appends a call's events as one batch.
func (c *Coordinator) emit(ctx context.Context, batch ...events.Event) error {
	if err := c.sink.Append(ctx, batch...); err != nil {
		c.log.Error(ctx, "event sink append failed", "events", len(batch), logging.KeyError, err)
		return fmt.Errorf("append events: %w", err)
	}
	return nil
}

func (c *Coordinator) storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, multisig.ErrUnknownKey) {
		return err
	}
	c.log.Error(ctx, "key store failed", "op", op, logging.KeyError, err)
	return fmt.Errorf("%s: %w", op, err)
}

// expiryHeight saturates instead of wrapping.
func expiryHeight(created, window uint64) uint64 {
	if created > ^uint64(0)-window {
		return ^uint64(0)
	}
	return created + window
}
