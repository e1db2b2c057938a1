package coordinator

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/metric"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/events"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/logging"
)

// SubmitSignature records participant's signature for a session. The caller
// is responsible for authenticating participant. Gates are checked in order
// and the first failure aborts the call:
//
//  1. the session exists (ErrUnknownSession);
//  2. the session is open (ErrSessionClosed) and not past its expiry height
//     (ErrSessionExpired, after recording the Expired state);
//  3. participant is in the session snapshot (ErrNotAParticipant);
//  4. participant has not signed yet (ErrDuplicateSignature);
//  5. the signature verifies against participant's key (ErrInvalidSignature).
//
// An accepted signature is recorded and, once the signers' weight reaches the
// quorum, the session completes in the same call.
//
// When the event sink fails nothing is recorded and the participant may
// submit again. The sink may still have delivered the batch, so observers
// see at least one SignatureSubmitted per recorded signature and must treat
// repeats for the same session and participant as one.
func (c *Coordinator) SubmitSignature(ctx context.Context, id multisig.SessionID, participant multisig.ParticipantID, signature []byte) (err error) {
	ctx, span := c.tel.start(ctx, "coordinator.SubmitSignature",
		sessionAttr(id),
		attrParticipant.String(string(participant)),
	)
	defer func() {
		if err != nil {
			c.tel.rejected.Add(ctx, 1, metric.WithAttributes(attrError.String(errorKind(err))))
			c.log.Debug(ctx, "signature rejected",
				logging.KeySessionID, id,
				logging.KeyParticipant, participant,
				logging.KeyError, err,
			)
		}
		end(span, err)
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[id]
	if !ok {
		return &multisig.SessionError{SessionID: id, Participant: participant, Err: multisig.ErrUnknownSession}
	}
	if s.state.Terminal() {
		return &multisig.SessionError{SessionID: id, Participant: participant, Reason: s.state.String(), Err: multisig.ErrSessionClosed}
	}
	height := c.clock.Height()
	if s.expiredAt(height) {
		s.state = multisig.StateExpired
		c.tel.expired.Add(ctx, 1)
		c.log.Info(ctx, "signing session expired",
			logging.KeySessionID, id,
			"height", height,
			"expires_at", s.expiresAt,
			"signers", len(s.signatures),
		)
		return &multisig.SessionError{SessionID: id, Participant: participant, Err: multisig.ErrSessionExpired}
	}

	member, ok := s.snapshot.Participant(participant)
	if !ok {
		return &multisig.SessionError{SessionID: id, Participant: participant, Err: multisig.ErrNotAParticipant}
	}
	if _, dup := s.signatures[participant]; dup {
		return &multisig.SessionError{SessionID: id, Participant: participant, Err: multisig.ErrDuplicateSignature}
	}
	verifier := c.verifier
	if s.verifier != nil {
		verifier = s.verifier
	}
	if !verifier.Verify(s.snapshot.Algorithm(), member.PublicKey, s.message, signature) {
		return &multisig.SessionError{
			SessionID:   id,
			Participant: participant,
			Reason:      s.snapshot.Algorithm().String(),
			Err:         multisig.ErrInvalidSignature,
		}
	}

	sig := slices.Clone(signature)
	signers := append(s.signers(), participant)
	weight := s.snapshot.WeightOf(signers...)
	complete := weight >= s.quorum

	batch := []events.Event{events.SignatureSubmitted{
		SessionID:   id,
		Participant: participant,
		Signature:   slices.Clone(sig),
	}}
	if complete {
		batch = append(batch, events.SigningCompleted{SessionID: id, CompletedAt: height})
	}
	if err := c.emit(ctx, batch...); err != nil {
		return err
	}

	s.signatures[participant] = sig
	s.weight = weight
	c.tel.accepted.Add(ctx, 1)
	c.log.Debug(ctx, "signature accepted",
		logging.KeySessionID, id,
		logging.KeyParticipant, participant,
		"weight", weight,
		"quorum", s.quorum,
		logging.Redacted("signature"),
	)
	if complete {
		s.state = multisig.StateCompleted
		s.completedAt = height
		span.SetAttributes(attrState.String(s.state.String()))
		c.tel.completed.Add(ctx, 1)
		c.log.Info(ctx, "signing session completed",
			logging.KeySessionID, id,
			"height", height,
			"signers", len(s.signatures),
			"weight", weight,
		)
	}
	return nil
}
