package coordinator

import (
	"context"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/logging"
)

// GetSigningSession returns a copy of a session as observed at the current
// height. A pending session past its expiry height is reported as Expired
// even though nothing has recorded the transition yet. The call never
// modifies the session.
func (c *Coordinator) GetSigningSession(ctx context.Context, id multisig.SessionID) (view SessionView, err error) {
	ctx, span := c.tel.start(ctx, "coordinator.GetSigningSession", sessionAttr(id))
	defer func() { end(span, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[id]
	if !ok {
		return SessionView{}, &multisig.SessionError{SessionID: id, Err: multisig.ErrUnknownSession}
	}
	state := s.stateAt(c.clock.Height())
	span.SetAttributes(attrState.String(state.String()))
	c.log.Debug(ctx, "signing session queried", logging.KeySessionID, id, "state", state)
	return s.view(state), nil
}
