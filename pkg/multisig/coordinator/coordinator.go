package coordinator

import (
	"context"
	"errors"
	"sync"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/events"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/keystore"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/logging"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
)

// Coordinator owns the session table. It is safe for concurrent use; calls
// are serialized.
type Coordinator struct {
	mu sync.Mutex

	store keystore.Store
	sink  events.Sink
	clock Clock

	threshold     multisig.Threshold
	expiryWindow  uint64
	requireCaller bool
	verifier      sigverify.Verifier
	log           logging.Logger
	tel           *telemetry

	enabled  bool
	callers  map[callerKey]struct{}
	lastID   multisig.SessionID
	sessions map[multisig.SessionID]*session
}

type callerKey struct {
	caller string
	chain  string
}

// New returns a Coordinator reading snapshots from store, appending events
// to sink and reading heights from clock. opts may be nil.
func New(store keystore.Store, sink events.Sink, clock Clock, opts *Options) (*Coordinator, error) {
	if store == nil {
		return nil, errors.New("coordinator: nil key store")
	}
	if sink == nil {
		return nil, errors.New("coordinator: nil event sink")
	}
	if clock == nil {
		return nil, errors.New("coordinator: nil clock")
	}
	o := opts.withDefaults()
	if err := o.DefaultThreshold.Validate(); err != nil {
		return nil, err
	}
	tel, err := newTelemetry(o.TracerProvider, o.MeterProvider)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		store:         store,
		sink:          sink,
		clock:         clock,
		threshold:     o.DefaultThreshold,
		expiryWindow:  o.ExpiryWindow,
		requireCaller: o.RequireAuthorizedCaller,
		verifier:      o.Verifier,
		log:           o.Logger.With("component", "coordinator"),
		tel:           tel,
		enabled:       !o.SigningDisabled,
		callers:       make(map[callerKey]struct{}),
		sessions:      make(map[multisig.SessionID]*session),
	}, nil
}

// SigningEnabled reports whether new sessions may be started.
func (c *Coordinator) SigningEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// EnableSigning allows StartSession again. Open sessions are unaffected by
// either admin switch.
func (c *Coordinator) EnableSigning(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		c.enabled = true
		c.log.Info(ctx, "signing enabled")
	}
}

// DisableSigning makes StartSession fail with ErrSigningDisabled.
func (c *Coordinator) DisableSigning(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		c.enabled = false
		c.log.Info(ctx, "signing disabled")
	}
}

// AuthorizeCaller allows caller to start sessions for chain. It only has an
// effect when Options.RequireAuthorizedCaller is set.
func (c *Coordinator) AuthorizeCaller(ctx context.Context, caller, chain string) error {
	if caller == "" {
		return errors.New("authorize caller: empty caller")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callers[callerKey{caller: caller, chain: chain}] = struct{}{}
	c.log.Info(ctx, "caller authorized", "caller", caller, "chain", chain)
	return nil
}

// UnauthorizeCaller revokes a previous AuthorizeCaller.
func (c *Coordinator) UnauthorizeCaller(ctx context.Context, caller, chain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := callerKey{caller: caller, chain: chain}
	if _, ok := c.callers[key]; ok {
		delete(c.callers, key)
		c.log.Info(ctx, "caller unauthorized", "caller", caller, "chain", chain)
	}
}

// CallerAuthorized reports whether caller may start sessions for chain.
func (c *Coordinator) CallerAuthorized(caller, chain string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authorized(caller, chain)
}

func (c *Coordinator) authorized(caller, chain string) bool {
	if !c.requireCaller {
		return true
	}
	_, ok := c.callers[callerKey{caller: caller, chain: chain}]
	return ok
}
