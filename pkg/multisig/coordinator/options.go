package coordinator

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/logging"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
)

// DefaultExpiryWindow is the number of heights a session stays open when
// Options.ExpiryWindow is zero.
const DefaultExpiryWindow uint64 = 10

// DefaultThreshold is used when neither Options nor the snapshot set one.
var DefaultThreshold = multisig.MustThreshold(2, 3)

// Options tune a Coordinator. The zero value is usable.
type Options struct {
	// DefaultThreshold applies to snapshots without their own threshold.
	DefaultThreshold multisig.Threshold

	// ExpiryWindow is added to the creation height to obtain a session's
	// expiry height.
	ExpiryWindow uint64

	// RequireAuthorizedCaller rejects StartSession unless the caller was
	// registered for the chain with AuthorizeCaller.
	RequireAuthorizedCaller bool

	// SigningDisabled starts the coordinator with signing turned off.
	SigningDisabled bool

	Verifier       sigverify.Verifier
	Logger         logging.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func (o *Options) withDefaults() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.DefaultThreshold.IsZero() {
		out.DefaultThreshold = DefaultThreshold
	}
	if out.ExpiryWindow == 0 {
		out.ExpiryWindow = DefaultExpiryWindow
	}
	if out.Verifier == nil {
		out.Verifier = sigverify.Default
	}
	if out.Logger == nil {
		out.Logger = logging.New(nil)
	}
	return out
}
