package coordinator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
)

const instrumentationName = "github.com/coinbase/cb-multisig-go/pkg/multisig/coordinator"

// Span attribute keys.
const (
	attrSessionID   = attribute.Key("multisig.session_id")
	attrKeyID       = attribute.Key("multisig.key_id")
	attrParticipant = attribute.Key("multisig.participant")
	attrState       = attribute.Key("multisig.state")
	attrError       = attribute.Key("multisig.error")
)

type telemetry struct {
	tracer trace.Tracer

	started   metric.Int64Counter
	completed metric.Int64Counter
	expired   metric.Int64Counter
	accepted  metric.Int64Counter
	rejected  metric.Int64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&t.started, "multisig.sessions.started", "Signing sessions opened."},
		{&t.completed, "multisig.sessions.completed", "Signing sessions that reached their threshold."},
		{&t.expired, "multisig.sessions.expired", "Signing sessions found past their expiry height."},
		{&t.accepted, "multisig.signatures.accepted", "Signatures recorded."},
		{&t.rejected, "multisig.signatures.rejected", "Signature submissions rejected, by error kind."},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return t, nil
}

func (t *telemetry) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// end records err on span and closes it.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attrError.String(errorKind(err)))
		span.SetStatus(codes.Error, errorKind(err))
	}
	span.End()
}

// errorKind names the taxonomy entry err belongs to, or "internal".
func errorKind(err error) string {
	if kind := multisig.Kind(err); kind != nil {
		return kind.Error()
	}
	return "internal"
}

func sessionAttr(id multisig.SessionID) attribute.KeyValue {
	return attrSessionID.Int64(int64(id))
}
