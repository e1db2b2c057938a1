package coordinator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/coordinator"
)

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestSpansRecordSessionAndErrorKind(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	f := newFixture(t, &coordinator.Options{TracerProvider: tp}, 1, 1, 1)
	id := f.start()
	require.NoError(t, f.submit(id, "a"))
	assert.ErrorIs(t, f.submit(id, "a"), multisig.ErrDuplicateSignature)
	_ = f.view(id)

	spans := rec.Ended()
	require.Len(t, spans, 4)
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{
		"coordinator.StartSession",
		"coordinator.SubmitSignature",
		"coordinator.SubmitSignature",
		"coordinator.GetSigningSession",
	}, names)

	v, ok := attrValue(spans[0].Attributes(), "multisig.session_id")
	require.True(t, ok)
	assert.Equal(t, int64(id), v.AsInt64())
	assert.Equal(t, codes.Unset, spans[1].Status().Code)

	rejected := spans[2]
	assert.Equal(t, codes.Error, rejected.Status().Code)
	v, ok = attrValue(rejected.Attributes(), "multisig.error")
	require.True(t, ok)
	assert.Equal(t, multisig.ErrDuplicateSignature.Error(), v.AsString())

	v, ok = attrValue(spans[3].Attributes(), "multisig.state")
	require.True(t, ok)
	assert.Equal(t, "pending", v.AsString())
}
