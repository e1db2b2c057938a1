package redisstream_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/events"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/events/redisstream"
)

func newSink(t *testing.T, addr string) *redisstream.Sink {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	sink, err := redisstream.New(client, "")
	require.NoError(t, err)
	return sink
}

func batch() []events.Event {
	return []events.Event{
		events.SigningStarted{
			SessionID: 7,
			KeyID:     "key-1",
			PubKeys:   map[multisig.ParticipantID][]byte{"a": {0x02, 0x01}},
			Msg:       []byte("digest"),
			ExpiresAt: 20,
		},
		events.SignatureSubmitted{SessionID: 7, Participant: "a", Signature: []byte{0x01}},
		events.SigningCompleted{SessionID: 7, CompletedAt: 12},
	}
}

func TestAppendAndRead(t *testing.T) {
	ctx := context.Background()
	sink := newSink(t, miniredis.RunT(t).Addr())
	assert.Equal(t, redisstream.DefaultStream, sink.Stream())

	want := batch()
	require.NoError(t, sink.Append(ctx, want[:1]...))
	require.NoError(t, sink.Append(ctx, want[1:]...))

	entries, err := sink.Read(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, len(want))
	for i, entry := range entries {
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, want[i], entry.Event)
	}

	rest, err := sink.Read(ctx, entries[0].ID, 1)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, want[1], rest[0].Event)
}

func TestAppendEmptyBatch(t *testing.T) {
	sink := newSink(t, miniredis.RunT(t).Addr())
	require.NoError(t, sink.Append(context.Background()))
	entries, err := sink.Read(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendFailsWhenServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	sink := newSink(t, addr)
	assert.Error(t, sink.Append(context.Background(), batch()...))
}

func TestReadRejectsMalformedCursor(t *testing.T) {
	sink := newSink(t, miniredis.RunT(t).Addr())
	_, err := sink.Read(context.Background(), "not-an-id", 0)
	assert.Error(t, err)
}

func TestNewRejectsNilClient(t *testing.T) {
	_, err := redisstream.New(nil, "s")
	assert.Error(t, err)
}
