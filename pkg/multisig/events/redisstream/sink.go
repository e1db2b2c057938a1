package redisstream

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/events"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "multisig:events"

const (
	fieldKind    = "kind"
	fieldSession = "session_id"
	fieldPayload = "payload"
)

// Entry is one decoded stream entry.
type Entry struct {
	ID    string
	Event events.Event
}

// Sink appends events to a Redis stream.
type Sink struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// Option configures a Sink.
type Option func(*Sink)

// WithMaxLen caps the stream at approximately n entries. Zero keeps every
// entry.
func WithMaxLen(n int64) Option {
	return func(s *Sink) { s.maxLen = n }
}

// New returns a Sink writing to stream. An empty stream selects
// DefaultStream.
func New(client redis.Cmdable, stream string, opts ...Option) (*Sink, error) {
	if client == nil {
		return nil, errors.New("redisstream: nil client")
	}
	if stream == "" {
		stream = DefaultStream
	}
	s := &Sink{client: client, stream: stream}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Stream returns the stream key.
func (s *Sink) Stream() string { return s.stream }

// Append implements events.Sink.
func (s *Sink) Append(ctx context.Context, batch ...events.Event) error {
	if len(batch) == 0 {
		return nil
	}
	values := make([]map[string]any, 0, len(batch))
	for _, e := range batch {
		payload, err := events.Encode(e)
		if err != nil {
			return err
		}
		values = append(values, map[string]any{
			fieldKind:    string(e.Kind()),
			fieldSession: e.Session().String(),
			fieldPayload: payload,
		})
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, v := range values {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: s.stream,
				MaxLen: s.maxLen,
				Approx: s.maxLen > 0,
				Values: v,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append %d events to %s: %w", len(batch), s.stream, err)
	}
	return nil
}

// Read returns up to count entries with IDs strictly after the given ID. An
// empty after reads from the beginning; count <= 0 reads everything.
func (s *Sink) Read(ctx context.Context, after string, count int64) ([]Entry, error) {
	start := "-"
	if after != "" {
		next, err := nextID(after)
		if err != nil {
			return nil, err
		}
		start = next
	}
	var (
		msgs []redis.XMessage
		err  error
	)
	if count > 0 {
		msgs, err = s.client.XRangeN(ctx, s.stream, start, "+", count).Result()
	} else {
		msgs, err = s.client.XRange(ctx, s.stream, start, "+").Result()
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.stream, err)
	}
	out := make([]Entry, 0, len(msgs))
	for _, msg := range msgs {
		e, err := decodeMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", msg.ID, err)
		}
		out = append(out, Entry{ID: msg.ID, Event: e})
	}
	return out, nil
}

// nextID returns the smallest stream ID greater than id.
func nextID(id string) (string, error) {
	ms, seq, ok := strings.Cut(id, "-")
	if !ok {
		return "", fmt.Errorf("malformed stream id %q", id)
	}
	msN, err := strconv.ParseUint(ms, 10, 64)
	if err != nil {
		return "", fmt.Errorf("malformed stream id %q: %w", id, err)
	}
	seqN, err := strconv.ParseUint(seq, 10, 64)
	if err != nil {
		return "", fmt.Errorf("malformed stream id %q: %w", id, err)
	}
	if seqN == math.MaxUint64 {
		return strconv.FormatUint(msN+1, 10) + "-0", nil
	}
	return ms + "-" + strconv.FormatUint(seqN+1, 10), nil
}

func decodeMessage(msg redis.XMessage) (events.Event, error) {
	payload, ok := msg.Values[fieldPayload].(string)
	if !ok {
		return nil, errors.New("missing payload")
	}
	e, err := events.Decode([]byte(payload))
	if err != nil {
		return nil, err
	}
	if kind, _ := msg.Values[fieldKind].(string); kind != string(e.Kind()) {
		return nil, fmt.Errorf("kind field %q does not match payload %q", kind, e.Kind())
	}
	if raw, _ := msg.Values[fieldSession].(string); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || multisig.SessionID(id) != e.Session() {
			return nil, fmt.Errorf("session field %q does not match payload", raw)
		}
	}
	return e, nil
}

var _ events.Sink = (*Sink)(nil)
