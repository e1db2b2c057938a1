package logging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Attribute keys shared by coordinator records.
const (
	KeySessionID   = "session_id"
	KeyKeyID       = "key_id"
	KeyParticipant = "participant"
	KeyError       = "error"
)

// RedactedValue replaces signature bytes and other secrets in log output.
const RedactedValue = "[redacted]"

// fingerprintSize is the number of SHA-256 bytes kept by Fingerprint.
const fingerprintSize = 8

// Logger receives the coordinator's records:
//
//   - Info: session started, session completed, expiry discovered, admin
//     switches and caller authorization changes;
//   - Debug: signature accepted, signature rejected, session queried;
//   - Warn: a session id abandoned after a failed event append;
//   - Error: event sink and key store failures.
//
// Records carry KeySessionID and KeyParticipant where they apply. Signature
// bytes never appear; callers pass Redacted or Fingerprint instead.
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New adapts logger, or slog.Default() when nil.
func New(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogLogger{l: logger}
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return slogLogger{l: slog.New(slog.DiscardHandler)}
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.Log(ctx, slog.LevelDebug, msg, args...)
}

func (s slogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.Log(ctx, slog.LevelInfo, msg, args...)
}

func (s slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.Log(ctx, slog.LevelWarn, msg, args...)
}

func (s slogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.Log(ctx, slog.LevelError, msg, args...)
}

func (s slogLogger) With(args ...any) Logger {
	return slogLogger{l: s.l.With(args...)}
}

// Redacted stands in for a value that must not be logged, such as a
// signature.
func Redacted(key string) slog.Attr {
	return slog.String(key, RedactedValue)
}

// Fingerprint logs the first bytes of SHA-256(data) in hex so records about
// one message can be correlated without printing it.
func Fingerprint(key string, data []byte) slog.Attr {
	sum := sha256.Sum256(data)
	return slog.String(key, hex.EncodeToString(sum[:fingerprintSize]))
}

// ParseLevel maps debug, info, warn and error to slog levels. An empty
// string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
