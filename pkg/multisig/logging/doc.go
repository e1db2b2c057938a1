// Package logging is the structured logging seam of the coordinator.
//
// Logger takes a context on every call so handlers can pick up trace ids.
// New adapts any *slog.Logger:
//
//	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
//	coord, err := coordinator.New(store, sink, clock, &coordinator.Options{
//	    Logger: logging.New(slog.New(handler)),
//	})
//
// Signature bytes are never logged. Use Redacted for values that must not
// appear at all and Fingerprint for messages that should still be
// correlatable:
//
//	logger.Info(ctx, "signing session started",
//	    logging.KeySessionID, id,
//	    logging.Fingerprint("message", msg),
//	)
//	logger.Debug(ctx, "signature accepted",
//	    logging.KeySessionID, id,
//	    logging.Redacted("signature"),
//	)
package logging
