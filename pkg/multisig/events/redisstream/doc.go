// Package redisstream publishes coordinator events to a Redis stream.
//
// Each event becomes one stream entry with the fields kind, session_id and
// payload. A batch is written inside MULTI/EXEC so consumers observe either
// the whole batch or none of it.
package redisstream
