// Package sqlite provides a SQLite-backed snapshot store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/keystore"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/keystore/sqlite/migrations"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
)

// Store persists snapshots in SQLite. Stored snapshots are never updated.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put registers snap. Registering an existing key id fails with
// keystore.ErrKeyExists.
func (s *Store) Put(ctx context.Context, snap multisig.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.IsZero() {
		return fmt.Errorf("%w: empty snapshot", multisig.ErrInvalidSnapshot)
	}
	if snap.Height() > math.MaxInt64 {
		return fmt.Errorf("%w: height %d out of range", multisig.ErrInvalidSnapshot, snap.Height())
	}
	var threshold string
	if !snap.Threshold().IsZero() {
		threshold = snap.Threshold().String()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (key_id, algorithm, height, threshold, total_weight, registered_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(snap.KeyID()),
		snap.Algorithm().String(),
		int64(snap.Height()),
		threshold,
		strconv.FormatUint(snap.TotalWeight(), 10),
		time.Now().UTC().UnixMilli(),
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", keystore.ErrKeyExists, snap.KeyID())
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for _, p := range snap.Participants() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_participants (key_id, participant_id, public_key, weight)
			 VALUES (?, ?, ?, ?)`,
			string(snap.KeyID()),
			string(p.ID),
			p.PublicKey,
			strconv.FormatUint(p.Weight, 10),
		); err != nil {
			return fmt.Errorf("insert participant %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put snapshot: %w", err)
	}
	return nil
}

// Snapshot implements keystore.Store.
func (s *Store) Snapshot(ctx context.Context, keyID multisig.KeyID) (multisig.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return multisig.Snapshot{}, err
	}

	var (
		algName   string
		height    int64
		threshold string
		total     string
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT algorithm, height, threshold, total_weight
		   FROM snapshots
		  WHERE key_id = ?`,
		string(keyID),
	).Scan(&algName, &height, &threshold, &total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return multisig.Snapshot{}, fmt.Errorf("%w: %s", multisig.ErrUnknownKey, keyID)
		}
		return multisig.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	alg, err := sigverify.ParseAlgorithm(algName)
	if err != nil {
		return multisig.Snapshot{}, fmt.Errorf("get snapshot %s: %w", keyID, err)
	}
	params := &multisig.SnapshotParams{KeyID: keyID, Algorithm: alg, Height: uint64(height)}
	if threshold != "" {
		if params.Threshold, err = multisig.ParseThreshold(threshold); err != nil {
			return multisig.Snapshot{}, fmt.Errorf("get snapshot %s: %w", keyID, err)
		}
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT participant_id, public_key, weight
		   FROM snapshot_participants
		  WHERE key_id = ?
		  ORDER BY participant_id ASC`,
		string(keyID),
	)
	if err != nil {
		return multisig.Snapshot{}, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p      multisig.Participant
			id     string
			weight string
		)
		if err := rows.Scan(&id, &p.PublicKey, &weight); err != nil {
			return multisig.Snapshot{}, fmt.Errorf("list participants: %w", err)
		}
		p.ID = multisig.ParticipantID(id)
		if p.Weight, err = strconv.ParseUint(weight, 10, 64); err != nil {
			return multisig.Snapshot{}, fmt.Errorf("participant %s weight: %w", id, err)
		}
		params.Participants = append(params.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return multisig.Snapshot{}, fmt.Errorf("list participants: %w", err)
	}

	snap, err := multisig.NewSnapshot(params)
	if err != nil {
		return multisig.Snapshot{}, fmt.Errorf("load snapshot %s: %w", keyID, err)
	}
	if strconv.FormatUint(snap.TotalWeight(), 10) != total {
		return multisig.Snapshot{}, fmt.Errorf("load snapshot %s: %w: stored total %s does not match participants", keyID, multisig.ErrInvalidSnapshot, total)
	}
	return snap, nil
}

// Activate makes keyID the active key.
func (s *Store) Activate(ctx context.Context, keyID multisig.KeyID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var exists int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(1) FROM snapshots WHERE key_id = ?`, string(keyID)).Scan(&exists); err != nil {
		return fmt.Errorf("check key: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", multisig.ErrUnknownKey, keyID)
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO active_key (id, key_id, activated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET key_id = excluded.key_id, activated_at = excluded.activated_at`,
		string(keyID),
		time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("activate key: %w", err)
	}
	return nil
}

// ActiveKey implements keystore.Store.
func (s *Store) ActiveKey(ctx context.Context) (multisig.KeyID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var keyID string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT key_id FROM active_key WHERE id = 1`).Scan(&keyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: no active key", multisig.ErrUnknownKey)
		}
		return "", fmt.Errorf("get active key: %w", err)
	}
	return multisig.KeyID(keyID), nil
}

// Keys returns every registered key id in ascending order.
func (s *Store) Keys(ctx context.Context) ([]multisig.KeyID, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT key_id FROM snapshots ORDER BY key_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var out []multisig.KeyID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list keys: %w", err)
		}
		out = append(out, multisig.KeyID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ keystore.Store = (*Store)(nil)
