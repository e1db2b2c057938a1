package keystore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
)

// ErrKeyExists reports an attempt to register a key id twice.
var ErrKeyExists = errors.New("key already registered")

// Store is the read-only view of key management used by the coordinator.
type Store interface {
	// Snapshot returns the snapshot registered for keyID, or an error matching
	// multisig.ErrUnknownKey.
	Snapshot(ctx context.Context, keyID multisig.KeyID) (multisig.Snapshot, error)
	// ActiveKey returns the key new sessions sign under by default, or an
	// error matching multisig.ErrUnknownKey when none is active.
	ActiveKey(ctx context.Context) (multisig.KeyID, error)
}

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	snapshots map[multisig.KeyID]multisig.Snapshot
	active    multisig.KeyID
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{snapshots: make(map[multisig.KeyID]multisig.Snapshot)}
}

// Put registers snap under its key id. Registering the same id twice fails
// with ErrKeyExists.
func (m *Memory) Put(_ context.Context, snap multisig.Snapshot) error {
	if snap.IsZero() {
		return fmt.Errorf("%w: empty snapshot", multisig.ErrInvalidSnapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[snap.KeyID()]; ok {
		return fmt.Errorf("%w: %s", ErrKeyExists, snap.KeyID())
	}
	m.snapshots[snap.KeyID()] = snap
	return nil
}

// Activate makes keyID the active key.
func (m *Memory) Activate(_ context.Context, keyID multisig.KeyID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[keyID]; !ok {
		return fmt.Errorf("%w: %s", multisig.ErrUnknownKey, keyID)
	}
	m.active = keyID
	return nil
}

// Snapshot implements Store.
func (m *Memory) Snapshot(_ context.Context, keyID multisig.KeyID) (multisig.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[keyID]
	if !ok {
		return multisig.Snapshot{}, fmt.Errorf("%w: %s", multisig.ErrUnknownKey, keyID)
	}
	return snap, nil
}

// ActiveKey implements Store.
func (m *Memory) ActiveKey(context.Context) (multisig.KeyID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == "" {
		return "", fmt.Errorf("%w: no active key", multisig.ErrUnknownKey)
	}
	return m.active, nil
}

// Keys returns the registered key ids in no particular order.
func (m *Memory) Keys() []multisig.KeyID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]multisig.KeyID, 0, len(m.snapshots))
	for id := range m.snapshots {
		out = append(out, id)
	}
	return out
}

var _ Store = (*Memory)(nil)
