package coordinator

import "sync/atomic"

// Clock supplies the current logical height, typically a block height. The
// coordinator reads it once per call and never advances it.
type Clock interface {
	Height() uint64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() uint64

// Height implements Clock.
func (f ClockFunc) Height() uint64 { return f() }

// ManualClock is a Clock moved explicitly by its owner. It is safe for
// concurrent use.
type ManualClock struct {
	height atomic.Uint64
}

// NewManualClock returns a clock positioned at height.
func NewManualClock(height uint64) *ManualClock {
	c := &ManualClock{}
	c.height.Store(height)
	return c
}

// Height implements Clock.
func (c *ManualClock) Height() uint64 { return c.height.Load() }

// Set moves the clock to height.
func (c *ManualClock) Set(height uint64) { c.height.Store(height) }

// Advance moves the clock forward by n and returns the new height.
func (c *ManualClock) Advance(n uint64) uint64 { return c.height.Add(n) }
