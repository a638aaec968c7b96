package broadcast

import "sync/atomic"

// LengthCell is the process-wide authoritative length of the broadcast
// file, in bytes. The watcher is the sole writer; every client session
// loads it to decide how much it is behind. Go's atomic.Uint64 gives
// sequentially-consistent ordering, which subsumes the release/acquire
// discipline this needs.
type LengthCell struct {
	v atomic.Uint64
}

// NewLengthCell creates a cell initialized to the given length.
func NewLengthCell(initial uint64) *LengthCell {
	c := &LengthCell{}
	c.v.Store(initial)
	return c
}

// Load returns the current length.
func (c *LengthCell) Load() uint64 {
	return c.v.Load()
}

// Store sets the current length. Only the watcher calls this, and only
// with non-decreasing values — the broadcast file is assumed append-only.
func (c *LengthCell) Store(length uint64) {
	c.v.Store(length)
}
