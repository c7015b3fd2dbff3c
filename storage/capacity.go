package storage

import (
	"fmt"
	"sync/atomic"

	"upload-lab/errors"
)

// CapacityGuard remembers the last free-space reading of the uploads volume.
// Until the first reading it lets every chunk through.
type CapacityGuard struct {
	floor uint64
	free  atomic.Uint64
	low   atomic.Bool
}

func NewCapacityGuard(floorBytes uint64) *CapacityGuard {
	return &CapacityGuard{floor: floorBytes}
}

// Observe stores a reading and reports whether the low-space state flipped.
func (g *CapacityGuard) Observe(freeBytes uint64) (low bool, changed bool) {
	g.free.Store(freeBytes)
	low = g.floor > 0 && freeBytes < g.floor
	return low, g.low.Swap(low) != low
}

func (g *CapacityGuard) Free() uint64 { return g.free.Load() }

// Check fails with ErrInsufficientStorage while the volume is below the floor.
func (g *CapacityGuard) Check() error {
	if g == nil || !g.low.Load() {
		return nil
	}
	return fmt.Errorf("%w: %d bytes free, floor is %d", errors.ErrInsufficientStorage, g.free.Load(), g.floor)
}
