// Package vectorclock implements vector clocks for tracking happens-before
// relations between the workers of a run.
//
// Key operations:
//   - Join: point-wise maximum, used on lock acquire and on worker join
//   - LessOrEqual: partial order, used for hazard checks
//
// A run knows its worker count up front, so clocks are sized to T+1 entries
// (TID 0 is the orchestrator) and grow only if a larger TID is touched.
package vectorclock

import (
	"strconv"
	"strings"
)

// VectorClock maps worker TIDs to clock values. The zero value is an empty
// clock where every entry reads as 0.
type VectorClock struct {
	c []uint64
}

// New creates a zero clock with room for tids 0..size-1.
func New(size int) *VectorClock {
	return &VectorClock{c: make([]uint64, size)}
}

// Clone returns a deep copy of vc.
func (vc *VectorClock) Clone() *VectorClock {
	return &VectorClock{c: append([]uint64(nil), vc.c...)}
}

// Len returns the number of allocated entries.
func (vc *VectorClock) Len() int {
	return len(vc.c)
}

// Join performs vc = vc ⊔ other.
func (vc *VectorClock) Join(other *VectorClock) {
	if other == nil {
		return
	}

	vc.grow(len(other.c))

	for i, v := range other.c {
		if v > vc.c[i] {
			vc.c[i] = v
		}
	}
}

// CopyFrom makes vc an exact copy of other, reusing vc's storage.
func (vc *VectorClock) CopyFrom(other *VectorClock) {
	vc.c = append(vc.c[:0], other.c...)
}

// LessOrEqual reports vc ⊑ other: vc[i] <= other[i] for every i.
func (vc *VectorClock) LessOrEqual(other *VectorClock) bool {
	for i, v := range vc.c {
		if v > other.Get(uint16(i)) { //nolint:gosec // TIDs are 16-bit
			return false
		}
	}

	return true
}

// HappensBefore is an alias for LessOrEqual.
func (vc *VectorClock) HappensBefore(other *VectorClock) bool {
	return vc.LessOrEqual(other)
}

// Increment advances the clock of tid.
func (vc *VectorClock) Increment(tid uint16) {
	vc.grow(int(tid) + 1)
	vc.c[tid]++
}

// Get returns the clock of tid, 0 if never set.
func (vc *VectorClock) Get(tid uint16) uint64 {
	if int(tid) >= len(vc.c) {
		return 0
	}

	return vc.c[tid]
}

// Set sets the clock of tid.
func (vc *VectorClock) Set(tid uint16, clock uint64) {
	vc.grow(int(tid) + 1)
	vc.c[tid] = clock
}

// String formats the non-zero entries as "{tid:clock, ...}".
func (vc *VectorClock) String() string {
	var parts []string

	for i, v := range vc.c {
		if v != 0 {
			parts = append(parts, strconv.Itoa(i)+":"+strconv.FormatUint(v, 10))
		}
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

func (vc *VectorClock) grow(n int) {
	if n > len(vc.c) {
		vc.c = append(vc.c, make([]uint64, n-len(vc.c))...)
	}
}
