// Package histogram accumulates stopping times into a fixed-size array.
//
// The array has one slot per stopping time in [0, Bound]. A stopping time
// larger than Bound is not recorded: Add reports false and the caller is
// expected to count the value as dropped. The array is never grown.
//
// Accumulators come in two flavors matching the cursor modes: Shared
// increments slots with atomic adds, Racy increments them with a plain
// read-modify-write and can lose counts under contention.
package histogram

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/kolkov/mtcollatz/internal/probe"
)

// DefaultBound is the largest stopping time recorded by default.
const DefaultBound = 1000

// Accumulator is the mutable, shared side of a histogram during a run.
type Accumulator interface {
	// Add increments slot st. It returns false, leaving every slot
	// untouched, when st exceeds the bound.
	Add(st uint32) bool

	// AddTraced is Add reporting its accesses to tr.
	AddTraced(st uint32, tr probe.Tracer) bool

	// Bound returns the largest recordable stopping time.
	Bound() uint32

	// Snapshot copies the current counts into an immutable Histogram.
	// It must not be called while workers are still adding.
	Snapshot() *Histogram
}

// Shared is an Accumulator whose slot increments are atomic.
type Shared struct {
	counts []atomic.Uint64
}

// NewShared creates an atomic accumulator for stopping times up to bound.
func NewShared(bound uint32) *Shared {
	return &Shared{counts: make([]atomic.Uint64, int(bound)+1)}
}

// Add implements Accumulator.
func (s *Shared) Add(st uint32) bool {
	if int(st) >= len(s.counts) {
		return false
	}

	s.counts[st].Add(1)

	return true
}

// AddTraced implements Accumulator. The atomic add is reported as a
// read-modify-write inside an acquire/release pair on the slot.
func (s *Shared) AddTraced(st uint32, tr probe.Tracer) bool {
	if int(st) >= len(s.counts) {
		return false
	}

	loc := probe.Slot(st)

	tr.Acquire(loc)
	tr.Read(loc)
	tr.Write(loc)
	s.counts[st].Add(1)
	tr.Release(loc)

	return true
}

// Bound implements Accumulator.
func (s *Shared) Bound() uint32 {
	return uint32(len(s.counts) - 1) //nolint:gosec // length is bound+1
}

// Snapshot implements Accumulator.
func (s *Shared) Snapshot() *Histogram {
	out := make([]uint64, len(s.counts))
	for i := range s.counts {
		out[i] = s.counts[i].Load()
	}

	return &Histogram{counts: out}
}

// Racy is an Accumulator whose slot increments are unsynchronized.
type Racy struct {
	counts []uint64
}

// NewRacy creates an unsynchronized accumulator for stopping times up to bound.
func NewRacy(bound uint32) *Racy {
	return &Racy{counts: make([]uint64, int(bound)+1)}
}

// Add implements Accumulator.
func (r *Racy) Add(st uint32) bool {
	if int(st) >= len(r.counts) {
		return false
	}

	r.counts[st]++

	return true
}

// AddTraced implements Accumulator.
func (r *Racy) AddTraced(st uint32, tr probe.Tracer) bool {
	if int(st) >= len(r.counts) {
		return false
	}

	loc := probe.Slot(st)

	tr.Read(loc)
	tr.Write(loc)
	r.counts[st]++

	return true
}

// Bound implements Accumulator.
func (r *Racy) Bound() uint32 {
	return uint32(len(r.counts) - 1) //nolint:gosec // length is bound+1
}

// Snapshot implements Accumulator.
func (r *Racy) Snapshot() *Histogram {
	return &Histogram{counts: append([]uint64(nil), r.counts...)}
}

// Histogram is the finished, read-only result of a run.
type Histogram struct {
	counts []uint64
}

// New returns an all-zero Histogram with the given bound.
func New(bound uint32) *Histogram {
	return &Histogram{counts: make([]uint64, int(bound)+1)}
}

// FromCounts builds a Histogram from a slot slice; index i is stopping time i.
// The slice is copied.
func FromCounts(counts []uint64) *Histogram {
	if len(counts) == 0 {
		return New(0)
	}

	return &Histogram{counts: append([]uint64(nil), counts...)}
}

// Bound returns the largest recordable stopping time.
func (h *Histogram) Bound() uint32 {
	return uint32(len(h.counts) - 1) //nolint:gosec // length is bound+1
}

// Count returns how many values had stopping time k. Out-of-range k yields 0.
func (h *Histogram) Count(k uint32) uint64 {
	if int(k) >= len(h.counts) {
		return 0
	}

	return h.counts[k]
}

// Counts returns a copy of all slots, index i being stopping time i.
func (h *Histogram) Counts() []uint64 {
	return append([]uint64(nil), h.counts...)
}

// Sum returns the total number of recorded values.
func (h *Histogram) Sum() uint64 {
	var total uint64
	for _, c := range h.counts {
		total += c
	}

	return total
}

// Equal reports whether both histograms have the same bound and counts.
func (h *Histogram) Equal(other *Histogram) bool {
	if other == nil || len(h.counts) != len(other.counts) {
		return false
	}

	for i := range h.counts {
		if h.counts[i] != other.counts[i] {
			return false
		}
	}

	return true
}

// Diff returns the slots where h and other differ, mapped to h-other.
func (h *Histogram) Diff(other *Histogram) map[uint32]int64 {
	diff := make(map[uint32]int64)

	n := max(len(h.counts), len(other.counts))
	for i := range n {
		k := uint32(i) //nolint:gosec // bounded by slot count
		if d := int64(h.Count(k)) - int64(other.Count(k)); d != 0 { //nolint:gosec // counts fit int64
			diff[k] = d
		}
	}

	return diff
}

// WriteTo prints slots 1..Bound, one per line, as "<k = i>, <count>".
func (h *Histogram) WriteTo(w io.Writer) (int64, error) {
	var written int64

	for k := 1; k < len(h.counts); k++ {
		n, err := fmt.Fprintf(w, "<k = %d>, <%d>\n", k, h.counts[k])
		written += int64(n)

		if err != nil {
			return written, err
		}
	}

	return written, nil
}

var (
	_ Accumulator = (*Shared)(nil)
	_ Accumulator = (*Racy)(nil)
	_ io.WriterTo = (*Histogram)(nil)
)
