// Package epoch implements compact logical timestamps for the hazard auditor.
//
// An Epoch is a single worker's logical time packed into 64 bits:
//   - Top 16 bits: worker TID (0 is the orchestrator, workers are 1..T)
//   - Bottom 48 bits: clock value
//
// Most happens-before checks in the auditor compare one epoch against a
// vector clock, which is O(1).
package epoch

import (
	"strconv"

	"github.com/kolkov/mtcollatz/internal/race/vectorclock"
)

// Epoch is a 64-bit logical timestamp. Layout: [TID:16][Clock:48].
//
// Example: 0x0005000000001234 is TID=5, Clock=0x1234.
type Epoch uint64

const (
	// TIDBits is the number of bits for the worker TID.
	TIDBits = 16

	// ClockBits is the number of bits for the clock value.
	ClockBits = 48

	// ClockMask extracts the clock value.
	ClockMask = (uint64(1) << ClockBits) - 1
)

// NewEpoch packs tid and clock. Clock values beyond 48 bits are truncated.
//
//go:nosplit
func NewEpoch(tid uint16, clock uint64) Epoch {
	return Epoch(uint64(tid)<<ClockBits | (clock & ClockMask))
}

// Decode returns the TID and clock of e.
//
//go:nosplit
func (e Epoch) Decode() (tid uint16, clock uint64) {
	tid = uint16(e >> ClockBits) //nolint:gosec // top 16 bits
	clock = uint64(e) & ClockMask

	return tid, clock
}

// TID returns the worker id of e.
func (e Epoch) TID() uint16 {
	tid, _ := e.Decode()
	return tid
}

// HappensBefore reports whether e is ordered before the time vc describes,
// that is whether e's clock is at most vc[e's TID].
//
//go:nosplit
func (e Epoch) HappensBefore(vc *vectorclock.VectorClock) bool {
	tid, clock := e.Decode()
	return clock <= vc.Get(tid)
}

// Same reports whether e and other are identical.
//
//go:nosplit
func (e Epoch) Same(other Epoch) bool {
	return e == other
}

// String formats e as "clock@tid".
func (e Epoch) String() string {
	tid, clock := e.Decode()
	return strconv.FormatUint(clock, 10) + "@" + strconv.FormatUint(uint64(tid), 10)
}
