package cursor

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kolkov/mtcollatz/internal/probe"
)

// First is the first value of every range.
const First uint64 = 2

// ErrUnknownMode is returned by ParseMode for unrecognized names.
var ErrUnknownMode = errors.New("unknown cursor mode")

// Mode selects the claim discipline of an Allocator.
type Mode int

const (
	// Safe claims under a mutex.
	Safe Mode = iota

	// Racy claims with an unsynchronized read-increment.
	Racy
)

// String returns "safe" or "racy".
func (m Mode) String() string {
	switch m {
	case Safe:
		return "safe"
	case Racy:
		return "racy"
	default:
		return "Mode(" + fmt.Sprint(int(m)) + ")"
	}
}

// ParseMode converts "safe" or "racy" (case-insensitive) into a Mode.
// "nolock" is accepted as an alias for racy.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safe", "lock", "":
		return Safe, nil
	case "racy", "nolock":
		return Racy, nil
	default:
		return Safe, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Allocator hands out unclaimed values of [First, Max()].
type Allocator interface {
	// Claim returns the next unclaimed value and true, or 0 and false once
	// the range is exhausted.
	Claim() (uint64, bool)

	// ClaimTraced is Claim reporting its accesses to tr.
	ClaimTraced(tr probe.Tracer) (uint64, bool)

	// Max returns the inclusive upper bound.
	Max() uint64

	// Mode returns the claim discipline.
	Mode() Mode
}

// New returns the Allocator variant for mode over [First, max].
func New(mode Mode, max uint64) Allocator {
	if mode == Racy {
		return NewRacy(max)
	}

	return NewSafe(max)
}

// SafeAllocator claims values under a mutex.
type SafeAllocator struct {
	mu   sync.Mutex
	next uint64
	max  uint64
}

// NewSafe creates a mutex-guarded allocator over [First, max].
// If max < First the allocator starts exhausted.
func NewSafe(max uint64) *SafeAllocator {
	return &SafeAllocator{next: First, max: max}
}

// Claim implements Allocator.
func (a *SafeAllocator) Claim() (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	v := a.next
	if v > a.max {
		return 0, false
	}

	a.next = v + 1

	return v, true
}

// ClaimTraced implements Allocator.
func (a *SafeAllocator) ClaimTraced(tr probe.Tracer) (uint64, bool) {
	a.mu.Lock()
	tr.Acquire(probe.CursorLock)

	defer func() {
		tr.Release(probe.CursorLock)
		a.mu.Unlock()
	}()

	tr.Read(probe.Cursor)

	v := a.next
	if v > a.max {
		return 0, false
	}

	tr.Write(probe.Cursor)

	a.next = v + 1

	return v, true
}

// Max implements Allocator.
func (a *SafeAllocator) Max() uint64 { return a.max }

// Mode implements Allocator.
func (a *SafeAllocator) Mode() Mode { return Safe }

// RacyAllocator claims values without any synchronization.
//
// Concurrent use loses updates by design; see the package documentation.
type RacyAllocator struct {
	next uint64
	max  uint64
}

// NewRacy creates an unsynchronized allocator over [First, max].
// If max < First the allocator starts exhausted.
func NewRacy(max uint64) *RacyAllocator {
	return &RacyAllocator{next: First, max: max}
}

// Claim implements Allocator. The read and the write are separate,
// unsynchronized memory operations.
func (a *RacyAllocator) Claim() (uint64, bool) {
	v := a.next
	if v > a.max {
		return 0, false
	}

	a.next = v + 1

	return v, true
}

// ClaimTraced implements Allocator.
func (a *RacyAllocator) ClaimTraced(tr probe.Tracer) (uint64, bool) {
	tr.Read(probe.Cursor)

	v := a.next
	if v > a.max {
		return 0, false
	}

	tr.Write(probe.Cursor)

	a.next = v + 1

	return v, true
}

// Max implements Allocator.
func (a *RacyAllocator) Max() uint64 { return a.max }

// Mode implements Allocator.
func (a *RacyAllocator) Mode() Mode { return Racy }

var (
	_ Allocator = (*SafeAllocator)(nil)
	_ Allocator = (*RacyAllocator)(nil)
)
