// Package probe defines the hooks shared-state owners call so an observer can
// follow the synchronization and memory accesses of a single worker.
//
// The cursor allocator and the histogram accumulators report their accesses
// through a Tracer. The default Nop tracer discards everything; the hazard
// auditor in internal/race/detector binds one tracer per worker.
package probe

import "strconv"

// Location names a shared variable or lock observed by a Tracer.
type Location string

// Well-known locations.
const (
	// Cursor is the shared next-value position.
	Cursor Location = "cursor"

	// CursorLock is the mutex guarding Cursor in safe mode.
	CursorLock Location = "cursor.mu"
)

// Tracer receives the accesses a single worker performs on shared state.
//
// Implementations are bound to one worker and are not called concurrently
// for the same worker.
type Tracer interface {
	// Acquire records obtaining the synchronization object at loc.
	Acquire(loc Location)

	// Release records releasing the synchronization object at loc.
	Release(loc Location)

	// Read records a read of the shared variable at loc.
	Read(loc Location)

	// Write records a write of the shared variable at loc.
	Write(loc Location)
}

// Nop is a Tracer that ignores every event.
var Nop Tracer = nop{}

type nop struct{}

func (nop) Acquire(Location) {}
func (nop) Release(Location) {}
func (nop) Read(Location)    {}
func (nop) Write(Location)   {}

// Slot returns the Location of histogram slot k.
func Slot(k uint32) Location {
	return Location("histogram[" + strconv.FormatUint(uint64(k), 10) + "]")
}
