package goroutine

import (
	"github.com/kolkov/mtcollatz/internal/race/epoch"
	"github.com/kolkov/mtcollatz/internal/race/vectorclock"
)

// Context is the logical time of one worker (or of the orchestrator, TID 0).
//
// Invariant: Epoch == epoch.NewEpoch(TID, C.Get(TID)).
type Context struct {
	// TID identifies the worker. 0 is the orchestrator.
	TID uint16

	// C is the worker's full vector clock.
	C *vectorclock.VectorClock

	// Epoch caches C[TID].
	Epoch epoch.Epoch
}

// Alloc creates the context of worker tid in a run of size TIDs. Its own
// clock starts at 1, so its first epoch is never the zero "no access" value.
func Alloc(tid uint16, size int) *Context {
	ctx := &Context{TID: tid, C: vectorclock.New(size)}
	ctx.IncrementClock()

	return ctx
}

// IncrementClock advances the worker's own clock and refreshes the epoch.
func (c *Context) IncrementClock() {
	c.C.Increment(c.TID)
	c.Epoch = epoch.NewEpoch(c.TID, c.C.Get(c.TID))
}

// GetEpoch returns the cached epoch.
//
//go:nosplit
func (c *Context) GetEpoch() epoch.Epoch {
	return c.Epoch
}
