package syncshadow

import (
	"sync"

	"github.com/kolkov/mtcollatz/internal/probe"
	"github.com/kolkov/mtcollatz/internal/race/vectorclock"
)

// Shadow maps synchronization locations to their SyncVar. Lookups are
// safe for concurrent use; a SyncVar itself is guarded by its caller.
type Shadow struct {
	vars sync.Map // probe.Location -> *SyncVar
}

// New returns an empty Shadow.
func New() *Shadow {
	return &Shadow{}
}

// GetOrCreate returns the SyncVar for loc, creating it on first use.
func (s *Shadow) GetOrCreate(loc probe.Location) *SyncVar {
	if v, ok := s.vars.Load(loc); ok {
		return v.(*SyncVar)
	}

	v, _ := s.vars.LoadOrStore(loc, &SyncVar{})

	return v.(*SyncVar)
}

// Lookup returns the SyncVar for loc, or nil if loc was never used.
func (s *Shadow) Lookup(loc probe.Location) *SyncVar {
	v, ok := s.vars.Load(loc)
	if !ok {
		return nil
	}

	return v.(*SyncVar)
}

// Len returns the number of locations seen.
func (s *Shadow) Len() int {
	n := 0

	s.vars.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}

// Reset forgets every location. Not safe for concurrent use.
func (s *Shadow) Reset() {
	s.vars = sync.Map{}
}

// SyncVar is the release history of one synchronization object.
type SyncVar struct {
	release  *vectorclock.VectorClock
	releases uint64
}

// Acquire joins the last release clock into c. It is a no-op before the
// first release.
func (sv *SyncVar) Acquire(c *vectorclock.VectorClock) {
	if sv.release != nil {
		c.Join(sv.release)
	}
}

// Release stores a copy of c as the release clock.
func (sv *SyncVar) Release(c *vectorclock.VectorClock) {
	if sv.release == nil {
		sv.release = c.Clone()
	} else {
		sv.release.CopyFrom(c)
	}

	sv.releases++
}

// ReleaseClock returns the clock of the last release, or nil.
func (sv *SyncVar) ReleaseClock() *vectorclock.VectorClock {
	return sv.release
}

// Releases returns how many times the object was released.
func (sv *SyncVar) Releases() uint64 {
	return sv.releases
}
