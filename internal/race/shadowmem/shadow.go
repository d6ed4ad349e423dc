package shadowmem

import "github.com/kolkov/mtcollatz/internal/probe"

// Shadow maps locations to their VarState. It is not safe for concurrent
// use.
type Shadow struct {
	vars map[probe.Location]*VarState
}

// New returns an empty Shadow.
func New() *Shadow {
	return &Shadow{vars: make(map[probe.Location]*VarState)}
}

// GetOrCreate returns the state of loc, creating an empty one on first use.
func (s *Shadow) GetOrCreate(loc probe.Location) *VarState {
	vs, ok := s.vars[loc]
	if !ok {
		vs = &VarState{}
		s.vars[loc] = vs
	}

	return vs
}

// Get returns the state of loc, or nil if it was never accessed.
func (s *Shadow) Get(loc probe.Location) *VarState {
	return s.vars[loc]
}

// Len returns the number of locations accessed.
func (s *Shadow) Len() int {
	return len(s.vars)
}

// Reset forgets every location.
func (s *Shadow) Reset() {
	clear(s.vars)
}
