// Package stackdepot stores call stacks for hazard reports, deduplicated
// by an FNV-1a hash of their program counters.
//
// A Depot belongs to one detector. Capturing the same call path twice
// returns the same ID and stores the frames only once.
//
//	depot := stackdepot.New()
//	id := depot.Capture(0)
//	fmt.Print(depot.Get(id).Format())
package stackdepot

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"sync"
)

// MaxFrames is the deepest stack kept.
const MaxFrames = 16

// ID identifies a stored stack. The zero ID means no stack.
type ID uint64

// Stack is a captured call stack.
type Stack struct {
	PC [MaxFrames]uintptr
	n  int
}

// Depot is a concurrency-safe store of stacks.
type Depot struct {
	stacks sync.Map // ID -> *Stack
}

// New returns an empty depot.
func New() *Depot {
	return &Depot{}
}

// Capture records the stack of its caller, skipping skip additional
// frames, and returns its ID.
func (d *Depot) Capture(skip int) ID {
	var pcs [MaxFrames]uintptr

	// runtime.Callers and Capture itself.
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return 0
	}

	id := hashStack(pcs[:n])
	if _, ok := d.stacks.Load(id); !ok {
		d.stacks.LoadOrStore(id, &Stack{PC: pcs, n: n})
	}

	return id
}

// Get returns the stack stored under id, or nil.
func (d *Depot) Get(id ID) *Stack {
	if id == 0 {
		return nil
	}

	v, ok := d.stacks.Load(id)
	if !ok {
		return nil
	}

	return v.(*Stack)
}

// Len returns the number of distinct stacks stored.
func (d *Depot) Len() int {
	n := 0

	d.stacks.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}

func hashStack(pcs []uintptr) ID {
	h := fnv.New64a()

	var b [8]byte
	for _, pc := range pcs {
		binary.LittleEndian.PutUint64(b[:], uint64(pc))
		_, _ = h.Write(b[:])
	}

	// Zero is reserved for "no stack".
	return ID(h.Sum64() | 1)
}

// Frames returns the symbolized frames of the stack.
func (s *Stack) Frames() []runtime.Frame {
	if s == nil || s.n == 0 {
		return nil
	}

	var out []runtime.Frame

	frames := runtime.CallersFrames(s.PC[:s.n])
	for {
		f, more := frames.Next()
		out = append(out, f)

		if !more {
			break
		}
	}

	return out
}

// Format renders the stack as Go's race detector does, one function and
// one file:line per frame. Runtime frames and frames whose function name
// contains one of hide are left out.
func (s *Stack) Format(hide ...string) string {
	var buf strings.Builder

frames:
	for _, f := range s.Frames() {
		if strings.HasPrefix(f.Function, "runtime.") {
			continue
		}

		for _, h := range hide {
			if strings.Contains(f.Function, h) {
				continue frames
			}
		}

		fmt.Fprintf(&buf, "  %s()\n      %s:%d\n", f.Function, f.File, f.Line)
	}

	if buf.Len() == 0 {
		return "  <unknown>\n"
	}

	return buf.String()
}
