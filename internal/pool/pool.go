// Package pool runs a fixed number of workers and waits for all of them.
//
// Run owns every goroutine it starts: it returns only after each worker has
// returned, on the success path and on the failure path alike. A worker that
// panics is converted into an ErrWorkerPanic error; the first error of any
// worker is returned and the others are told to stop through Stopped.
package pool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidSize is returned when the pool size is below 1.
	ErrInvalidSize = errors.New("pool size must be at least 1")

	// ErrWorkerPanic wraps a panic recovered from a worker.
	ErrWorkerPanic = errors.New("worker panicked")
)

// Worker is the body run by every pool member. id is in [0, size).
type Worker func(id int, p *Pool) error

// Pool is the handle workers use to check for a run-wide abort.
type Pool struct {
	size    int
	stopped atomic.Bool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Stopped reports whether another worker has failed. Workers should return
// promptly once it is true.
func (p *Pool) Stopped() bool {
	return p.stopped.Load()
}

// Run starts size workers running body and blocks until all have returned.
func Run(size int, body Worker) error {
	if size < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	p := &Pool{size: size}
	g := new(errgroup.Group)

	for id := range size {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: worker %d: %v\n%s", ErrWorkerPanic, id, r, debug.Stack())
				}

				if err != nil {
					p.stopped.Store(true)
				}
			}()

			return body(id, p)
		})
	}

	return g.Wait()
}
