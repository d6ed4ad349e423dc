package detector

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kolkov/mtcollatz/internal/probe"
	"github.com/kolkov/mtcollatz/internal/race/epoch"
	"github.com/kolkov/mtcollatz/internal/race/goroutine"
	"github.com/kolkov/mtcollatz/internal/race/shadowmem"
	"github.com/kolkov/mtcollatz/internal/race/stackdepot"
	"github.com/kolkov/mtcollatz/internal/race/syncshadow"
)

// MaxWorkers is the largest worker count the 16-bit TID space can audit.
// TID 0 is reserved for the orchestrator.
const MaxWorkers = 1<<epoch.TIDBits - 1

// ErrTooManyWorkers is returned by New when workers exceeds MaxWorkers.
var ErrTooManyWorkers = errors.New("too many workers to audit")

// Stats counts the events the detector has processed.
type Stats struct {
	Reads         uint64 // Recorded read accesses.
	Writes        uint64 // Recorded write accesses.
	Skipped       uint64 // Accesses dropped by the sampler.
	Acquires      uint64 // Lock acquisitions.
	Releases      uint64 // Lock releases.
	Promotions    uint64 // Epoch to vector clock read promotions.
	Demotions     uint64 // Vector clock to epoch demotions on write.
	FastPathReads uint64 // Reads tracked as a single epoch.
	SlowPathReads uint64 // Reads joined into a promoted vector clock.
}

// Context is the logical time of one worker of an audited run.
type Context = goroutine.Context

// Detector tracks happens-before between the workers of one run.
type Detector struct {
	mu sync.Mutex

	size    int
	sampler *Sampler

	vars  *shadowmem.Shadow
	syncs *syncshadow.Shadow

	reported map[string]struct{}
	reports  []*Report
	stats    Stats

	// stacks is nil unless WithStacks was given.
	stacks *stackdepot.Depot
}

// Option configures a Detector.
type Option func(*Detector)

// WithSampleRate records only one in rate memory accesses. Lock events are
// always recorded. A rate of 0 or 1 records everything.
func WithSampleRate(rate uint64) Option {
	return func(d *Detector) {
		d.sampler = NewSampler(SamplerConfig{Enabled: rate > 1, Rate: rate})
	}
}

// WithStacks captures the call stack of every write and of each access
// that triggers a report, so reports show both sides.
func WithStacks() Option {
	return func(d *Detector) {
		d.stacks = stackdepot.New()
	}
}

// New creates a detector for a run with the given number of workers.
func New(workers int, opts ...Option) (*Detector, error) {
	if workers < 0 || workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyWorkers, workers, MaxWorkers)
	}

	d := &Detector{
		size:     workers + 1,
		sampler:  NewSampler(SamplerConfig{}),
		vars:     shadowmem.New(),
		syncs:    syncshadow.New(),
		reported: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Root returns a fresh context for the orchestrator (TID 0).
func (d *Detector) Root() *Context {
	return goroutine.Alloc(0, d.size)
}

// Fork creates the context of worker tid started by parent. Everything
// parent did so far happens-before everything the worker does.
func (d *Detector) Fork(parent *Context, tid uint16) *Context {
	d.mu.Lock()
	defer d.mu.Unlock()

	child := goroutine.Alloc(tid, d.size)
	child.C.Join(parent.C)
	parent.IncrementClock()

	return child
}

// Join records that parent waited for child to finish.
func (d *Detector) Join(parent, child *Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	parent.C.Join(child.C)
	parent.IncrementClock()
}

// OnWrite records a write to loc by ctx.
func (d *Detector) OnWrite(loc probe.Location, ctx *Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.sampler.ShouldSample() {
		d.stats.Skipped++
		return
	}

	vs := d.vars.GetOrCreate(loc)
	cur := ctx.GetEpoch()

	if vs.W.Same(cur) {
		return
	}

	stack := d.capture()

	if vs.W != 0 && !vs.W.HappensBefore(ctx.C) {
		d.report(RaceTypeWriteWrite, loc, vs.W, cur, vs.WriteStack, stack)
	}

	if !vs.IsPromoted() {
		if r := vs.ReadEpoch; r != 0 && r.TID() != ctx.TID && !r.HappensBefore(ctx.C) {
			d.report(RaceTypeReadWrite, loc, r, cur, 0, stack)
		}
	} else if r := vs.ConcurrentReader(ctx.C); r != 0 && r.TID() != ctx.TID {
		d.report(RaceTypeReadWrite, loc, r, cur, 0, stack)
	}

	vs.W = cur
	vs.WriteStack = stack

	if vs.IsPromoted() {
		d.stats.Demotions++
	}

	vs.Demote()

	d.stats.Writes++
	ctx.IncrementClock()
}

// OnRead records a read of loc by ctx.
func (d *Detector) OnRead(loc probe.Location, ctx *Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.sampler.ShouldSample() {
		d.stats.Skipped++
		return
	}

	vs := d.vars.GetOrCreate(loc)
	cur := ctx.GetEpoch()

	if vs.W != 0 && !vs.W.HappensBefore(ctx.C) {
		d.report(RaceTypeWriteRead, loc, vs.W, cur, vs.WriteStack, d.capture())
	}

	d.stats.Reads++

	if vs.IsPromoted() {
		d.stats.SlowPathReads++
		vs.ReadClock.Join(ctx.C)
		ctx.IncrementClock()

		return
	}

	d.stats.FastPathReads++

	prev := vs.ReadEpoch

	switch {
	case prev.Same(cur):
		return
	case prev == 0, prev.TID() == ctx.TID, prev.HappensBefore(ctx.C):
		vs.ReadEpoch = cur
	default:
		vs.Promote(ctx.C, d.size)
		d.stats.Promotions++
	}

	ctx.IncrementClock()
}

// OnAcquire records ctx obtaining the lock at loc.
func (d *Detector) OnAcquire(loc probe.Location, ctx *Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.syncs.GetOrCreate(loc).Acquire(ctx.C)

	d.stats.Acquires++
}

// OnRelease records ctx releasing the lock at loc.
func (d *Detector) OnRelease(loc probe.Location, ctx *Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.syncs.GetOrCreate(loc).Release(ctx.C)
	ctx.IncrementClock()

	d.stats.Releases++
}

// Tracer binds ctx to the detector as a probe.Tracer.
func (d *Detector) Tracer(ctx *Context) probe.Tracer {
	return &tracer{d: d, ctx: ctx}
}

// RacesDetected returns the number of distinct hazards reported.
func (d *Detector) RacesDetected() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.reports)
}

// Reports returns the distinct hazards in detection order.
func (d *Detector) Reports() []*Report {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]*Report(nil), d.reports...)
}

// GetStats returns a copy of the event counters.
func (d *Detector) GetStats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.stats
}

// Reset clears all history so the detector can audit another run with the
// same worker count. Contexts handed out earlier must not be reused.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.vars.Reset()
	d.syncs.Reset()
	d.reported = make(map[string]struct{})
	d.reports = nil
	d.stats = Stats{}
}

// capture records the stack of the instrumented access: the caller of
// the tracer or of the On* method that called capture.
func (d *Detector) capture() stackdepot.ID {
	if d.stacks == nil {
		return 0
	}

	return d.stacks.Capture(2)
}

// report records a hazard unless the same kind was already seen at loc
// between the same pair of workers. Callers hold d.mu.
func (d *Detector) report(raceType string, loc probe.Location, prev, cur epoch.Epoch, prevStack, curStack stackdepot.ID) {
	r := newReport(raceType, loc, prev, cur)
	if _, dup := d.reported[r.DeduplicationKey]; dup {
		return
	}

	if d.stacks != nil {
		r.Previous.Stack = d.stacks.Get(prevStack)
		r.Current.Stack = d.stacks.Get(curStack)
	}

	d.reported[r.DeduplicationKey] = struct{}{}
	d.reports = append(d.reports, r)
}

type tracer struct {
	d   *Detector
	ctx *Context
}

func (t *tracer) Acquire(loc probe.Location) { t.d.OnAcquire(loc, t.ctx) }
func (t *tracer) Release(loc probe.Location) { t.d.OnRelease(loc, t.ctx) }
func (t *tracer) Read(loc probe.Location)    { t.d.OnRead(loc, t.ctx) }
func (t *tracer) Write(loc probe.Location)   { t.d.OnWrite(loc, t.ctx) }
