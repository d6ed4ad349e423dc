// Package engine runs one stopping-time histogram computation.
//
// A run owns all of its shared state: the cursor allocator, the histogram
// accumulator and, when enabled, the hazard auditor and the claim ledger.
// Nothing is kept at package level, so runs are independent of each other.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/kolkov/mtcollatz/internal/cursor"
	"github.com/kolkov/mtcollatz/internal/histogram"
	"github.com/kolkov/mtcollatz/internal/ledger"
	"github.com/kolkov/mtcollatz/internal/log"
	"github.com/kolkov/mtcollatz/internal/metrics"
	"github.com/kolkov/mtcollatz/internal/pool"
	"github.com/kolkov/mtcollatz/internal/probe"
	"github.com/kolkov/mtcollatz/internal/race/detector"
	"github.com/kolkov/mtcollatz/internal/step"
)

var (
	// ErrInvalidThreads is returned when fewer than one worker is requested.
	ErrInvalidThreads = errors.New("thread count must be at least 1")

	// ErrRunAborted wraps the failure that terminated a run.
	ErrRunAborted = errors.New("run aborted")
)

// Config describes one run.
type Config struct {
	// Max is the inclusive upper end of [2, Max]. Values below 2 give an
	// empty run.
	Max uint64

	// Threads is the number of workers.
	Threads int

	// Mode selects the claim strategy and the matching accumulator.
	Mode cursor.Mode

	// Bound is the largest recorded stopping time. 0 means
	// histogram.DefaultBound.
	Bound uint32

	// Audit enables the hazard auditor. AuditSampleRate and AuditStacks
	// are passed on to it.
	Audit           bool
	AuditSampleRate uint64
	AuditStacks     bool

	// Ledger records every claim for verification after the run.
	Ledger bool

	// Logger receives run events. nil discards them.
	Logger *slog.Logger

	// Metrics is updated once the run has finished. nil disables it.
	Metrics *metrics.Metrics

	// compute replaces step.Checked in tests.
	compute func(uint64) (uint32, error)
}

// WorkerStats holds what one worker did. It is written only by its worker
// and read after the join.
type WorkerStats struct {
	ID       int
	Claims   uint64
	Recorded uint64
	Dropped  uint64
}

// Result is the outcome of a completed run. It is owned by the caller.
type Result struct {
	ID        ksuid.KSUID
	Mode      cursor.Mode
	Max       uint64
	Threads   int
	Bound     uint32
	Histogram *histogram.Histogram
	Elapsed   time.Duration
	Workers   []WorkerStats

	// Dropped counts values whose stopping time exceeded Bound.
	Dropped uint64

	// Hazards and AuditStats are only set by audited runs.
	Hazards    []*detector.Report
	AuditStats *detector.Stats

	// Partition is nil unless the run kept a ledger.
	Partition *ledger.Partition
}

// ElapsedSeconds returns the duration of the computation phase in seconds.
func (r *Result) ElapsedSeconds() float64 {
	return r.Elapsed.Seconds()
}

// Claims returns the number of values claimed by all workers, duplicates
// included.
func (r *Result) Claims() uint64 {
	var n uint64
	for _, w := range r.Workers {
		n += w.Claims
	}

	return n
}

// run is the state shared by the workers of one run.
type run struct {
	cfg    Config
	id     ksuid.KSUID
	logger *slog.Logger

	alloc cursor.Allocator
	acc   histogram.Accumulator

	det      *detector.Detector
	root     *detector.Context
	contexts []*detector.Context

	ledger *ledger.Ledger
	stats  []WorkerStats
}

// Run executes the computation described by cfg and blocks until every
// worker has finished.
func Run(cfg Config) (*Result, error) {
	r, err := newRun(cfg)
	if err != nil {
		return nil, err
	}

	return r.execute()
}

func newRun(cfg Config) (*run, error) {
	if cfg.Threads < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidThreads, cfg.Threads)
	}

	if cfg.Bound == 0 {
		cfg.Bound = histogram.DefaultBound
	}

	if cfg.compute == nil {
		cfg.compute = step.Checked
	}

	r := &run{
		cfg:    cfg,
		id:     ksuid.New(),
		logger: cfg.Logger,
		alloc:  cursor.New(cfg.Mode, cfg.Max),
		stats:  make([]WorkerStats, cfg.Threads),
	}

	if r.logger == nil {
		r.logger = log.Discard()
	}

	r.logger = r.logger.With(slog.String("run_id", r.id.String()), slog.String("mode", cfg.Mode.String()))

	if cfg.Mode == cursor.Racy {
		r.acc = histogram.NewRacy(cfg.Bound)
	} else {
		r.acc = histogram.NewShared(cfg.Bound)
	}

	if cfg.Audit {
		det, err := detector.New(cfg.Threads, auditOptions(cfg)...)
		if err != nil {
			return nil, err
		}

		r.det = det
		r.root = det.Root()
	}

	if cfg.Ledger {
		r.ledger = ledger.New(cfg.Threads)
	}

	return r, nil
}

func auditOptions(cfg Config) []detector.Option {
	var opts []detector.Option

	if cfg.AuditSampleRate > 1 {
		opts = append(opts, detector.WithSampleRate(cfg.AuditSampleRate))
	}

	if cfg.AuditStacks {
		opts = append(opts, detector.WithStacks())
	}

	return opts
}

func (r *run) execute() (*Result, error) {
	r.logger.Debug("run starting",
		slog.Uint64("max", r.cfg.Max),
		slog.Int("threads", r.cfg.Threads),
		slog.Uint64("bound", uint64(r.cfg.Bound)),
		slog.Bool("audit", r.det != nil),
		slog.Bool("ledger", r.ledger != nil))

	r.fork()

	start := time.Now()
	err := pool.Run(r.cfg.Threads, r.work)
	elapsed := time.Since(start)

	r.join()

	if err != nil {
		r.logger.Error("run aborted", slog.Any("error", err), slog.Duration("elapsed", elapsed))

		return nil, fmt.Errorf("%w: %w", ErrRunAborted, err)
	}

	res := r.result(elapsed)

	r.logger.Info("run finished",
		slog.Uint64("max", res.Max),
		slog.Int("threads", res.Threads),
		slog.Uint64("claims", res.Claims()),
		slog.Uint64("dropped", res.Dropped),
		slog.Duration("elapsed", res.Elapsed))

	r.logHazards(res)

	if r.cfg.Metrics != nil {
		r.cfg.Metrics.Observe(metrics.Observation{
			Mode:     res.Mode.String(),
			Threads:  res.Threads,
			Claims:   res.Claims(),
			Recorded: res.Histogram.Sum(),
			Dropped:  res.Dropped,
			Hazards:  len(res.Hazards),
			Elapsed:  res.Elapsed,
		})
	}

	return res, nil
}

// fork gives every worker its own auditor context. The cursor write
// recorded by the orchestrator stands for its initialization.
func (r *run) fork() {
	if r.det == nil {
		return
	}

	r.det.OnWrite(probe.Cursor, r.root)

	r.contexts = make([]*detector.Context, r.cfg.Threads)
	for i := range r.contexts {
		r.contexts[i] = r.det.Fork(r.root, uint16(i+1))
	}
}

func (r *run) join() {
	if r.det == nil {
		return
	}

	for _, c := range r.contexts {
		r.det.Join(r.root, c)
	}
}

// work is the pull-compute-accumulate loop of worker id.
func (r *run) work(id int, p *pool.Pool) error {
	st := &r.stats[id]
	st.ID = id

	tr := probe.Nop
	if r.det != nil {
		tr = r.det.Tracer(r.contexts[id])
	}

	for !p.Stopped() {
		v, ok := r.claim(tr)
		if !ok {
			return nil
		}

		st.Claims++

		if r.ledger != nil {
			r.ledger.Record(id, v)
		}

		s, err := r.cfg.compute(v)
		if err != nil {
			return fmt.Errorf("worker %d: value %d: %w", id, v, err)
		}

		if r.add(s, tr) {
			st.Recorded++
		} else {
			st.Dropped++
		}
	}

	return nil
}

func (r *run) claim(tr probe.Tracer) (uint64, bool) {
	if r.det == nil {
		return r.alloc.Claim()
	}

	return r.alloc.ClaimTraced(tr)
}

func (r *run) add(s uint32, tr probe.Tracer) bool {
	if r.det == nil {
		return r.acc.Add(s)
	}

	return r.acc.AddTraced(s, tr)
}

func (r *run) result(elapsed time.Duration) *Result {
	res := &Result{
		ID:        r.id,
		Mode:      r.cfg.Mode,
		Max:       r.cfg.Max,
		Threads:   r.cfg.Threads,
		Bound:     r.cfg.Bound,
		Histogram: r.acc.Snapshot(),
		Elapsed:   elapsed,
		Workers:   r.stats,
	}

	for _, w := range r.stats {
		res.Dropped += w.Dropped
	}

	if r.det != nil {
		res.Hazards = r.det.Reports()
		stats := r.det.GetStats()
		res.AuditStats = &stats
	}

	if r.ledger != nil {
		p := r.ledger.Verify(cursor.First, r.cfg.Max)
		res.Partition = &p
	}

	return res
}

func (r *run) logHazards(res *Result) {
	if res.Partition != nil && !res.Partition.Exact() {
		r.logger.Warn("claims are not a partition", slog.String("partition", res.Partition.String()))
	}

	if len(res.Hazards) == 0 {
		return
	}

	r.logger.Warn("unsynchronized accesses detected", slog.Int("hazards", len(res.Hazards)))

	for _, h := range res.Hazards {
		r.logger.Debug("hazard",
			slog.String("kind", h.Kind),
			slog.String("location", string(h.Current.Location)),
			slog.Int("worker", int(h.Current.Worker)),
			slog.Int("previous_worker", int(h.Previous.Worker)))
	}
}
