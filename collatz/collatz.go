package collatz

import (
	"log/slog"

	"github.com/kolkov/mtcollatz/internal/cursor"
	"github.com/kolkov/mtcollatz/internal/engine"
	"github.com/kolkov/mtcollatz/internal/histogram"
	"github.com/kolkov/mtcollatz/internal/metrics"
)

// Mode selects how workers claim values and update the histogram.
type Mode = cursor.Mode

// Claim modes.
const (
	// Safe claims under a mutex and updates slots atomically.
	Safe = cursor.Safe

	// Racy claims and updates without synchronization.
	Racy = cursor.Racy
)

// DefaultBound is the largest stopping time recorded unless WithBound is given.
const DefaultBound = histogram.DefaultBound

type (
	// Result is the outcome of a completed run.
	Result = engine.Result

	// WorkerStats holds the counters of one worker.
	WorkerStats = engine.WorkerStats

	// Histogram is an immutable stopping-time histogram.
	Histogram = histogram.Histogram

	// Metrics is a Prometheus registry with run counters.
	Metrics = metrics.Metrics
)

var (
	// ErrInvalidThreads is returned when threads is below 1.
	ErrInvalidThreads = engine.ErrInvalidThreads

	// ErrRunAborted wraps the failure of a worker. No result is returned.
	ErrRunAborted = engine.ErrRunAborted

	// ErrUnknownMode is returned by ParseMode.
	ErrUnknownMode = cursor.ErrUnknownMode
)

// Option configures a run.
type Option func(*engine.Config)

// WithMode selects the claim mode. The default is Safe.
func WithMode(m Mode) Option {
	return func(c *engine.Config) {
		c.Mode = m
	}
}

// WithRaceSafe selects Safe when safe is true and Racy otherwise.
func WithRaceSafe(safe bool) Option {
	if safe {
		return WithMode(Safe)
	}

	return WithMode(Racy)
}

// WithBound sets the largest recorded stopping time. Values with a larger
// stopping time are counted in Result.Dropped. 0 restores DefaultBound.
func WithBound(bound uint32) Option {
	return func(c *engine.Config) {
		c.Bound = bound
	}
}

// WithAudit enables the hazard auditor.
func WithAudit() Option {
	return func(c *engine.Config) {
		c.Audit = true
	}
}

// WithAuditSampleRate enables the auditor and records one in rate memory
// accesses. Lock events are always recorded.
func WithAuditSampleRate(rate uint64) Option {
	return func(c *engine.Config) {
		c.Audit = true
		c.AuditSampleRate = rate
	}
}

// WithAuditStacks enables the auditor and captures the stack of every
// access that triggers a report.
func WithAuditStacks() Option {
	return func(c *engine.Config) {
		c.Audit = true
		c.AuditStacks = true
	}
}

// WithLedger records every claim and sets Result.Partition.
func WithLedger() Option {
	return func(c *engine.Config) {
		c.Ledger = true
	}
}

// WithLogger sends run events to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *engine.Config) {
		c.Logger = l
	}
}

// WithMetrics records the finished run in m.
func WithMetrics(m *Metrics) Option {
	return func(c *engine.Config) {
		c.Metrics = m
	}
}

// NewMetrics returns a Metrics value with its own registry.
func NewMetrics() *Metrics {
	return metrics.New()
}

// ParseMode accepts "safe" or "lock" for Safe and "racy" or "nolock" for Racy.
func ParseMode(s string) (Mode, error) {
	return cursor.ParseMode(s)
}

// Run computes the stopping-time histogram of [2, maxValue] with threads
// workers and blocks until all of them have finished. A maxValue below 2
// gives an empty histogram.
func Run(maxValue uint64, threads int, opts ...Option) (*Result, error) {
	cfg := engine.Config{Max: maxValue, Threads: threads}

	for _, opt := range opts {
		opt(&cfg)
	}

	return engine.Run(cfg)
}
