// Package metrics exposes per-run counters through a Prometheus registry.
//
// Each Metrics value owns its own registry, so independent runs (tests,
// benchmark batches) never share collectors. The CLI dumps the registry in
// the text exposition format when --metrics is given.
package metrics

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "mtcollatz"

// Observation is the summary of one finished run.
type Observation struct {
	Mode     string
	Threads  int
	Claims   uint64
	Recorded uint64
	Dropped  uint64
	Hazards  int
	Elapsed  time.Duration
}

// Metrics holds the collectors of a run or a batch of runs.
type Metrics struct {
	registry *prometheus.Registry

	Runs     *prometheus.CounterVec
	Claims   *prometheus.CounterVec
	Recorded *prometheus.CounterVec
	Dropped  *prometheus.CounterVec
	Hazards  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Threads  prometheus.Gauge
}

// New creates a Metrics value registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of completed runs.",
		}, []string{"mode"}),

		Claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_total",
			Help:      "Values claimed from the cursor, duplicates included.",
		}, []string{"mode"}),

		Recorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "histogram_recorded_total",
			Help:      "Stopping times present in finished histograms.",
		}, []string{"mode"}),

		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "histogram_dropped_total",
			Help:      "Values whose stopping time exceeded the histogram bound.",
		}, []string{"mode"}),

		Hazards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazards_total",
			Help:      "Distinct unsynchronized accesses reported by the auditor.",
		}, []string{"mode"}),

		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the computation phase.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"mode", "threads"}),

		Threads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threads",
			Help:      "Worker count of the most recent run.",
		}),
	}

	m.registry.MustRegister(m.Runs, m.Claims, m.Recorded, m.Dropped, m.Hazards, m.Duration, m.Threads)

	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records a finished run.
func (m *Metrics) Observe(o Observation) {
	m.Runs.WithLabelValues(o.Mode).Inc()
	m.Claims.WithLabelValues(o.Mode).Add(float64(o.Claims))
	m.Recorded.WithLabelValues(o.Mode).Add(float64(o.Recorded))
	m.Dropped.WithLabelValues(o.Mode).Add(float64(o.Dropped))
	m.Hazards.WithLabelValues(o.Mode).Add(float64(o.Hazards))
	m.Duration.WithLabelValues(o.Mode, strconv.Itoa(o.Threads)).Observe(o.Elapsed.Seconds())
	m.Threads.Set(float64(o.Threads))
}

// Gather returns the current metric families.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.registry.Gather()
}

// WriteText writes every metric family in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))

	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}

	return nil
}
