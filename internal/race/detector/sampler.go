package detector

// SamplerConfig configures sampling of memory accesses.
//
// Sampling trades detection rate for speed on long racy runs: with Rate=10
// only one access in ten is checked and recorded.
type SamplerConfig struct {
	// Enabled turns sampling on. When false every access is checked.
	Enabled bool

	// Rate checks one access in Rate. 0 and 1 both mean every access.
	Rate uint64
}

// Sampler decides which accesses the detector records.
//
// It uses a counter instead of an RNG, in the spirit of TSAN's trace_pos:
// selection is deterministic for a given access order. The detector calls
// it under its own mutex, so the counter needs no atomics.
type Sampler struct {
	config   SamplerConfig
	tracePos uint64
}

// NewSampler creates a Sampler. A zero rate is normalized to 1.
func NewSampler(config SamplerConfig) *Sampler {
	if config.Rate == 0 {
		config.Rate = 1
	}

	return &Sampler{config: config}
}

// ShouldSample reports whether the current access is checked.
func (s *Sampler) ShouldSample() bool {
	if !s.IsEnabled() {
		return true
	}

	s.tracePos++

	return s.tracePos%s.config.Rate == 0
}

// IsEnabled reports whether sampling skips any accesses.
func (s *Sampler) IsEnabled() bool {
	return s.config.Enabled && s.config.Rate > 1
}

// EffectiveRate returns the rate in use, 1 when sampling is off.
func (s *Sampler) EffectiveRate() uint64 {
	if !s.IsEnabled() {
		return 1
	}

	return s.config.Rate
}

// ExpectedDetectionRate returns the probability that a hazard spanning
// accesses checks is seen at least once: 1 - (1 - 1/R)^N.
func (s *Sampler) ExpectedDetectionRate(accesses int) float64 {
	if !s.IsEnabled() || accesses <= 0 {
		return 1.0
	}

	miss := 1.0
	for range accesses {
		miss *= 1.0 - 1.0/float64(s.config.Rate)
	}

	return 1.0 - miss
}
