package collatz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDefaults(t *testing.T) {
	res, err := Run(1000, 4)
	require.NoError(t, err)

	assert.Equal(t, Safe, res.Mode)
	assert.Equal(t, uint32(DefaultBound), res.Bound)
	assert.Equal(t, uint64(999), res.Histogram.Sum()+res.Dropped)
	assert.Nil(t, res.Partition)
	assert.Nil(t, res.AuditStats)
}

func TestRunOptions(t *testing.T) {
	m := NewMetrics()

	res, err := Run(300, 3,
		WithRaceSafe(true),
		WithBound(50),
		WithAuditSampleRate(1),
		WithAuditStacks(),
		WithLedger(),
		WithMetrics(m),
	)
	require.NoError(t, err)

	assert.Equal(t, uint32(50), res.Bound)
	assert.Empty(t, res.Hazards)
	require.NotNil(t, res.AuditStats)
	require.NotNil(t, res.Partition)
	assert.True(t, res.Partition.Exact())
}

func TestWithRaceSafe(t *testing.T) {
	for _, tt := range []struct {
		safe bool
		want Mode
	}{{true, Safe}, {false, Racy}} {
		res, err := Run(1, 1, WithRaceSafe(tt.safe))
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Mode)
	}
}

func TestRunInvalidThreads(t *testing.T) {
	_, err := Run(10, 0)
	require.ErrorIs(t, err, ErrInvalidThreads)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("nolock")
	require.NoError(t, err)
	assert.Equal(t, Racy, m)

	_, err = ParseMode("maybe")
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		required string
		want     bool
	}{
		{"v0.1.0", true},
		{"0.4", true},
		{Version, true},
		{"v0.4.1", false},
		{"1.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.required, func(t *testing.T) {
			got, err := VersionAtLeast(tt.required)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := VersionAtLeast("latest")
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestCanonical(t *testing.T) {
	got, err := Canonical("1.2")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", got)
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, DefaultBound, info.DefaultBound)
	assert.NotEmpty(t, info.Algorithm)
}
