//go:build !race

package engine

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/mtcollatz/internal/cursor"
	"github.com/kolkov/mtcollatz/internal/race/detector"
)

func TestRunRacyCompletes(t *testing.T) {
	res, err := Run(Config{Max: 100000, Threads: 8, Mode: cursor.Racy, Ledger: true})
	require.NoError(t, err)

	assert.Equal(t, cursor.Racy, res.Mode)
	require.NotNil(t, res.Partition)
	assert.Empty(t, res.Partition.OutOfRange)
	assert.Equal(t, res.Claims(), res.Partition.Claimed)
}

// TestRunRacyDiverges runs the racy stress scenario until one trial's
// histogram sum differs from the safe run's. A single trial may well match,
// so only the batch is asserted.
func TestRunRacyDiverges(t *testing.T) {
	if runtime.GOMAXPROCS(0) < 2 {
		t.Skip("needs at least two procs")
	}

	if testing.Short() {
		t.Skip("stress test")
	}

	const (
		max     = 100000
		threads = 8
		trials  = 50
	)

	safe, err := Run(Config{Max: max, Threads: threads})
	require.NoError(t, err)

	for i := range trials {
		res, err := Run(Config{Max: max, Threads: threads, Mode: cursor.Racy})
		require.NoError(t, err)

		if res.Histogram.Sum() != safe.Histogram.Sum() {
			t.Logf("trial %d diverged: racy sum %d, safe sum %d", i+1, res.Histogram.Sum(), safe.Histogram.Sum())
			return
		}
	}

	t.Errorf("no divergence in %d racy trials", trials)
}

func TestRunRacyAuditReportsCursorHazard(t *testing.T) {
	if runtime.GOMAXPROCS(0) < 2 {
		t.Skip("needs at least two procs")
	}

	for range 20 {
		res, err := Run(Config{Max: 20000, Threads: 4, Mode: cursor.Racy, Audit: true, Ledger: true})
		require.NoError(t, err)

		if res.Partition.Active < 2 {
			continue
		}

		found := false

		for _, h := range res.Hazards {
			if h.Kind == detector.RaceTypeWriteWrite && h.Current.Location == "cursor" {
				found = true
				break
			}
		}

		assert.True(t, found, "expected a write-write hazard on the cursor, got %d reports", len(res.Hazards))

		return
	}

	t.Skip("no trial had two active workers")
}
