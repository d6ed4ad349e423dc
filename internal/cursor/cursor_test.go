package cursor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/mtcollatz/internal/probe"
)

// recorder is a probe.Tracer that keeps the event sequence.
type recorder struct {
	events []string
}

func (r *recorder) Acquire(loc probe.Location) { r.events = append(r.events, "acquire "+string(loc)) }
func (r *recorder) Release(loc probe.Location) { r.events = append(r.events, "release "+string(loc)) }
func (r *recorder) Read(loc probe.Location)    { r.events = append(r.events, "read "+string(loc)) }
func (r *recorder) Write(loc probe.Location)   { r.events = append(r.events, "write "+string(loc)) }

func drain(a Allocator) []uint64 {
	var got []uint64
	for {
		v, ok := a.Claim()
		if !ok {
			return got
		}

		got = append(got, v)
	}
}

// TestSequentialClaims verifies both variants hand out [2, N] in order when used
// from a single goroutine.
func TestSequentialClaims(t *testing.T) {
	for _, mode := range []Mode{Safe, Racy} {
		t.Run(mode.String(), func(t *testing.T) {
			a := New(mode, 6)
			assert.Equal(t, mode, a.Mode())
			assert.Equal(t, uint64(6), a.Max())
			assert.Equal(t, []uint64{2, 3, 4, 5, 6}, drain(a))

			// Exhaustion is sticky.
			_, ok := a.Claim()
			assert.False(t, ok)
		})
	}
}

// TestDegenerateRange verifies N < 2 starts exhausted.
func TestDegenerateRange(t *testing.T) {
	for _, max := range []uint64{0, 1} {
		for _, mode := range []Mode{Safe, Racy} {
			a := New(mode, max)
			_, ok := a.Claim()
			assert.Falsef(t, ok, "mode=%s max=%d", mode, max)
		}
	}
}

// TestSingleValueRange verifies N = 2 yields exactly one claim.
func TestSingleValueRange(t *testing.T) {
	a := NewSafe(2)
	assert.Equal(t, []uint64{2}, drain(a))
}

// TestSafeConcurrentPartition claims from many goroutines and checks that every
// value of [2, N] was handed out exactly once.
func TestSafeConcurrentPartition(t *testing.T) {
	const (
		max     = 50000
		workers = 16
	)

	a := NewSafe(max)
	claims := make([][]uint64, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok := a.Claim()
				if !ok {
					return
				}

				claims[w] = append(claims[w], v)
			}
		}()
	}

	wg.Wait()

	seen := make([]int, max+1)
	total := 0
	for _, c := range claims {
		for _, v := range c {
			seen[v]++
			total++
		}
	}

	require.Equal(t, max-1, total)
	for v := First; v <= max; v++ {
		require.Equalf(t, 1, seen[v], "value %d", v)
	}
}

// TestSafeClaimTraced verifies the event order inside the critical section.
func TestSafeClaimTraced(t *testing.T) {
	a := NewSafe(2)
	rec := &recorder{}

	v, ok := a.ClaimTraced(rec)
	require.True(t, ok)
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, []string{
		"acquire cursor.mu",
		"read cursor",
		"write cursor",
		"release cursor.mu",
	}, rec.events)

	rec.events = nil
	_, ok = a.ClaimTraced(rec)
	assert.False(t, ok)
	assert.Equal(t, []string{"acquire cursor.mu", "read cursor", "release cursor.mu"}, rec.events)
}

// TestRacyClaimTraced verifies the racy variant reports no synchronization.
func TestRacyClaimTraced(t *testing.T) {
	a := NewRacy(3)
	rec := &recorder{}

	v, ok := a.ClaimTraced(rec)
	require.True(t, ok)
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, []string{"read cursor", "write cursor"}, rec.events)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "safe", want: Safe},
		{in: "", want: Safe},
		{in: "LOCK", want: Safe},
		{in: "racy", want: Racy},
		{in: " nolock ", want: Racy},
		{in: "atomic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "safe", Safe.String())
	assert.Equal(t, "racy", Racy.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

func BenchmarkSafeClaim(b *testing.B) {
	a := NewSafe(^uint64(0) - 1)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			a.Claim()
		}
	})
}
