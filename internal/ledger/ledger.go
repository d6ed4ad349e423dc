// Package ledger records which worker claimed which value during a run and
// checks the claims against the expected partition of [2, N].
//
// Each worker appends only to its own slice, so recording needs no
// synchronization even when the cursor itself is racy. Verify must only be
// called after every worker has finished.
package ledger

import (
	"fmt"
	"slices"
)

// Ledger holds per-worker claim logs for one run.
type Ledger struct {
	claims [][]uint64
}

// New creates a ledger for the given number of workers.
func New(workers int) *Ledger {
	return &Ledger{claims: make([][]uint64, workers)}
}

// Record appends v to worker's log. worker is 0-based.
func (l *Ledger) Record(worker int, v uint64) {
	l.claims[worker] = append(l.claims[worker], v)
}

// Workers returns the number of worker logs.
func (l *Ledger) Workers() int {
	return len(l.claims)
}

// Claims returns a copy of worker's log in claim order.
func (l *Ledger) Claims(worker int) []uint64 {
	return slices.Clone(l.claims[worker])
}

// Total returns the number of claims across all workers.
func (l *Ledger) Total() int {
	total := 0
	for _, c := range l.claims {
		total += len(c)
	}

	return total
}

// Partition is the outcome of checking a ledger against [first, max].
type Partition struct {
	// Expected is the number of values in [first, max].
	Expected uint64

	// Claimed is the number of claims made, duplicates included.
	Claimed uint64

	// Duplicates lists values claimed more than once, ascending; each value
	// appears once per extra claim.
	Duplicates []uint64

	// Missing lists values never claimed, ascending.
	Missing []uint64

	// OutOfRange lists claims outside [first, max].
	OutOfRange []uint64

	// Active is the number of workers that claimed at least one value.
	Active int
}

// Exact reports whether every value was claimed exactly once.
func (p Partition) Exact() bool {
	return len(p.Duplicates) == 0 && len(p.Missing) == 0 && len(p.OutOfRange) == 0
}

// String summarizes the partition.
func (p Partition) String() string {
	return fmt.Sprintf("expected=%d claimed=%d duplicates=%d missing=%d out_of_range=%d active_workers=%d",
		p.Expected, p.Claimed, len(p.Duplicates), len(p.Missing), len(p.OutOfRange), p.Active)
}

// Verify checks the recorded claims against [first, max].
func (l *Ledger) Verify(first, max uint64) Partition {
	var p Partition

	if max >= first {
		p.Expected = max - first + 1
	}

	seen := make([]uint32, p.Expected)

	for _, c := range l.claims {
		if len(c) > 0 {
			p.Active++
		}

		for _, v := range c {
			p.Claimed++

			if v < first || v > max {
				p.OutOfRange = append(p.OutOfRange, v)
				continue
			}

			idx := v - first
			if seen[idx] > 0 {
				p.Duplicates = append(p.Duplicates, v)
			}

			seen[idx]++
		}
	}

	for i, n := range seen {
		if n == 0 {
			p.Missing = append(p.Missing, first+uint64(i))
		}
	}

	slices.Sort(p.Duplicates)
	slices.Sort(p.OutOfRange)

	return p
}
