// Package collatz computes a histogram of Collatz stopping times over
// [2, N] with a pool of worker goroutines.
//
// The workers share one cursor that hands out the next unprocessed value.
// In safe mode the cursor is claimed under a mutex and the histogram is
// updated with atomic adds, so the result is deterministic. In racy mode
// both are updated without synchronization: values may be processed twice
// or skipped and counts may be lost. Racy mode exists to demonstrate that
// hazard and is a data race by construction.
//
// # Quick Start
//
//	res, err := collatz.Run(1000000, 8)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res.Histogram.WriteTo(os.Stdout)
//	fmt.Fprintf(os.Stderr, "%d %d, %.9f\n", res.Max, res.Threads, res.ElapsedSeconds())
//
// # Options
//
// Run accepts functional options:
//   - Claim strategy: [WithMode], [WithRaceSafe]
//   - Histogram size: [WithBound]
//   - Hazard auditing: [WithAudit], [WithAuditSampleRate], [WithAuditStacks]
//   - Claim verification: [WithLedger]
//   - Observability: [WithLogger], [WithMetrics]
//
// # Hazard Auditing
//
// With [WithAudit] every cursor and histogram access is reported to a
// FastTrack happens-before tracker. Accesses that are not ordered by the
// cursor mutex, the atomic slot updates, or worker start and join are
// returned in Result.Hazards. A safe run reports none. A racy run in which
// two workers both claimed values always reports a write-write hazard on
// the cursor.
//
// Auditing serializes all accesses through the tracker's lock and slows a
// run down considerably. Use [WithAuditSampleRate] to record a fraction of
// the memory accesses on large ranges.
package collatz
