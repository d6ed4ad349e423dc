// Package detector implements a FastTrack-style happens-before auditor for
// the shared state of a single run.
//
// The cursor allocator and the histogram accumulators report every access
// they make on behalf of a worker through a probe.Tracer. The detector binds
// one tracer per worker, keeps a vector clock per worker and per lock, and
// flags a hazard whenever two workers touch the same location without an
// ordering between them and at least one of the accesses is a write.
//
// # Hazards in racy mode
//
// Racy mode loses updates on purpose. The histogram sum tells you that
// something went wrong, but only probabilistically and only after the fact.
// The detector reports the unsynchronized accesses themselves, so a racy run
// with two or more active workers reports a hazard on the cursor every time,
// while a safe run reports none.
//
// # FastTrack overview
//
//   - Epoch: compact (TID, clock) pair for the last write and, in the common
//     case, the last read of a location
//   - VectorClock: full per-worker time, used for workers, locks and for
//     locations read concurrently by several workers
//   - Adaptive: a location's read state is promoted to a vector clock when
//     concurrent readers appear and demoted again on the next write
//
// # Rules
//
//  1. Write: a previous write or read that does not happen-before the
//     current worker's clock is a hazard
//  2. Read: a previous write that does not happen-before the current
//     worker's clock is a hazard
//  3. Acquire: the worker's clock joins the lock's release clock
//  4. Release: the lock's clock becomes the worker's clock, which then ticks
//  5. Fork/Join: a worker starts with the orchestrator's clock and the
//     orchestrator joins every worker's clock when the pool finishes
//
// # Thread safety
//
// All detector state, including the per-worker contexts, is guarded by a
// single mutex. The detector observes; it never changes the outcome of the
// accesses it is told about.
//
// Release clocks live in a syncshadow.Shadow. With WithStacks, stacks are
// kept in a stackdepot.Depot owned by the detector.
package detector
