// Package cursor hands out the values of the range [2, N] to workers.
//
// An Allocator owns a single shared position that starts at First (2) and
// moves forward by one on every successful claim. Once the position passes N
// the allocator is exhausted and every further claim reports false.
//
// Two variants exist and are selected once, at construction:
//
//   - Safe: the check-and-increment runs in one critical section guarded by
//     a sync.Mutex. Across all callers the claimed values are exactly
//     {2, 3, ..., N}, with no value handed out twice and none skipped.
//
//   - Racy: the position is read, compared and written back with no
//     synchronization at all. Two workers can read the same position and both
//     process that value, and a stale write can move the position backwards
//     (re-issuing values) or leave values unclaimed. This variant exists to
//     demonstrate the check-then-act race; it is not a bug to be fixed.
//
// Both variants also offer ClaimTraced, which performs the same claim while
// reporting lock, read and write events to a probe.Tracer.
//
// A racy allocator used from more than one goroutine is a data race by
// construction and will be flagged by `go test -race`.
package cursor
