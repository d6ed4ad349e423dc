// Package goroutine holds the logical time of one worker goroutine.
//
// A Context stores:
//   - TID: the worker's ID, 0 for the orchestrator
//   - C: the full vector clock over all workers of the run
//   - Epoch: C[TID] cached so that most checks avoid the vector clock
//
// IncrementClock keeps the cached epoch equal to C[TID].
package goroutine
