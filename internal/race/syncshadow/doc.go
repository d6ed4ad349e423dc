// Package syncshadow keeps the release clocks of the synchronization
// objects a run uses: the cursor mutex and, in safe mode, each histogram
// slot updated with an atomic add.
//
// Each object has a SyncVar holding the vector clock of its last release.
// An acquire joins that clock into the acquirer's clock, which is what
// orders one worker's critical section before the next one's:
//
//	Acquire(m):  Ct := Ct ⊔ Lm
//	Release(m):  Lm := Ct
//	             Ct[t]++
//
// Example:
//
//	// worker 1
//	Acquire(cursor.mu)   C1 ⊔= L
//	Write(cursor)
//	Release(cursor.mu)   L = C1
//
//	// worker 2
//	Acquire(cursor.mu)   C2 ⊔= L   (now ordered after worker 1's write)
//	Write(cursor)        no hazard
//	Release(cursor.mu)   L = C2
package syncshadow
