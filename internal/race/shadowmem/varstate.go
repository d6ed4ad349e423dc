package shadowmem

import (
	"github.com/kolkov/mtcollatz/internal/race/epoch"
	"github.com/kolkov/mtcollatz/internal/race/stackdepot"
	"github.com/kolkov/mtcollatz/internal/race/vectorclock"
)

// VarState is the access history of one location.
type VarState struct {
	// W is the epoch of the last write, 0 before the first one.
	W epoch.Epoch

	// WriteStack is the stack of the last write, 0 when not captured.
	WriteStack stackdepot.ID

	// ReadEpoch is the last read while the state is not promoted.
	ReadEpoch epoch.Epoch

	// ReadClock holds every worker's last read once promoted, else nil.
	ReadClock *vectorclock.VectorClock
}

// IsPromoted reports whether reads are tracked in ReadClock.
func (vs *VarState) IsPromoted() bool {
	return vs.ReadClock != nil
}

// Promote switches to a read vector clock of the given size holding the
// current read epoch joined with reader.
func (vs *VarState) Promote(reader *vectorclock.VectorClock, size int) {
	vs.ReadClock = vectorclock.New(size)

	if vs.ReadEpoch != 0 {
		tid, clock := vs.ReadEpoch.Decode()
		vs.ReadClock.Set(tid, clock)
	}

	vs.ReadClock.Join(reader)
	vs.ReadEpoch = 0
}

// Demote forgets the read history.
func (vs *VarState) Demote() {
	vs.ReadEpoch = 0
	vs.ReadClock = nil
}

// ConcurrentReader returns the epoch of some promoted read that is not
// ordered before vc, or 0 if every read is.
func (vs *VarState) ConcurrentReader(vc *vectorclock.VectorClock) epoch.Epoch {
	if vs.ReadClock == nil {
		return 0
	}

	for tid := 0; tid < vs.ReadClock.Len(); tid++ {
		t := uint16(tid) //nolint:gosec // TIDs are 16-bit
		if clock := vs.ReadClock.Get(t); clock > vc.Get(t) {
			return epoch.NewEpoch(t, clock)
		}
	}

	return 0
}

func (vs *VarState) String() string {
	if vs.ReadClock != nil {
		return "W:" + vs.W.String() + " R:" + vs.ReadClock.String() + " [PROMOTED]"
	}

	return "W:" + vs.W.String() + " R:" + vs.ReadEpoch.String()
}
