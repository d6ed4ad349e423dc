package detector

import (
	"fmt"
	"io"
	"strings"

	"github.com/kolkov/mtcollatz/internal/probe"
	"github.com/kolkov/mtcollatz/internal/race/epoch"
	"github.com/kolkov/mtcollatz/internal/race/stackdepot"
)

// AccessType is the kind of memory access.
type AccessType int

const (
	// AccessRead indicates a read.
	AccessRead AccessType = iota
	// AccessWrite indicates a write.
	AccessWrite
)

// String returns "Read" or "Write".
func (a AccessType) String() string {
	switch a {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	default:
		return "Unknown"
	}
}

// Race type constants, named previous-current.
const (
	// RaceTypeWriteWrite is a write conflicting with an earlier write.
	RaceTypeWriteWrite = "write-write"
	// RaceTypeReadWrite is a write conflicting with an earlier read.
	RaceTypeReadWrite = "read-write"
	// RaceTypeWriteRead is a read conflicting with an earlier write.
	RaceTypeWriteRead = "write-read"
)

// AccessInfo describes one side of a hazard.
type AccessInfo struct {
	Type     AccessType
	Location probe.Location

	// Worker is the TID that made the access. 0 is the orchestrator.
	Worker uint16

	Epoch epoch.Epoch

	// Stack is set only when the detector captures stacks. Reads are
	// not recorded, so a previous read never has one.
	Stack *stackdepot.Stack
}

// Report is a detected hazard between two unordered accesses.
type Report struct {
	Kind     string
	Current  AccessInfo
	Previous AccessInfo

	// DeduplicationKey is "{kind}:{location}:{tid1}:{tid2}" with tid1 <= tid2.
	DeduplicationKey string
}

func newReport(raceType string, loc probe.Location, prev, cur epoch.Epoch) *Report {
	r := &Report{
		Kind:     raceType,
		Current:  AccessInfo{Location: loc, Worker: cur.TID(), Epoch: cur},
		Previous: AccessInfo{Location: loc, Worker: prev.TID(), Epoch: prev},
	}

	switch raceType {
	case RaceTypeReadWrite:
		r.Current.Type, r.Previous.Type = AccessWrite, AccessRead
	case RaceTypeWriteRead:
		r.Current.Type, r.Previous.Type = AccessRead, AccessWrite
	default:
		r.Current.Type, r.Previous.Type = AccessWrite, AccessWrite
	}

	r.DeduplicationKey = deduplicationKey(raceType, loc, r.Previous.Worker, r.Current.Worker)

	return r
}

func deduplicationKey(raceType string, loc probe.Location, a, b uint16) string {
	return fmt.Sprintf("%s:%s:%d:%d", raceType, loc, min(a, b), max(a, b))
}

// Format writes the report in the style of Go's race detector output:
//
//	==================
//	WARNING: DATA RACE
//	Write at cursor by worker 3:
//	  github.com/kolkov/mtcollatz/internal/cursor.(*RacyAllocator).ClaimTraced()
//	      .../internal/cursor/cursor.go:173
//	  [epoch: 12@3]
//
//	Previous write at cursor by worker 1:
//	  [epoch: 40@1]
//	==================
//
//nolint:errcheck // best-effort diagnostic output
func (r *Report) Format(w io.Writer) {
	fmt.Fprintf(w, "==================\n")
	fmt.Fprintf(w, "WARNING: DATA RACE\n")
	fmt.Fprintf(w, "%s at %s by worker %d:\n", r.Current.Type, r.Current.Location, r.Current.Worker)

	if r.Current.Stack != nil {
		fmt.Fprint(w, r.Current.Stack.Format(hiddenFrames...))
	}

	fmt.Fprintf(w, "  [epoch: %s]\n\n", r.Current.Epoch)
	fmt.Fprintf(w, "Previous %s at %s by worker %d:\n",
		strings.ToLower(r.Previous.Type.String()), r.Previous.Location, r.Previous.Worker)

	if r.Previous.Stack != nil {
		fmt.Fprint(w, r.Previous.Stack.Format(hiddenFrames...))
	}

	fmt.Fprintf(w, "  [epoch: %s]\n", r.Previous.Epoch)
	fmt.Fprintf(w, "==================\n")
}

// hiddenFrames are left out of report stacks.
var hiddenFrames = []string{"/race/detector.(*Detector).", "/race/detector.(*tracer).", "/race/stackdepot."}

// String returns the formatted report.
func (r *Report) String() string {
	var buf strings.Builder
	r.Format(&buf)

	return buf.String()
}
