package stats

import (
	"sync"
	"time"
)

// successWindow is the number of recent iterations tracked for SuccessPct.
const successWindow = 20

// Outcome is the result of one archiver iteration.
type Outcome string

const (
	Archived    Outcome = "archived"
	FetchFailed Outcome = "fetch_failed"
	CopyFailed  Outcome = "copy_failed"
)

// Snapshot is a point-in-time copy of the tracker's counters.
type Snapshot struct {
	Iterations   int
	Archived     int
	FetchFailed  int
	CopyFailed   int
	LastSuccess  time.Time // zero until the first archived frame
	LastOutcome  Outcome
	SuccessPct   float64 // over the last successWindow iterations
	WindowLength int
}

// Tracker accumulates iteration outcomes for one run.
//
// All exported methods are safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	snap    Snapshot
	history []bool // circular buffer of outcomes, newest last
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record adds the outcome of an iteration that finished at now.
func (t *Tracker) Record(o Outcome, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Iterations++
	t.snap.LastOutcome = o
	switch o {
	case Archived:
		t.snap.Archived++
		t.snap.LastSuccess = now
	case FetchFailed:
		t.snap.FetchFailed++
	case CopyFailed:
		t.snap.CopyFailed++
	}

	if len(t.history) >= successWindow {
		t.history = t.history[1:]
	}
	t.history = append(t.history, o == Archived)
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.snap
	s.WindowLength = len(t.history)
	if len(t.history) == 0 {
		return s
	}
	var ok int
	for _, v := range t.history {
		if v {
			ok++
		}
	}
	s.SuccessPct = float64(ok) / float64(len(t.history)) * 100
	return s
}
