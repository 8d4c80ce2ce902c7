package stats

import (
	"sync"
	"testing"
	"time"
)

// baseTime is a fixed reference point so all test timings are deterministic.
var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func tick(n int) time.Time {
	return baseTime.Add(time.Duration(n) * 10 * time.Minute)
}

func TestTracker_Empty(t *testing.T) {
	s := NewTracker().Snapshot()
	if s.Iterations != 0 || s.SuccessPct != 0 || !s.LastSuccess.IsZero() {
		t.Errorf("empty snapshot = %+v", s)
	}
}

func TestTracker_Counts(t *testing.T) {
	tr := NewTracker()
	tr.Record(Archived, tick(0))
	tr.Record(CopyFailed, tick(1))
	tr.Record(FetchFailed, tick(2))
	tr.Record(Archived, tick(3))

	s := tr.Snapshot()
	if s.Iterations != 4 {
		t.Errorf("Iterations = %d, want 4", s.Iterations)
	}
	if s.Archived != 2 || s.CopyFailed != 1 || s.FetchFailed != 1 {
		t.Errorf("counts = %+v", s)
	}
	if !s.LastSuccess.Equal(tick(3)) {
		t.Errorf("LastSuccess = %v, want %v", s.LastSuccess, tick(3))
	}
	if s.LastOutcome != Archived {
		t.Errorf("LastOutcome = %q", s.LastOutcome)
	}
	if s.SuccessPct != 50 {
		t.Errorf("SuccessPct = %v, want 50", s.SuccessPct)
	}
}

func TestTracker_WindowSlides(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < successWindow; i++ {
		tr.Record(CopyFailed, tick(i))
	}
	if got := tr.Snapshot().SuccessPct; got != 0 {
		t.Fatalf("SuccessPct after all failures = %v", got)
	}

	for i := 0; i < successWindow/2; i++ {
		tr.Record(Archived, tick(successWindow+i))
	}
	s := tr.Snapshot()
	if s.WindowLength != successWindow {
		t.Errorf("WindowLength = %d, want %d", s.WindowLength, successWindow)
	}
	if s.SuccessPct != 50 {
		t.Errorf("SuccessPct = %v, want 50", s.SuccessPct)
	}
	if s.Iterations != successWindow+successWindow/2 {
		t.Errorf("Iterations = %d", s.Iterations)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Record(Archived, tick(j))
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()
	if got := tr.Snapshot().Archived; got != 800 {
		t.Errorf("Archived = %d, want 800", got)
	}
}
