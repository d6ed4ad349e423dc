package syncshadow

import (
	"sync"
	"testing"

	"github.com/kolkov/mtcollatz/internal/probe"
	"github.com/kolkov/mtcollatz/internal/race/vectorclock"
)

func TestGetOrCreate(t *testing.T) {
	s := New()

	sv1 := s.GetOrCreate(probe.CursorLock)
	sv2 := s.GetOrCreate(probe.CursorLock)
	if sv1 != sv2 {
		t.Error("same location gave different SyncVars")
	}

	if s.GetOrCreate(probe.Slot(3)) == sv1 {
		t.Error("different locations share a SyncVar")
	}

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestLookup(t *testing.T) {
	s := New()

	if s.Lookup(probe.CursorLock) != nil {
		t.Error("Lookup of an unused location should be nil")
	}

	sv := s.GetOrCreate(probe.CursorLock)
	if s.Lookup(probe.CursorLock) != sv {
		t.Error("Lookup did not return the created SyncVar")
	}
}

func TestAcquireBeforeRelease(t *testing.T) {
	sv := &SyncVar{}
	c := vectorclock.New(3)
	c.Set(1, 5)

	sv.Acquire(c)

	if c.Get(1) != 5 || c.Get(2) != 0 {
		t.Errorf("clock changed by acquire of an unreleased lock: %s", c)
	}

	if sv.ReleaseClock() != nil {
		t.Error("ReleaseClock should be nil before the first release")
	}
}

func TestReleaseAcquire(t *testing.T) {
	sv := &SyncVar{}

	w1 := vectorclock.New(3)
	w1.Set(1, 7)
	sv.Release(w1)

	// Later changes to the releaser do not leak into the lock.
	w1.Set(1, 99)

	w2 := vectorclock.New(3)
	w2.Set(2, 3)
	sv.Acquire(w2)

	if w2.Get(1) != 7 || w2.Get(2) != 3 {
		t.Errorf("acquirer clock = %s, want {1:7, 2:3}", w2)
	}

	sv.Release(w2)

	if sv.Releases() != 2 {
		t.Errorf("Releases() = %d, want 2", sv.Releases())
	}

	if got := sv.ReleaseClock().Get(2); got != 3 {
		t.Errorf("release clock[2] = %d, want 3", got)
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.GetOrCreate(probe.CursorLock)
	s.Reset()

	if s.Len() != 0 {
		t.Errorf("Len() after Reset = %d", s.Len())
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	s := New()
	got := make([]*SyncVar, 32)

	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)

		go func() {
			defer wg.Done()
			got[i] = s.GetOrCreate(probe.CursorLock)
		}()
	}

	wg.Wait()

	for i, sv := range got {
		if sv != got[0] {
			t.Fatalf("goroutine %d got a different SyncVar", i)
		}
	}
}
