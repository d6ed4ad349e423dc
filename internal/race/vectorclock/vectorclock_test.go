package vectorclock

import "testing"

func TestVectorClockNew(t *testing.T) {
	vc := New(4)
	if vc.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", vc.Len())
	}

	for tid := uint16(0); tid < 8; tid++ {
		if got := vc.Get(tid); got != 0 {
			t.Errorf("Get(%d) = %d, want 0", tid, got)
		}
	}

	var zero VectorClock
	if zero.Get(3) != 0 || zero.String() != "{}" {
		t.Error("zero value should behave as an empty clock")
	}
}

func TestVectorClockClone(t *testing.T) {
	vc := New(3)
	vc.Set(1, 7)

	clone := vc.Clone()
	clone.Set(1, 9)

	if vc.Get(1) != 7 {
		t.Errorf("original changed through clone: Get(1) = %d", vc.Get(1))
	}
}

// TestVectorClockJoin tests point-wise maximum, including growth.
func TestVectorClockJoin(t *testing.T) {
	a := New(2)
	a.Set(0, 5)
	a.Set(1, 1)

	b := New(4)
	b.Set(1, 3)
	b.Set(3, 2)

	a.Join(b)

	want := map[uint16]uint64{0: 5, 1: 3, 2: 0, 3: 2}
	for tid, clock := range want {
		if got := a.Get(tid); got != clock {
			t.Errorf("after Join Get(%d) = %d, want %d", tid, got, clock)
		}
	}

	a.Join(nil)
	if a.Get(0) != 5 {
		t.Error("Join(nil) should be a no-op")
	}
}

func TestVectorClockJoinCommutativity(t *testing.T) {
	a, b := New(3), New(3)
	a.Set(0, 4)
	a.Set(2, 1)
	b.Set(1, 6)
	b.Set(2, 3)

	ab := a.Clone()
	ab.Join(b)
	ba := b.Clone()
	ba.Join(a)

	if !ab.LessOrEqual(ba) || !ba.LessOrEqual(ab) {
		t.Errorf("Join not commutative: %s vs %s", ab, ba)
	}
}

// TestVectorClockPartialOrder tests LessOrEqual on ordered and concurrent clocks.
func TestVectorClockPartialOrder(t *testing.T) {
	a, b, c := New(3), New(3), New(3)
	a.Set(0, 1)
	b.Set(0, 2)
	b.Set(1, 1)
	c.Set(1, 5)

	if !a.HappensBefore(b) {
		t.Error("a should happen before b")
	}

	if b.LessOrEqual(a) {
		t.Error("b should not be <= a")
	}

	if a.LessOrEqual(c) || c.LessOrEqual(a) {
		t.Error("a and c are concurrent")
	}

	short := New(1)
	long := New(5)
	if !short.LessOrEqual(long) || !long.LessOrEqual(short) {
		t.Error("zero clocks of different sizes should be equal")
	}
}

func TestVectorClockIncrementAndCopy(t *testing.T) {
	vc := New(1)
	vc.Increment(0)
	vc.Increment(3)
	vc.Increment(3)

	if vc.Get(0) != 1 || vc.Get(3) != 2 {
		t.Errorf("unexpected clock %s", vc)
	}

	dst := New(8)
	dst.Set(7, 9)
	dst.CopyFrom(vc)

	if dst.Get(7) != 0 || dst.Get(3) != 2 {
		t.Errorf("CopyFrom should replace contents, got %s", dst)
	}
}

func TestVectorClockString(t *testing.T) {
	vc := New(6)
	vc.Set(0, 50)
	vc.Set(5, 42)

	if got, want := vc.String(), "{0:50, 5:42}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func BenchmarkVectorClockJoin(b *testing.B) {
	x, y := New(17), New(17)
	for i := uint16(0); i < 17; i++ {
		y.Set(i, uint64(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x.Join(y)
	}
}
