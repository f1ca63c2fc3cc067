package scheduler

import "testing"

// TestPopPendingOrdering exercises spec.md §8 scenario 1: events scheduled
// at (A, 100), (B, 50), (C, 50); pop_pending(60) yields B then C (ties
// broken by insertion order) then None, and pop_pending(200) then yields A.
func TestPopPendingOrdering(t *testing.T) {
	const (
		A Kind = 100
		B Kind = 101
		C Kind = 102
	)

	s := New()
	if err := s.Schedule(A, 100); err != nil {
		t.Fatalf("schedule A: %v", err)
	}
	if err := s.Schedule(B, 50); err != nil {
		t.Fatalf("schedule B: %v", err)
	}
	if err := s.Schedule(C, 50); err != nil {
		t.Fatalf("schedule C: %v", err)
	}

	kind, ok := s.PopPending(60)
	if !ok || kind != B {
		t.Fatalf("want B, got %v ok=%v", kind, ok)
	}

	kind, ok = s.PopPending(60)
	if !ok || kind != C {
		t.Fatalf("want C, got %v ok=%v", kind, ok)
	}

	if _, ok := s.PopPending(60); ok {
		t.Fatalf("want no pending event at t=60 after draining B,C")
	}

	kind, ok = s.PopPending(200)
	if !ok || kind != A {
		t.Fatalf("want A, got %v ok=%v", kind, ok)
	}
}

func TestScheduleFullReturnsErrFull(t *testing.T) {
	s := New()
	for i := 0; i < Capacity; i++ {
		if err := s.Schedule(Kind(i), Timestamp(i)); err != nil {
			t.Fatalf("schedule %d: unexpected error %v", i, err)
		}
	}
	if err := s.Schedule(Kind(Capacity), 0); err != ErrFull {
		t.Fatalf("want ErrFull, got %v", err)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	s := New()
	const K Kind = 7
	if err := s.Schedule(K, 10); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.Cancel(K)
	s.Cancel(K) // second cancel is a no-op, not an error
	if _, ok := s.PopPending(10); ok {
		t.Fatalf("expected K to have been canceled")
	}
}

func TestNextEventTimePeeksWithoutRemoving(t *testing.T) {
	s := New()
	if _, ok := s.NextEventTime(); ok {
		t.Fatalf("empty scheduler should report no next event")
	}
	if err := s.Schedule(Kind(1), 42); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	at, ok := s.NextEventTime()
	if !ok || at != 42 {
		t.Fatalf("want 42, got %v ok=%v", at, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("peek must not remove the entry, Len=%d", s.Len())
	}
}
