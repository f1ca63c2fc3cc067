package scheduler

import "nitro-core-dx/internal/savestate"

// Visit walks the heap's backing array in its current (already
// heap-ordered) layout, plus curTime and nextSeq. Saving the raw array
// order rather than re-deriving it reproduces PopPending's exact
// tie-broken order after a load, since container/heap's invariant depends
// only on entry values, not on insertion history beyond the seq field
// already stored in each entry.
func (s *Scheduler) Visit(v savestate.Visitor) {
	n := len(s.heap)
	v.Len(&n)
	if !v.Saving() {
		s.heap = make(entryHeap, n)
	}
	for i := range s.heap {
		v.U64((*uint64)(&s.heap[i].fireTime))
		v.U16((*uint16)(&s.heap[i].kind))
		v.U64(&s.heap[i].seq)
	}
	v.U64((*uint64)(&s.curTime))
	v.U64(&s.nextSeq)
}
