package stride

import (
	"container/heap"

	"github.com/joeycumines/go-mlfqstride/list"
	"github.com/joeycumines/go-mlfqstride/proc"
)

// procHeap is the container/heap.Interface shim over a slice of
// *proc.Proc, ordered by Pass ascending. Ties favor the lower index
// already present (container/heap's sift does not reorder equal keys),
// matching spec §4.2's "ties favor the lower index".
type procHeap []*proc.Proc

func (h procHeap) Len() int            { return len(h) }
func (h procHeap) Less(i, j int) bool  { return h[i].Pass < h[j].Pass }
func (h procHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].StrideIndex = i
	h[j].StrideIndex = j
}

func (h *procHeap) Push(x any) {
	p := x.(*proc.Proc)
	p.StrideIndex = len(*h)
	*h = append(*h, p)
}

func (h *procHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	p.StrideIndex = -1
	*h = old[:n-1]
	return p
}

// Heap is the stride min-heap plus its run-list (spec §4.2, §4.5). The
// zero value is not ready for use; call NewHeap.
type Heap struct {
	cap    int
	h      procHeap
	runList list.List

	// MaxInt stands in for spec §6's MAXINT, returned by MinPass when
	// the heap is empty.
	MaxInt int64
}

// NewHeap returns a Heap with the given fixed capacity (spec's NPROC)
// and empty-heap sentinel maxInt.
func NewHeap(capacity int, maxInt int64) *Heap {
	hp := &Heap{
		cap:    capacity,
		h:      make(procHeap, 0, capacity),
		MaxInt: maxInt,
	}
	hp.runList.Init()
	return hp
}

// Push inserts p into the heap, keyed by its current Pass. Panics if
// the heap is already at capacity, which indicates a bookkeeping bug
// elsewhere (more stride processes than NPROC).
func (s *Heap) Push(p *proc.Proc) {
	if s.h.Len() >= s.cap {
		panic("stride: heap at capacity")
	}
	heap.Push(&s.h, p)
}

// Pop removes and returns the process with the minimum Pass, or nil
// if the heap is empty.
func (s *Heap) Pop() *proc.Proc {
	if s.h.Len() == 0 {
		return nil
	}
	return heap.Pop(&s.h).(*proc.Proc)
}

// Len reports the number of processes currently resident in the heap
// (excludes the run-list).
func (s *Heap) Len() int { return s.h.Len() }

// MinPass returns the minimum Pass in the heap, or MaxInt if empty
// (spec §4.2's min_pass).
func (s *Heap) MinPass() int64 {
	if s.h.Len() == 0 {
		return s.MaxInt
	}
	return s.h[0].Pass
}

// RunListAdd places p on the stride run-list: out of the heap,
// currently running or otherwise pending re-entry (spec §4.5, §9).
func (s *Heap) RunListAdd(p *proc.Proc) {
	s.runList.PushBack(&p.Queue)
}

// RunListRemove unlinks p from the run-list (e.g. on yield, sleep, or
// exit, spec §4.7).
func (s *Heap) RunListRemove(p *proc.Proc) {
	list.Remove(&p.Queue)
}

// TakeRunnable removes and returns every Runnable process currently on the
// run-list, leaving behind only processes that are mid-dispatch (Running)
// or that have not yet been unlinked by their own Sleep/Exit call. sched's
// stride_logic calls this unconditionally at the end of every scheduler
// iteration (spec §4.5, §9): it is the single code path that folds both the
// process that just finished running and any process woken during that
// window back into the heap with an advanced pass.
func (s *Heap) TakeRunnable() []*proc.Proc {
	var out []*proc.Proc
	s.runList.Do(func(n *list.Node) bool {
		p := n.Owner.(*proc.Proc)
		if p.State == proc.Runnable {
			out = append(out, p)
		}
		return true
	})
	for _, p := range out {
		list.Remove(&p.Queue)
	}
	return out
}

// RenormalizeIfNeeded implements spec §4.4's overflow renormalization:
// if minPass exceeds barrier, subtract minPass from every Pass value
// in both the heap and the run-list, preserving relative order while
// keeping the values bounded. mlfqPass is also rebased by the caller
// (sched owns mlfq.Pass; see sched.stride_logic).
func (s *Heap) RenormalizeIfNeeded(minPass, barrier int64) (delta int64, renormalized bool) {
	if minPass <= barrier {
		return 0, false
	}
	for _, p := range s.h {
		p.Pass -= minPass
	}
	s.runList.Do(func(n *list.Node) bool {
		n.Owner.(*proc.Proc).Pass -= minPass
		return true
	})
	return minPass, true
}
