// Package stride implements the fixed-capacity min-heap of stride
// processes keyed by pass value (spec §4.2), plus the stride run-list
// that holds the process currently running (temporarily absent from
// the heap, spec §4.5) and any process woken from sleep pending its
// next heap re-push (spec §4.6, §9's open question).
//
// The heap is built on container/heap, the way the teacher's
// eventloop.timerHeap is: a thin Len/Less/Swap/Push/Pop shim over a
// backing slice, driven by heap.Push/heap.Pop. Unlike timerHeap, the
// backing slice here has a fixed capacity (NPROC), per spec §4.2 and
// §9's no-allocation requirement -- Push panics if the heap is already
// full, which should never happen because the heap never holds more
// entries than there are stride processes, itself bounded by NPROC.
package stride
