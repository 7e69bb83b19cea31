package proc

import "github.com/joeycumines/go-mlfqstride/list"

// State is one of the six lifecycle states a Proc passes through, per
// spec §3.
type State int

const (
	Unused State = iota
	Embryo
	Runnable
	Running
	Sleeping
	Zombie
)

func (s State) String() string {
	switch s {
	case Unused:
		return "UNUSED"
	case Embryo:
		return "EMBRYO"
	case Runnable:
		return "RUNNABLE"
	case Running:
		return "RUNNING"
	case Sleeping:
		return "SLEEPING"
	case Zombie:
		return "ZOMBIE"
	default:
		return "INVALID"
	}
}

// Discipline selects which half of the scheduler a Proc belongs to: the
// MLFQ or the stride scheduler (spec §3).
type Discipline int

const (
	MLFQ Discipline = iota
	Stride
)

func (d Discipline) String() string {
	switch d {
	case MLFQ:
		return "MLFQ"
	case Stride:
		return "STRIDE"
	default:
		return "INVALID"
	}
}

// Proc is the unit of scheduling (spec §3). It carries both the MLFQ
// fields (PrivLevel, Ticks) and the stride fields (Tickets, Pass) at
// once, since a process may be reassigned between disciplines by
// SetCPUShare over its lifetime; only the fields for its current
// Discipline are meaningful.
//
// Queue is the single polymorphic list node described in spec §9: at
// any moment a non-Unused, non-Embryo Proc is linked into exactly one
// of the table's free list, an MLFQ level, the stride run-list, or the
// sleep list, via this one node. StrideIndex is the analogous
// bookkeeping for the stride heap, which is array-backed rather than
// list-backed; it is -1 whenever p is not resident in the heap.
type Proc struct {
	Pid  int
	Name string

	Parent   *Proc
	Children list.List
	Sibling  list.Node

	State      State
	Discipline Discipline

	// MLFQ fields.
	PrivLevel int
	Ticks     int

	// Stride fields.
	Tickets     int
	Pass        int64
	StrideIndex int

	// Chan is the opaque sleep-channel key; non-nil iff State ==
	// Sleeping. Wakeup matches by equality (==) against this value, so
	// any comparable value works, not only chan types.
	Chan  any
	Killed bool

	// Queue is this Proc's membership node in whichever structure
	// currently owns it (free list, an MLFQ level's queue, the stride
	// run-list, or the sleep list). Owner is always set to the *Proc
	// itself, recovered via Queue.Owner.(*Proc).
	Queue list.Node
}

// init resets p to a fresh Embryo, clearing every field a previous
// occupant of this slot may have left behind. Queue.Owner is set once
// here and never changes for the lifetime of the slot.
func (p *Proc) init(pid int) {
	*p = Proc{
		Pid:         pid,
		State:       Embryo,
		Discipline:  MLFQ,
		StrideIndex: -1,
	}
	p.Children.Init()
	p.Sibling = list.Node{}
	p.Sibling.Owner = p
	p.Queue = list.Node{}
	p.Queue.Owner = p
}
