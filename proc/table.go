package proc

import (
	"github.com/joeycumines/go-mlfqstride/list"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Table is the fixed-size process table (spec §3): an array of NPROC
// slots, a free list threading the Unused ones, and a global sleep
// list. Callers must hold the external lock described in doc.go around
// every method call.
type Table struct {
	slots    []Proc
	free     list.List
	sleeping list.List
	nextPid  int

	Logger *logiface.Logger[*stumpy.Event]
}

// NewTable allocates a table of n slots, all initially Unused and
// linked onto the free list in slot order.
func NewTable(n int) *Table {
	t := &Table{
		slots:   make([]Proc, n),
		nextPid: 1,
	}
	t.free.Init()
	t.sleeping.Init()
	for i := range t.slots {
		p := &t.slots[i]
		p.State = Unused
		p.StrideIndex = -1
		p.Queue.Owner = p
		t.free.PushBack(&p.Queue)
	}
	return t
}

// Len returns the table's fixed capacity (NPROC).
func (t *Table) Len() int { return len(t.slots) }

// Alloc pops a slot from the free list, assigns it a fresh pid, and
// resets it to Embryo (spec §4.7's allocproc, minus the kernel-stack /
// trap-frame setup this module does not model -- see spec §1's
// out-of-scope list). Returns ErrNoFreeProc if the table is full.
func (t *Table) Alloc() (*Proc, error) {
	if t.free.Empty() {
		return nil, ErrNoFreeProc
	}
	n := t.free.Front()
	list.Remove(n)
	p := n.Owner.(*Proc)

	pid := t.nextPid
	t.nextPid++
	p.init(pid)

	if t.Logger != nil {
		t.Logger.Debug().Int64("pid", int64(pid)).Log("process allocated")
	}
	return p, nil
}

// Free returns p to the free list, resetting it to Unused. The caller
// must have already removed p from whatever runnable/sleep/heap
// structure it belonged to; Free only handles the table-level
// bookkeeping (spec §4.7's freeproc).
func (t *Table) Free(p *Proc) {
	p.State = Unused
	p.Chan = nil
	p.Killed = false
	p.StrideIndex = -1
	p.Parent = nil
	t.free.PushBack(&p.Queue)
	if t.Logger != nil {
		t.Logger.Debug().Int64("pid", int64(p.Pid)).Log("process freed")
	}
}

// Sleep links p onto the global sleep list and marks it Sleeping on
// the given channel. The caller must already have removed p from its
// previous structure (MLFQ queue or stride run-list).
func (t *Table) Sleep(p *Proc, chanKey any) {
	p.Chan = chanKey
	p.State = Sleeping
	t.sleeping.PushFront(&p.Queue)
}

// WakeMatching removes every Sleeping process whose Chan equals
// chanKey from the sleep list, sets it Runnable, clears Chan, and
// invokes fn so the caller can re-link it into the appropriate
// runnable structure (MLFQ level or stride heap/run-list), per spec
// §4.6's wakeup1.
func (t *Table) WakeMatching(chanKey any, fn func(p *Proc)) {
	var woken []*Proc
	t.sleeping.Do(func(n *list.Node) bool {
		p := n.Owner.(*Proc)
		if p.Chan == chanKey {
			woken = append(woken, p)
		}
		return true
	})
	for _, p := range woken {
		list.Remove(&p.Queue)
		p.Chan = nil
		p.State = Runnable
		fn(p)
	}
}

// KillSleeping marks p killed; if p is currently Sleeping, it is
// removed from the sleep list, set Runnable, and fn is invoked to
// re-link it, mirroring the Sleeping branch of spec §4.6's kill. If p
// is not Sleeping, only the Killed flag is set; the caller observes it
// on its own next scheduling decision.
func (t *Table) KillSleeping(p *Proc, fn func(p *Proc)) {
	p.Killed = true
	if p.State != Sleeping {
		return
	}
	list.Remove(&p.Queue)
	p.Chan = nil
	p.State = Runnable
	fn(p)
}

// EachSleeping calls fn for every process currently on the sleep list, in
// order. Used by the priority boost (spec §4.3) to reset MLFQ-discipline
// sleepers' level in place, since the sleep list (unlike an MLFQ queue) is
// not owned by package mlfq.
func (t *Table) EachSleeping(fn func(p *Proc)) {
	t.sleeping.Do(func(n *list.Node) bool {
		fn(n.Owner.(*Proc))
		return true
	})
}

// Lookup scans all non-Unused slots for pid, returning ErrNoSuchProc
// if none match.
func (t *Table) Lookup(pid int) (*Proc, error) {
	for i := range t.slots {
		p := &t.slots[i]
		if p.State != Unused && p.Pid == pid {
			return p, nil
		}
	}
	return nil, ErrNoSuchProc
}

// Snapshot returns a point-in-time copy of every non-Unused process's
// observable state, for introspection and invariant assertions (spec
// §8), mirroring xv6's procdump -- read-only, no scheduling effect.
func (t *Table) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, len(t.slots))
	for i := range t.slots {
		p := &t.slots[i]
		if p.State == Unused {
			continue
		}
		out = append(out, Snapshot{
			Pid:        p.Pid,
			Name:       p.Name,
			State:      p.State,
			Discipline: p.Discipline,
			PrivLevel:  p.PrivLevel,
			Ticks:      p.Ticks,
			Tickets:    p.Tickets,
			Pass:       p.Pass,
			Chan:       p.Chan,
			Killed:     p.Killed,
		})
	}
	return out
}

// Snapshot is a read-only copy of a Proc's scheduler-observable fields,
// returned by Table.Snapshot.
type Snapshot struct {
	Pid        int
	Name       string
	State      State
	Discipline Discipline
	PrivLevel  int
	Ticks      int
	Tickets    int
	Pass       int64
	// Chan is the sleep key the process is waiting on, or nil if it is
	// not SLEEPING (spec §8 invariant 6).
	Chan   any
	Killed bool
}

// Reparent walks p's children, reassigning each to newParent (the init
// process, per spec §3's orphan-reparenting rule), and returns the
// ones that were already Zombie so the caller can wake newParent.
func (t *Table) Reparent(p, newParent *Proc) (zombies []*Proc) {
	var children []*Proc
	p.Children.Do(func(n *list.Node) bool {
		children = append(children, n.Owner.(*Proc))
		return true
	})
	for _, c := range children {
		list.Remove(&c.Sibling)
		c.Parent = newParent
		newParent.Children.PushBack(&c.Sibling)
		if c.State == Zombie {
			zombies = append(zombies, c)
		}
	}
	return zombies
}
