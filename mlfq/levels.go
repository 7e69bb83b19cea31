package mlfq

import (
	"github.com/joeycumines/go-mlfqstride/fault"
	"github.com/joeycumines/go-mlfqstride/list"
	"github.com/joeycumines/go-mlfqstride/proc"
)

// Levels is the QSIZE-level MLFQ: one FIFO queue and one rotation pin
// per level, a global tick counter driving the periodic boost, and the
// unreserved ticket share (spec §3, §4.3).
type Levels struct {
	queues []list.List
	pins   []*list.Node

	// TQ and TA are the per-level quantum and allotment (spec §6),
	// TQ[l] the ticks between within-level pin rotation, TA[l] the
	// ticks before demotion out of level l.
	TQ []int
	TA []int

	// Ticks is the global MLFQ tick counter (spec §4.3), incremented
	// once per Logic call; BoostInterval triggers Boost when Ticks is
	// a multiple of it.
	Ticks         int
	BoostInterval int

	// Pass is the MLFQ aggregate virtual-time counter (spec §4.4),
	// advanced by sched.stride_logic, not by this package directly.
	Pass int64

	// Tickets is the unreserved share (spec §3), initialized to 100 by
	// New and lowered by each stride reservation.
	Tickets int
}

// New builds a Levels with QSIZE = len(tq) == len(ta).
func New(tq, ta []int, boostInterval int) *Levels {
	if len(tq) != len(ta) {
		fault.Raise("mlfq: len(TQ) != len(TA)")
	}
	m := &Levels{
		queues:        make([]list.List, len(tq)),
		pins:          make([]*list.Node, len(tq)),
		TQ:            tq,
		TA:            ta,
		BoostInterval: boostInterval,
		Tickets:       100,
	}
	for i := range m.queues {
		m.queues[i].Init()
		m.pins[i] = m.queues[i].Sentinel()
	}
	return m
}

// QSIZE is the number of levels.
func (m *Levels) QSIZE() int { return len(m.queues) }

// Enqueue appends p to the tail of the queue at p.PrivLevel.
func (m *Levels) Enqueue(p *proc.Proc) {
	m.queues[p.PrivLevel].PushBack(&p.Queue)
}

// Dequeue removes p from the queue at p.PrivLevel, advancing that
// level's pin to p.Queue.Next() first if p was the pinned node (spec
// §9: "removal of the pinned node advances the pin to node.next").
func (m *Levels) Dequeue(p *proc.Proc) {
	lvl := p.PrivLevel
	n := &p.Queue
	if m.pins[lvl] == n {
		m.pins[lvl] = n.Next()
	}
	list.Remove(n)
}

// Select implements mlfq_select (spec §4.3): starting at the
// highest-priority non-empty level, walk from that level's pin,
// returning the first RUNNABLE process found and leaving the pin set
// to it. A level whose pin completes a full lap without finding one is
// skipped in favor of the next level. Returns nil if no RUNNABLE
// process exists in any level.
func (m *Levels) Select() *proc.Proc {
	for lvl := range m.queues {
		q := &m.queues[lvl]
		if q.Empty() {
			continue
		}
		start := m.pins[lvl]
		if start == q.Sentinel() {
			start = q.Front()
		}
		n := start
		for {
			p := n.Owner.(*proc.Proc)
			if p.State == proc.Runnable {
				m.pins[lvl] = n
				return p
			}
			n = m.wrap(q, n)
			if n == start {
				break
			}
		}
	}
	return nil
}

// wrap returns the node following n within q, treating the sentinel as
// transparent (so iteration behaves as a ring over q's elements only).
func (m *Levels) wrap(q *list.List, n *list.Node) *list.Node {
	next := n.Next()
	if next == q.Sentinel() {
		next = q.Front()
	}
	return next
}

// Logic implements mlfq_logic's accounting branch (spec §4.3). Callers
// must only invoke it for a just-run process of Discipline MLFQ, once
// per scheduler iteration in which such a process ran. It reports
// whether the global tick counter just crossed a BoostInterval
// boundary; on true, the caller must call Boost (for queued processes)
// and separately reset every MLFQ process on the sleep list (which
// this package cannot reach, owning no reference to the sleep list) --
// both under the same lock acquisition, so the boost is atomic. It
// also reports whether p was just demoted a level, so the caller can
// drive a demotion counter without this package owning one itself.
func (m *Levels) Logic(p *proc.Proc) (boosted, demoted bool) {
	m.Ticks++
	switch p.State {
	case proc.Runnable:
		p.Ticks++
		lvl := p.PrivLevel
		switch {
		case lvl < len(m.queues)-1 && p.Ticks%m.TA[lvl] == 0:
			m.Dequeue(p)
			p.PrivLevel++
			p.Ticks = 0
			m.Enqueue(p)
			demoted = true
		case p.Ticks%m.TQ[lvl] == 0:
			m.pins[lvl] = p.Queue.Next()
		}
	case proc.Sleeping:
		lvl := p.PrivLevel
		if lvl < len(m.queues)-1 && p.Ticks >= m.TA[lvl] {
			p.PrivLevel++
			p.Ticks = 0
			demoted = true
		} else {
			p.Ticks = (p.Ticks / m.TQ[lvl]) * m.TQ[lvl]
		}
	case proc.Zombie:
		// no accounting: exit has already removed p from any structure.
	default:
		fault.Raise("mlfq: Logic called with impossible process state")
	}

	return m.Ticks%m.BoostInterval == 0, demoted
}

// Boost implements spec §4.3's priority boost for every process
// currently resident in an MLFQ queue (RUNNING/RUNNABLE): each
// non-level-0 queue is spliced onto the tail of level 0, in order,
// preserving pins per concatqueue, and every moved process is reset to
// PrivLevel 0, Ticks 0. Sleeping processes are not owned by this
// package's queues; callers must separately walk the sleep list and
// call ResetLevel for each MLFQ process found there.
func (m *Levels) Boost() {
	for lvl := 1; lvl < len(m.queues); lvl++ {
		m.queues[lvl].Do(func(n *list.Node) bool {
			ResetLevel(n.Owner.(*proc.Proc))
			return true
		})
		m.concatqueue(lvl, 0)
	}
}

// ResetLevel resets p to PrivLevel 0, Ticks 0, the boost effect for a
// single process (spec §4.3), used directly by callers walking
// structures mlfq does not own (the sleep list).
func ResetLevel(p *proc.Proc) {
	p.PrivLevel = 0
	p.Ticks = 0
}

// concatqueue splices all of level src onto the tail of level dst,
// preserving pin validity per spec §4.3's exact rule.
func (m *Levels) concatqueue(src, dst int) {
	srcQ, dstQ := &m.queues[src], &m.queues[dst]
	dstWasEmpty := dstQ.Empty()
	dstPinBefore := m.pins[dst]
	srcPin := m.pins[src]
	srcHead := srcQ.Sentinel()

	list.MoveAll(dstQ, srcQ)

	if dstWasEmpty && dstPinBefore != srcHead {
		if srcPin == srcHead {
			// src's sentinel is not a node of dst; fall back to dst's own.
			m.pins[dst] = dstQ.Sentinel()
		} else {
			m.pins[dst] = srcPin
		}
	}
	m.pins[src] = srcHead
}
