package sched

import "sync/atomic"

// RunState is Kernel's run-lifecycle state, independent of any
// individual Proc's State (proc.State tracks a process; RunState
// tracks the scheduler loops as a whole).
//
//	Awake -> Running       [RunCPUs]
//	Running -> Terminating [RunCPUs' context canceled]
//	Terminating -> Terminated [last loop exits]
//
// Mirrors eventloop.LoopState/FastState's shape: a small enum driven
// by atomic CAS rather than a mutex, so Kernel.State can read it
// without taking the scheduler lock.
type RunState uint32

const (
	Awake RunState = iota
	Running
	Terminating
	Terminated
)

func (s RunState) String() string {
	switch s {
	case Awake:
		return "Awake"
	case Running:
		return "Running"
	case Terminating:
		return "Terminating"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// runState is the atomic holder for RunState, analogous to
// eventloop.FastState.
type runState struct {
	v atomic.Uint32
}

func newRunState() *runState {
	s := &runState{}
	s.v.Store(uint32(Awake))
	return s
}

func (s *runState) Load() RunState { return RunState(s.v.Load()) }

// TryTransition attempts a CAS from `from` to `to`, returning whether
// it succeeded.
func (s *runState) TryTransition(from, to RunState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// Store unconditionally sets the state (used for the terminal,
// irreversible Terminated transition, mirroring eventloop's rule that
// Store is only for one-way transitions).
func (s *runState) Store(to RunState) { s.v.Store(uint32(to)) }
