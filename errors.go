// Package kernelsched ties together the process table (package proc), the
// MLFQ (package mlfq), the stride scheduler (package stride), and the
// scheduler loop / sleep-wakeup-kill discipline (package sched) into a
// single Kernel, as described by spec.md: ordinary processes are
// scheduled by a multi-level feedback queue, while processes that have
// reserved a guaranteed share of CPU via CPUShare are scheduled by a
// stride scheduler; the two arbitrate by comparing virtual-time "pass"
// values so that stride processes receive their reserved share while
// MLFQ distributes the unreserved remainder.
//
// # Architecture
//
// Kernel wires four sub-packages, leaves-first:
//
//   - list: the intrusive circular list used for the free list, each MLFQ
//     level, the stride run-list, and the sleep list.
//   - stride: the fixed-capacity min-heap of stride processes, keyed by
//     pass, with overflow renormalization.
//   - mlfq: QSIZE FIFO queues with per-level rotation pins, demotion on
//     quantum/allotment exhaustion, and periodic priority boost.
//   - proc: the process table, its free list, and the lifecycle
//     operations (Fork, Exit, Wait, Yield, allocation, reaping).
//
// sched composes all of the above into the per-CPU scheduler loop and the
// sleep/wakeup/kill discipline.
//
// # Usage
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	k := kernelsched.New(sched.DefaultConfig())
//	if _, err := k.UserInit(ctx, "init", initBody); err != nil {
//	    log.Fatal(err)
//	}
//	if err := k.RunCPUs(ctx, runtime.NumCPU()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error handling
//
// Three tiers, per spec §7: sentinel errors below for invalid arguments
// and resource exhaustion (returned to the caller, no kernel state
// change on the error path); FatalError for invariant violations, which
// is paniced rather than returned, because continuing past a corrupted
// scheduler state is not a condition any caller can safely recover from;
// and plain -1/false-style zero values for semantic non-failures (e.g.
// CPUShare reporting false for a pid that holds no reservation).
package kernelsched

import (
	"errors"

	"github.com/joeycumines/go-mlfqstride/fault"
	"github.com/joeycumines/go-mlfqstride/sched"
)

// Kernel is the scheduler facade described in Architecture above. It is an
// alias of sched.Kernel, which holds the real implementation; the alias
// lets callers depend on this root package alone without naming sched.
type Kernel = sched.Kernel

// Config is an alias of sched.Config, re-exported for the same reason as
// Kernel.
type Config = sched.Config

// New builds a Kernel from cfg. See sched.DefaultConfig and sched.NewConfig
// for constructing cfg.
func New(cfg Config) *Kernel {
	return sched.New(cfg)
}

// Sentinel errors returned by Kernel and its sub-packages. All of these
// represent conditions spec §7 classifies as "return error to caller" or
// "invalid arguments" -- the kernel's internal state is left unchanged.
// They are aliases of the sentinels sched defines natively (sched cannot
// import this root package, which imports sched, so the canonical
// definitions live there).
var (
	// ErrNoFreeProc is returned by allocation when the process table has
	// no UNUSED slot available.
	ErrNoFreeProc = sched.ErrNoFreeProc

	// ErrNoSuchProc is returned by Kill when no process with the given
	// pid exists. (CPUShare reports a missing pid as ok == false instead.)
	ErrNoSuchProc = sched.ErrNoSuchProc

	// ErrInvalidShare is returned by SetCPUShare when n is outside
	// [1, 100-RESERVE], or granting it would leave the MLFQ remainder
	// below RESERVE.
	ErrInvalidShare = sched.ErrInvalidShare

	// ErrNoChildren is returned by Wait when the caller has no children
	// (living or zombie) to reap.
	ErrNoChildren = sched.ErrNoChildren

	// ErrKilled is returned by Wait when the caller itself has been
	// killed and should unwind rather than keep waiting.
	ErrKilled = sched.ErrKilled

	// ErrAlreadyRunning is returned by RunCPUs if the Kernel's scheduler
	// loops have already been started.
	ErrAlreadyRunning = sched.ErrAlreadyRunning

	// ErrKstackAlloc is reserved for an allocation path this module does
	// not model (spec §1 scopes kernel-stack/trap-frame setup out); kept
	// as a named sentinel so the three-tier error documentation above
	// stays accurate to spec §7 even though nothing currently raises it.
	ErrKstackAlloc = errors.New("kernelsched: kernel stack allocation failed")
)

// FatalError marks an invariant violation (spec §7): MLFQ accounting
// observing an impossible process state, the init process exiting, or
// MLFQ levels built with mismatched TQ/TA lengths. Lock discipline is not
// checked at run time, so no FatalError is raised for it. The scheduler
// panics with a
// FatalError rather than returning one, mirroring xv6's panic(): these
// conditions mean the scheduler's own bookkeeping is already wrong, and
// no caller above it can do anything safe except stop.
//
// It is an alias of fault.Error: mlfq and sched both raise it, and
// neither may import this root package (which imports them), so the
// type is defined in the leaf package fault and re-exported here for
// callers of Kernel.
type FatalError = fault.Error

// Fatal panics with a *FatalError built from reason.
func Fatal(reason string) {
	fault.Raise(reason)
}
