// Package proc defines the scheduled unit (Proc) and the fixed-size
// process table it lives in: allocation, the free list, parent/child
// linkage, and the lifecycle transitions described in spec §3/§4.7
// (fork, exit, wait, yield). It does not decide *when* a process runs —
// that arbitration lives in package sched, built on top of mlfq and
// stride — only what a process is and how it moves between UNUSED,
// EMBRYO, RUNNABLE, RUNNING, SLEEPING and ZOMBIE.
//
// Table itself holds no lock. Every exported method assumes the caller
// already holds the single coarse lock described in spec §5 -- in this
// module that lock lives on sched.Kernel, not here, because the same
// lock must also guard the MLFQ queues and the stride heap, and those
// live in sibling packages. This mirrors xv6's ptable.lock: one lock
// spanning the table, the MLFQ, and the stride scheduler together, so
// that a process's state transition and its structural move between
// those structures are atomic relative to any other observer.
package proc
