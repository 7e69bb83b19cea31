// Package sched implements the per-CPU scheduler loop, the stride-vs-
// MLFQ arbitration rule, and the sleep/wakeup/kill discipline (spec
// §4.4, §4.5, §4.6), composing package proc (the process table),
// package mlfq (the feedback queues), and package stride (the stride
// heap).
//
// Kernel is grounded on eventloop.Loop: an atomic run-lifecycle state
// machine (state.go, mirroring eventloop.FastState/LoopState), functional
// Options validated at construction (config.go, mirroring
// eventloop/options.go), and a logiface-based logger defaulting to a
// stumpy backend when unset. Unlike eventloop, which drives one loop per
// process and exposes an explicit Shutdown/Close, Kernel's RunCPUs
// launches N per-CPU loops that share the same locked scheduler state and
// treats context cancellation as the sole shutdown signal -- the direct
// analogue of xv6's mpmain running on every core, torn down by the
// context rather than a separate call.
//
// Each process's Body runs on its own goroutine; Yield, Sleep, and Exit
// are the trap-back-into-the-scheduler points a Body calls at the end of
// each turn, synchronized against the owning CPU loop through a small
// per-process handoff (kernel.go's procRuntime) that stands in for the
// hardware context switch spec §1 scopes out.
package sched
