// Package mlfq implements the multi-level feedback queue: QSIZE FIFO
// levels with per-level rotation pins, demotion on quantum/allotment
// exhaustion, and periodic priority boost (spec §4.3).
//
// Every exported method assumes the caller already holds the single
// coarse lock described in spec §5 (owned by sched.Kernel, not here),
// the same assumption package proc makes.
package mlfq
