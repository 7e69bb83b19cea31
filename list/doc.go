// Package list implements an intrusive, circular, doubly-linked list with a
// sentinel head node.
//
// Unlike container/list, nodes are embedded directly in the owning struct
// (see Node) rather than boxed in a separately allocated Element. This
// makes every operation below except iteration (Do) O(1), and none of
// them allocates, which matters
// here: a process moves between the free list, an MLFQ queue, the stride
// run-list, and the sleep list many times over its life, and none of those
// moves may allocate.
package list
