package list

// Node is an intrusive list node. Embed it (by value) in any struct that
// needs to live on a List, and set Owner to a pointer back to that struct
// so the containing record can be recovered from a bare *Node (the
// container-of operation of spec §4.1). A zero Node is not linked
// anywhere; insert it via List.PushFront/PushBack before calling Remove
// or Next on it.
type Node struct {
	prev, next *Node
	// Owner is the record this node is embedded in. Assigning a pointer
	// to an interface does not allocate, so this costs nothing beyond
	// the word itself.
	Owner any
}

// List is a circular doubly-linked list with a sentinel head. The zero
// value is not ready for use; call Init first.
type List struct {
	head Node
}

// Init initializes (or clears) l to the empty list. Must be called before
// any other method.
func (l *List) Init() *List {
	l.head.prev = &l.head
	l.head.next = &l.head
	return l
}

// Empty reports whether l has no elements.
func (l *List) Empty() bool {
	return l.head.next == &l.head
}

// Front returns the first node in l, or the sentinel head if l is empty.
// Callers must check against l.Sentinel() (or Empty) before dereferencing
// the containing record.
func (l *List) Front() *Node {
	return l.head.next
}

// Sentinel returns l's head sentinel node. A Node equal to it marks the
// end of iteration (or an empty list).
func (l *List) Sentinel() *Node {
	return &l.head
}

// PushFront inserts n immediately after the head sentinel (n becomes the
// new first element).
func (l *List) PushFront(n *Node) {
	insertAfter(n, &l.head)
}

// PushBack inserts n immediately before the head sentinel (n becomes the
// new last element).
func (l *List) PushBack(n *Node) {
	insertAfter(n, l.head.prev)
}

// Remove unlinks n from whatever list it is currently part of and leaves
// n linked to itself, so calling Remove again on the same node is a
// no-op. A zero Node has nil links and must not be passed to Remove.
func Remove(n *Node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = n
	n.next = n
}

// Next returns the node following n. If n was the last element, Next
// returns the owning list's sentinel (compare against List.Sentinel).
func (n *Node) Next() *Node {
	return n.next
}

// insertAfter splices n in immediately after at.
func insertAfter(n, at *Node) {
	n.prev = at
	n.next = at.next
	at.next.prev = n
	at.next = n
}

// MoveAll splices every node of src onto the tail of dst, leaving src
// empty. O(1): no per-node work.
func MoveAll(dst, src *List) {
	if src.Empty() {
		return
	}
	first := src.head.next
	last := src.head.prev

	dstLast := dst.head.prev
	dstLast.next = first
	first.prev = dstLast
	last.next = &dst.head
	dst.head.prev = last

	src.Init()
}

// Do calls fn for every node in l, in order, stopping early if fn returns
// false. It is safe for fn to remove the node it was passed (via Remove),
// but not other nodes in l.
func (l *List) Do(fn func(n *Node) bool) {
	for n := l.head.next; n != &l.head; {
		next := n.next
		if !fn(n) {
			return
		}
		n = next
	}
}
