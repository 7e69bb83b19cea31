package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	node Node
	val  int
}

func TestList_PushBackOrder(t *testing.T) {
	var l List
	l.Init()

	items := []*item{{val: 1}, {val: 2}, {val: 3}}
	for _, it := range items {
		it.node.Owner = it
		l.PushBack(&it.node)
	}

	var got []int
	l.Do(func(n *Node) bool {
		got = append(got, n.Owner.(*item).val)
		return true
	})
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestList_PushFront(t *testing.T) {
	var l List
	l.Init()

	a, b := &item{val: 1}, &item{val: 2}
	a.node.Owner, b.node.Owner = a, b
	l.PushBack(&a.node)
	l.PushFront(&b.node)

	require.Equal(t, b, l.Front().Owner)
}

func TestList_Remove(t *testing.T) {
	var l List
	l.Init()

	a, b, c := &item{val: 1}, &item{val: 2}, &item{val: 3}
	for _, it := range []*item{a, b, c} {
		it.node.Owner = it
		l.PushBack(&it.node)
	}

	Remove(&b.node)

	var got []int
	l.Do(func(n *Node) bool {
		got = append(got, n.Owner.(*item).val)
		return true
	})
	assert.Equal(t, []int{1, 3}, got)
	assert.True(t, b.node.Next() == &b.node)
}

func TestList_Empty(t *testing.T) {
	var l List
	l.Init()
	assert.True(t, l.Empty())

	it := &item{val: 1}
	it.node.Owner = it
	l.PushBack(&it.node)
	assert.False(t, l.Empty())

	Remove(&it.node)
	assert.True(t, l.Empty())
}

func TestMoveAll(t *testing.T) {
	var src, dst List
	src.Init()
	dst.Init()

	items := []*item{{val: 1}, {val: 2}, {val: 3}}
	for _, it := range items {
		it.node.Owner = it
		src.PushBack(&it.node)
	}

	dstOnly := &item{val: 0}
	dstOnly.node.Owner = dstOnly
	dst.PushBack(&dstOnly.node)

	MoveAll(&dst, &src)

	assert.True(t, src.Empty())

	var got []int
	dst.Do(func(n *Node) bool {
		got = append(got, n.Owner.(*item).val)
		return true
	})
	assert.Equal(t, []int{0, 1, 2, 3}, got)
}

func TestMoveAll_EmptySourceNoop(t *testing.T) {
	var src, dst List
	src.Init()
	dst.Init()

	it := &item{val: 1}
	it.node.Owner = it
	dst.PushBack(&it.node)

	MoveAll(&dst, &src)

	var got []int
	dst.Do(func(n *Node) bool {
		got = append(got, n.Owner.(*item).val)
		return true
	})
	assert.Equal(t, []int{1}, got)
}

func TestList_DoStopsEarly(t *testing.T) {
	var l List
	l.Init()
	items := []*item{{val: 1}, {val: 2}, {val: 3}}
	for _, it := range items {
		it.node.Owner = it
		l.PushBack(&it.node)
	}

	var visited int
	l.Do(func(n *Node) bool {
		visited++
		return n.Owner.(*item).val != 2
	})
	assert.Equal(t, 2, visited)
}
