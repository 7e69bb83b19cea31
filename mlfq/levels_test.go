package mlfq

import (
	"testing"

	"github.com/joeycumines/go-mlfqstride/list"
	"github.com/joeycumines/go-mlfqstride/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunnable(pid, lvl int) *proc.Proc {
	p := &proc.Proc{Pid: pid, State: proc.Runnable, PrivLevel: lvl, StrideIndex: -1}
	p.Queue.Owner = p
	return p
}

func newLevels() *Levels {
	return New([]int{1, 2, 4}, []int{4, 8, 16}, 128)
}

func TestLevels_SelectFIFOWithinLevel(t *testing.T) {
	m := newLevels()
	a, b, c := newRunnable(1, 0), newRunnable(2, 0), newRunnable(3, 0)
	m.Enqueue(a)
	m.Enqueue(b)
	m.Enqueue(c)

	require.Same(t, a, m.Select())
	// pin stays on a until it's dequeued/advanced; re-selecting without
	// advancing returns the same process (rotation only moves on
	// demotion/within-level yield accounting, not on Select itself).
	require.Same(t, a, m.Select())
}

func TestLevels_SelectSkipsNonRunnable(t *testing.T) {
	m := newLevels()
	a := newRunnable(1, 0)
	a.State = proc.Sleeping
	b := newRunnable(2, 0)
	m.Enqueue(a)
	m.Enqueue(b)

	require.Same(t, b, m.Select())
}

func TestLevels_SelectHigherLevelWins(t *testing.T) {
	m := newLevels()
	hi := newRunnable(1, 0)
	lo := newRunnable(2, 1)
	m.Enqueue(hi)
	m.Enqueue(lo)

	require.Same(t, hi, m.Select())
}

func TestLevels_SelectReturnsNilWhenNoneRunnable(t *testing.T) {
	m := newLevels()
	a := newRunnable(1, 0)
	a.State = proc.Sleeping
	m.Enqueue(a)

	assert.Nil(t, m.Select())
}

func TestLevels_DequeueAdvancesPinWhenRemovingPinnedNode(t *testing.T) {
	m := newLevels()
	a, b := newRunnable(1, 0), newRunnable(2, 0)
	m.Enqueue(a)
	m.Enqueue(b)

	require.Same(t, a, m.Select()) // pins level 0 at a
	m.Dequeue(a)

	require.Same(t, b, m.Select())
}

func TestLevels_LogicDemotesOnAllotmentExhaustion(t *testing.T) {
	m := New([]int{1, 2, 4}, []int{5, 10, 20}, 128)
	p := newRunnable(1, 0)
	m.Enqueue(p)

	for i := 0; i < 4; i++ {
		_, demoted := m.Logic(p)
		assert.False(t, demoted)
		assert.Equal(t, 0, p.PrivLevel)
	}
	_, demoted := m.Logic(p) // 5th tick == TA[0]
	assert.True(t, demoted)
	assert.Equal(t, 1, p.PrivLevel)
	assert.Equal(t, 0, p.Ticks)
}

func TestLevels_LogicAdvancesPinOnQuantum(t *testing.T) {
	m := New([]int{2, 2, 2}, []int{100, 100, 100}, 1000)
	a, b := newRunnable(1, 0), newRunnable(2, 0)
	m.Enqueue(a)
	m.Enqueue(b)

	require.Same(t, a, m.Select())
	m.Logic(a) // tick 1, not multiple of TQ[0]=2
	require.Same(t, a, m.Select())
	m.Logic(a) // tick 2, multiple of TQ[0] -> pin advances to b
	require.Same(t, b, m.Select())
}

func TestLevels_LogicSleepingRoundsDownTicks(t *testing.T) {
	m := New([]int{2, 2, 2}, []int{100, 100, 100}, 1000)
	p := newRunnable(1, 0)
	p.Ticks = 5
	p.State = proc.Sleeping

	m.Logic(p)
	assert.Equal(t, 4, p.Ticks)
	assert.Equal(t, 0, p.PrivLevel)
}

func TestLevels_LogicSleepingDemotesWhenOverAllotment(t *testing.T) {
	m := New([]int{2, 2, 2}, []int{5, 5, 5}, 1000)
	p := newRunnable(1, 0)
	p.Ticks = 5
	p.State = proc.Sleeping

	_, demoted := m.Logic(p)
	assert.True(t, demoted)
	assert.Equal(t, 1, p.PrivLevel)
	assert.Equal(t, 0, p.Ticks)
}

func TestLevels_LogicZombieNoAccounting(t *testing.T) {
	m := newLevels()
	p := newRunnable(1, 0)
	p.State = proc.Zombie
	before := p.Ticks
	m.Logic(p)
	assert.Equal(t, before, p.Ticks)
}

func TestLevels_LogicSignalsBoost(t *testing.T) {
	m := New([]int{1, 1, 1}, []int{100, 100, 100}, 3)
	p := newRunnable(1, 0)
	m.Enqueue(p)

	boosted, _ := m.Logic(p)
	assert.False(t, boosted)
	boosted, _ = m.Logic(p)
	assert.False(t, boosted)
	boosted, _ = m.Logic(p)
	assert.True(t, boosted)
}

func TestLevels_BoostResetsAndSplicesInOrder(t *testing.T) {
	m := newLevels()
	a := newRunnable(1, 2)
	b := newRunnable(2, 2)
	c := newRunnable(3, 0)
	m.Enqueue(a)
	m.Enqueue(b)
	m.Enqueue(c)

	m.Boost()

	assert.Equal(t, 0, a.PrivLevel)
	assert.Equal(t, 0, b.PrivLevel)
	assert.Equal(t, 0, a.Ticks)

	var order []int
	m.queues[0].Do(func(n *list.Node) bool {
		order = append(order, n.Owner.(*proc.Proc).Pid)
		return true
	})
	assert.Equal(t, []int{3, 1, 2}, order)
	assert.True(t, m.queues[2].Empty())
}

func TestLevels_ConcatqueuePreservesPinOnEmptyDest(t *testing.T) {
	m := newLevels()
	a, b := newRunnable(1, 1), newRunnable(2, 1)
	m.Enqueue(a)
	m.Enqueue(b)
	require.Same(t, a, m.Select()) // pins level 1 at a

	m.concatqueue(1, 0)

	require.Same(t, a, m.Select())
}
