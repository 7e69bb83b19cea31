package proc

import (
	"testing"

	"github.com/joeycumines/go-mlfqstride/list"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AllocExhaustion(t *testing.T) {
	tb := NewTable(2)

	p1, err := tb.Alloc()
	require.NoError(t, err)
	p2, err := tb.Alloc()
	require.NoError(t, err)
	assert.NotEqual(t, p1.Pid, p2.Pid)

	_, err = tb.Alloc()
	assert.ErrorIs(t, err, ErrNoFreeProc)

	tb.Free(p1)
	p3, err := tb.Alloc()
	require.NoError(t, err)
	assert.Equal(t, Embryo, p3.State)
}

func TestTable_AllocAssignsFreshPids(t *testing.T) {
	tb := NewTable(3)
	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		p, err := tb.Alloc()
		require.NoError(t, err)
		assert.False(t, seen[p.Pid])
		seen[p.Pid] = true
	}
}

func TestTable_Lookup(t *testing.T) {
	tb := NewTable(4)
	p, err := tb.Alloc()
	require.NoError(t, err)

	got, err := tb.Lookup(p.Pid)
	require.NoError(t, err)
	assert.Same(t, p, got)

	_, err = tb.Lookup(p.Pid + 1000)
	assert.ErrorIs(t, err, ErrNoSuchProc)

	tb.Free(p)
	_, err = tb.Lookup(p.Pid)
	assert.ErrorIs(t, err, ErrNoSuchProc)
}

func TestTable_SleepAndWakeMatching(t *testing.T) {
	tb := NewTable(4)
	a, _ := tb.Alloc()
	b, _ := tb.Alloc()
	a.State = Runnable
	b.State = Runnable

	const chanKey = "rx-queue"
	tb.Sleep(a, chanKey)
	assert.Equal(t, Sleeping, a.State)
	assert.Equal(t, chanKey, a.Chan)

	var relinked []*Proc
	tb.WakeMatching(chanKey, func(p *Proc) {
		relinked = append(relinked, p)
	})

	require.Len(t, relinked, 1)
	assert.Same(t, a, relinked[0])
	assert.Equal(t, Runnable, a.State)
	assert.Nil(t, a.Chan)
}

func TestTable_WakeMatchingIgnoresOtherChannels(t *testing.T) {
	tb := NewTable(4)
	a, _ := tb.Alloc()
	tb.Sleep(a, "x")

	var called bool
	tb.WakeMatching("y", func(p *Proc) { called = true })
	assert.False(t, called)
	assert.Equal(t, Sleeping, a.State)
}

func TestTable_KillSleepingWakesVictim(t *testing.T) {
	tb := NewTable(4)
	a, _ := tb.Alloc()
	tb.Sleep(a, "x")

	var relinked *Proc
	tb.KillSleeping(a, func(p *Proc) { relinked = p })

	assert.True(t, a.Killed)
	assert.Equal(t, Runnable, a.State)
	assert.Same(t, a, relinked)
}

func TestTable_KillSleepingNonSleepingOnlyMarksKilled(t *testing.T) {
	tb := NewTable(4)
	a, _ := tb.Alloc()
	a.State = Running

	var called bool
	tb.KillSleeping(a, func(p *Proc) { called = true })

	assert.True(t, a.Killed)
	assert.Equal(t, Running, a.State)
	assert.False(t, called)
}

func TestTable_Snapshot(t *testing.T) {
	tb := NewTable(4)
	a, _ := tb.Alloc()
	a.State = Runnable
	a.Name = "alpha"
	b, _ := tb.Alloc()
	tb.Free(b)

	snap := tb.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, a.Pid, snap[0].Pid)
	assert.Equal(t, "alpha", snap[0].Name)
	assert.Equal(t, Runnable, snap[0].State)
	assert.Nil(t, snap[0].Chan)
}

func TestTable_SnapshotReportsChanWhileSleeping(t *testing.T) {
	tb := NewTable(4)
	a, _ := tb.Alloc()
	tb.Sleep(a, "rx-queue")

	snap := tb.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "rx-queue", snap[0].Chan)
}

func TestTable_EachSleeping(t *testing.T) {
	tb := NewTable(4)
	a, _ := tb.Alloc()
	b, _ := tb.Alloc()
	c, _ := tb.Alloc()
	tb.Sleep(a, "x")
	tb.Sleep(b, "y")
	c.State = Runnable

	var visited []*Proc
	tb.EachSleeping(func(p *Proc) { visited = append(visited, p) })

	assert.ElementsMatch(t, []*Proc{a, b}, visited)
}

func TestTable_Reparent(t *testing.T) {
	tb := NewTable(4)
	parent, _ := tb.Alloc()
	initProc, _ := tb.Alloc()
	child1, _ := tb.Alloc()
	child2, _ := tb.Alloc()

	parent.Children.Init()
	initProc.Children.Init()

	for _, c := range []*Proc{child1, child2} {
		c.Parent = parent
		parent.Children.PushBack(&c.Sibling)
	}
	child2.State = Zombie

	zombies := tb.Reparent(parent, initProc)

	require.Len(t, zombies, 1)
	assert.Same(t, child2, zombies[0])
	assert.Same(t, initProc, child1.Parent)
	assert.Same(t, initProc, child2.Parent)
	assert.True(t, parent.Children.Empty())

	var reparented []int
	initProc.Children.Do(func(n *list.Node) bool {
		reparented = append(reparented, n.Owner.(*Proc).Pid)
		return true
	})
	assert.ElementsMatch(t, []int{child1.Pid, child2.Pid}, reparented)
}
