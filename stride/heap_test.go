package stride

import (
	"testing"

	"github.com/joeycumines/go-mlfqstride/list"
	"github.com/joeycumines/go-mlfqstride/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProc(pid int, pass int64) *proc.Proc {
	p := &proc.Proc{Pid: pid, Pass: pass, StrideIndex: -1}
	p.Queue.Owner = p
	return p
}

func TestHeap_PopReturnsMinPass(t *testing.T) {
	h := NewHeap(8, 1<<30)
	a, b, c := newProc(1, 30), newProc(2, 10), newProc(3, 20)
	h.Push(a)
	h.Push(b)
	h.Push(c)

	require.Equal(t, int64(10), h.MinPass())

	first := h.Pop()
	assert.Same(t, b, first)
	second := h.Pop()
	assert.Same(t, c, second)
	third := h.Pop()
	assert.Same(t, a, third)

	assert.Nil(t, h.Pop())
}

func TestHeap_MinPassEmptyReturnsMaxInt(t *testing.T) {
	h := NewHeap(4, 999)
	assert.Equal(t, int64(999), h.MinPass())
}

func TestHeap_PushPanicsAtCapacity(t *testing.T) {
	h := NewHeap(1, 1000)
	h.Push(newProc(1, 1))
	assert.Panics(t, func() {
		h.Push(newProc(2, 2))
	})
}

func TestHeap_RunListAddRemove(t *testing.T) {
	h := NewHeap(4, 1000)
	p := newProc(1, 5)
	h.RunListAdd(p)
	assert.True(t, h.runList.Front().Owner.(*proc.Proc) == p)
	h.RunListRemove(p)
	assert.True(t, h.runList.Empty())
}

func TestHeap_RenormalizeIfNeeded(t *testing.T) {
	h := NewHeap(4, 1000)
	a, b := newProc(1, 2000), newProc(2, 1500)
	h.Push(a)
	h.Push(b)
	running := newProc(3, 1800)
	h.RunListAdd(running)

	delta, did := h.RenormalizeIfNeeded(h.MinPass(), 100)
	require.True(t, did)
	assert.Equal(t, int64(1500), delta)
	assert.Equal(t, int64(500), a.Pass)
	assert.Equal(t, int64(0), b.Pass)
	assert.Equal(t, int64(300), running.Pass)
}

func TestHeap_TakeRunnableFoldsOnlyRunnableEntries(t *testing.T) {
	h := NewHeap(4, 1000)

	justYielded := newProc(1, 5)
	justYielded.State = proc.Runnable
	h.RunListAdd(justYielded)

	stillDispatched := newProc(2, 7)
	stillDispatched.State = proc.Running
	h.RunListAdd(stillDispatched)

	taken := h.TakeRunnable()
	require.Len(t, taken, 1)
	assert.Same(t, justYielded, taken[0])

	var remaining []*proc.Proc
	h.runList.Do(func(n *list.Node) bool {
		remaining = append(remaining, n.Owner.(*proc.Proc))
		return true
	})
	require.Len(t, remaining, 1)
	assert.Same(t, stillDispatched, remaining[0])
}

func TestHeap_RenormalizeNotNeededBelowBarrier(t *testing.T) {
	h := NewHeap(4, 1000)
	a := newProc(1, 50)
	h.Push(a)

	delta, did := h.RenormalizeIfNeeded(h.MinPass(), 100)
	assert.False(t, did)
	assert.Equal(t, int64(0), delta)
	assert.Equal(t, int64(50), a.Pass)
}
