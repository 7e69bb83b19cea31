package sched

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/go-mlfqstride/fault"
	"github.com/joeycumines/go-mlfqstride/list"
	"github.com/joeycumines/go-mlfqstride/metrics"
	"github.com/joeycumines/go-mlfqstride/mlfq"
	"github.com/joeycumines/go-mlfqstride/proc"
	"github.com/joeycumines/go-mlfqstride/stride"
)

// Body is the process-supplied logic run on each of its turns. It is
// invoked once, on its own goroutine, the first time a CPU grants it the
// processor; later turns resume it where a Yield or Sleep call returns. It
// should call
// Kernel.Yield, Kernel.Sleep, or Kernel.Exit at the appropriate points
// (the Go-level analogue of a trap back into the scheduler) and must
// eventually call Kernel.Exit, which never returns to its caller.
type Body func(ctx context.Context, k *Kernel, p *proc.Proc)

// procRuntime is the per-process synchronization state backing the
// cooperative handoff between a CPU loop and a process's own goroutine.
// It has no analogue in spec.md, which treats context switch as hardware
// (spec §1's out-of-scope list); this is the Go-native stand-in package
// proc and the spec otherwise leave unspecified.
type procRuntime struct {
	// runGrant is sent by a CPU loop to let the process's goroutine run
	// (or resume running) one turn.
	runGrant chan struct{}
	// turnDone is sent by the process's goroutine when its turn ends,
	// carrying the proc.State it left itself in.
	turnDone chan proc.State
	// wake is closed by Wakeup/Kill to release a goroutine parked inside
	// Sleep; recreated fresh each time Sleep is entered.
	wake chan struct{}
}

// Kernel owns the single coarse lock described in spec §5 and wires
// the process table, the MLFQ, and the stride heap behind it. All
// exported methods acquire mu themselves; none should be called while
// already holding it (there is no recursive-lock support, matching
// xv6's single spinlock -- reentrant acquisition is a lock-discipline
// bug per spec §5 and would deadlock here exactly as it would panic
// there).
type Kernel struct {
	mu sync.Mutex

	cfg   Config
	table *proc.Table
	mlfq  *mlfq.Levels
	sh    *stride.Heap

	state *runState

	initProc *proc.Proc
	runtimes map[int]*procRuntime

	Metrics *metrics.Counters
}

// New builds a Kernel from cfg (see DefaultConfig, NewConfig).
func New(cfg Config) *Kernel {
	k := &Kernel{
		cfg:      cfg,
		table:    proc.NewTable(cfg.NPROC),
		mlfq:     mlfq.New(cfg.TQ, cfg.TA, cfg.BoostInterval),
		sh:       stride.NewHeap(cfg.NPROC, cfg.MaxInt),
		state:    newRunState(),
		runtimes: make(map[int]*procRuntime, cfg.NPROC),
		Metrics:  &metrics.Counters{},
	}
	k.table.Logger = cfg.Logger
	return k
}

// Config returns a copy of the Kernel's configuration.
func (k *Kernel) Config() Config { return k.cfg }

// State reports the scheduler loops' lifecycle state (see RunState).
func (k *Kernel) State() RunState { return k.state.Load() }

// Snapshot returns a point-in-time copy of every live process's
// observable state (spec §8's introspection needs).
func (k *Kernel) Snapshot() []proc.Snapshot {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.table.Snapshot()
}

// CPUShare reports the stride ticket count reserved by pid, and whether
// pid names a live STRIDE-discipline process at all (SPEC_FULL's
// read-only accessor alongside SetCPUShare).
func (k *Kernel) CPUShare(pid int) (tickets int, ok bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	p, err := k.table.Lookup(pid)
	if err != nil || p.Discipline != proc.Stride {
		return 0, false
	}
	return p.Tickets, true
}

func (k *Kernel) runtimeLocked(p *proc.Proc) *procRuntime {
	rt, ok := k.runtimes[p.Pid]
	if !ok {
		rt = &procRuntime{
			runGrant: make(chan struct{}),
			turnDone: make(chan proc.State),
		}
		k.runtimes[p.Pid] = rt
	}
	return rt
}

// Spawn starts p's Body on its own goroutine, parked waiting for the
// first CPU to grant it the processor. UserInit and Fork call this
// automatically; it is exported so a caller rebuilding a process's
// goroutine after a restart (or a test driving a Body directly) can do
// so explicitly.
func (k *Kernel) Spawn(ctx context.Context, p *proc.Proc, body Body) {
	k.mu.Lock()
	rt := k.runtimeLocked(p)
	k.mu.Unlock()
	go func() {
		select {
		case <-rt.runGrant:
		case <-ctx.Done():
			return
		}
		body(ctx, k, p)
	}()
}

// UserInit allocates the first process (spec §3's "becomes RUNNABLE
// on userinit/fork"), makes it the init process used for
// reparenting, enqueues it at MLFQ level 0, and spawns body.
func (k *Kernel) UserInit(ctx context.Context, name string, body Body) (*proc.Proc, error) {
	k.mu.Lock()
	p, err := k.table.Alloc()
	if err != nil {
		k.mu.Unlock()
		return nil, err
	}
	p.Name = name
	p.State = proc.Runnable
	p.Discipline = proc.MLFQ
	k.mlfq.Enqueue(p)
	k.initProc = p
	k.runtimeLocked(p)

	if k.cfg.Logger != nil {
		k.cfg.Logger.Debug().Str("name", name).Int64("pid", int64(p.Pid)).Log("init process created")
	}
	k.mu.Unlock()

	k.Spawn(ctx, p, body)
	return p, nil
}

// Fork implements spec §4.7's fork(): allocates a child, links it into
// parent's children, marks it Runnable/MLFQ, enqueues it at level 0,
// and spawns body. Returns ErrNoFreeProc if the table is full.
func (k *Kernel) Fork(ctx context.Context, parent *proc.Proc, name string, body Body) (*proc.Proc, error) {
	k.mu.Lock()
	child, err := k.table.Alloc()
	if err != nil {
		k.mu.Unlock()
		return nil, err
	}
	child.Name = name
	child.Parent = parent
	child.State = proc.Runnable
	child.Discipline = proc.MLFQ
	parent.Children.PushBack(&child.Sibling)
	k.mlfq.Enqueue(child)
	k.runtimeLocked(child)

	k.Metrics.Forks.Add(1)
	if k.cfg.Logger != nil {
		k.cfg.Logger.Debug().Int64("parent", int64(parent.Pid)).Int64("child", int64(child.Pid)).Log("fork")
	}
	k.mu.Unlock()

	k.Spawn(ctx, child, body)
	return child, nil
}

// Exit implements spec §4.7's exit(): removes p from its runnable
// structure, wakes its parent, reparents its children to init, sets
// it Zombie, and terminates the calling goroutine. It must be called
// from p's own Body goroutine and never returns to its caller (it
// calls runtime.Goexit after signaling the CPU loop), mirroring xv6's
// exit() never returning. Panics (fault.Raise) if p is the init
// process, per spec §7's invariant-violation tier.
func (k *Kernel) Exit(p *proc.Proc) {
	k.mu.Lock()
	k.exitLocked(p)
	rt := k.runtimes[p.Pid]
	k.mu.Unlock()

	rt.turnDone <- proc.Zombie
	runtime.Goexit()
}

func (k *Kernel) exitLocked(p *proc.Proc) {
	if p == k.initProc {
		fault.Raise("sched: init process exited")
	}

	k.detachLocked(p)
	if p.Discipline == proc.Stride {
		k.mlfq.Tickets += p.Tickets
		p.Tickets = 0
	}
	p.State = proc.Zombie

	if p.Parent != nil {
		k.wakeupLocked(p.Parent)
	}
	if zombies := k.table.Reparent(p, k.initProc); len(zombies) > 0 {
		k.wakeupLocked(k.initProc)
	}

	k.Metrics.Exits.Add(1)
	if k.cfg.Logger != nil {
		k.cfg.Logger.Debug().Int64("pid", int64(p.Pid)).Log("exit")
	}
}

// detachLocked removes p from whichever runnable structure it
// currently occupies (MLFQ level, or the stride run-list), without
// touching tickets. Exit additionally returns a STRIDE process's
// tickets to the MLFQ pool; Sleep and Yield do not, since the process
// still owns its reservation while sleeping or merely yielding.
func (k *Kernel) detachLocked(p *proc.Proc) {
	switch p.Discipline {
	case proc.MLFQ:
		k.mlfq.Dequeue(p)
	case proc.Stride:
		k.sh.RunListRemove(p)
	}
}

// wakeupLocked implements spec §4.6's wakeup1: every Sleeping process
// whose Chan equals chanKey is re-linked into its runnable structure
// (MLFQ level, or the stride run-list, pending the next stride_logic
// fold) and its Body goroutine released.
func (k *Kernel) wakeupLocked(chanKey any) {
	k.table.WakeMatching(chanKey, func(p *proc.Proc) {
		switch p.Discipline {
		case proc.MLFQ:
			k.mlfq.Enqueue(p)
		case proc.Stride:
			k.sh.RunListAdd(p)
		}
		k.Metrics.Wakeups.Add(1)
		close(k.runtimes[p.Pid].wake)
	})
}

// Wakeup implements spec §4.6's wakeup(): wakes every process sleeping
// on chanKey.
func (k *Kernel) Wakeup(chanKey any) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.wakeupLocked(chanKey)
}

// Sleep implements spec §4.6's sleep(chan, lk): removes p from its
// runnable structure, links it onto the sleep list keyed by chanKey,
// and parks p's own goroutine until a matching Wakeup or a Kill of p
// releases it -- the Go-level analogue of sched() switching away and
// later switching back. Must be called from p's own Body goroutine.
func (k *Kernel) Sleep(p *proc.Proc, chanKey any) {
	k.mu.Lock()
	rt, wake := k.sleepLocked(p, chanKey)
	k.mu.Unlock()

	k.parkSleeping(rt, wake)
}

// sleepLocked is the lock-held half of Sleep: it links p onto the
// sleep list keyed by chanKey and arms a fresh wake channel, but does
// not release mu or park p's goroutine. Callers that must check a
// wake condition and register the sleep as a single atomic step --
// Wait chief among them -- call this directly instead of Sleep, so
// that no unlock/relock gap exists for a concurrent Wakeup to slip
// through (spec §5: the sleeping side releases the ptable lock only
// after it is linked onto the sleep list). Must be called with mu
// held; mu is still held on return.
func (k *Kernel) sleepLocked(p *proc.Proc, chanKey any) (rt *procRuntime, wake chan struct{}) {
	k.detachLocked(p)
	k.table.Sleep(p, chanKey)
	rt = k.runtimeLocked(p)
	rt.wake = make(chan struct{})
	wake = rt.wake
	k.Metrics.Sleeps.Add(1)
	if k.cfg.Logger != nil {
		k.cfg.Logger.Debug().Int64("pid", int64(p.Pid)).Log("sleep")
	}
	return rt, wake
}

// parkSleeping hands the turn back to the scheduler and blocks p's own
// goroutine until it is woken and re-granted a turn. Must be called
// without mu held, after sleepLocked has already linked p onto the
// sleep list.
func (k *Kernel) parkSleeping(rt *procRuntime, wake chan struct{}) {
	rt.turnDone <- proc.Sleeping
	<-wake
	<-rt.runGrant
}

// Yield implements spec §4.7's yield(): marks p Runnable and ends its
// turn. An MLFQ process remains linked in its queue throughout (Select
// never unlinks it); a STRIDE process remains on the run-list, where
// the end-of-iteration stride_logic fold will pick it up and push it
// back into the heap with an advanced pass. Must be called from p's
// own Body goroutine.
func (k *Kernel) Yield(p *proc.Proc) {
	k.mu.Lock()
	p.State = proc.Runnable
	rt := k.runtimeLocked(p)
	k.mu.Unlock()

	rt.turnDone <- proc.Runnable
	<-rt.runGrant
}

// Kill implements spec §4.6's kill(pid): looks up pid, sets its Killed
// flag, and if it is currently Sleeping, re-links it as Runnable and
// releases its parked goroutine -- exactly as a Wakeup would, but
// triggered by Kill's match on pid rather than Wakeup's match on a
// channel key. A Killed process that is not Sleeping is expected to
// observe the flag (via its own Body logic) and call Exit on its next
// turn; Kill does not force that by itself.
func (k *Kernel) Kill(pid int) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	p, err := k.table.Lookup(pid)
	if err != nil {
		return err
	}
	k.table.KillSleeping(p, func(w *proc.Proc) {
		switch w.Discipline {
		case proc.MLFQ:
			k.mlfq.Enqueue(w)
		case proc.Stride:
			k.sh.RunListAdd(w)
		}
		close(k.runtimes[w.Pid].wake)
	})
	k.Metrics.Kills.Add(1)
	return nil
}

// Wait implements spec §4.7's wait(): loops scanning caller's children
// for the first Zombie, reaping and returning its pid; if none is
// found yet but children remain and caller has not been killed, it
// sleeps on caller's own address (the standard xv6 convention: a
// process waits by sleeping on itself, and exit wakes the parent by
// waking on the parent's address) and retries. Returns ErrNoChildren
// if caller has no children at all, ErrKilled if caller itself was
// killed. Must be called from caller's own Body goroutine.
//
// The zombie check and the sleep registration run under one
// continuous hold of mu -- mirroring xv6's sleep(chan, &ptable.lock),
// which never drops the ptable lock between a condition check and the
// process linking onto the sleep list. Dropping mu in between would
// let a concurrent Exit on another CPU set a child Zombie and call
// wakeupLocked(caller) while caller is not yet on the sleep list,
// losing the wakeup and hanging Wait forever.
func (k *Kernel) Wait(caller *proc.Proc) (int, error) {
	for {
		k.mu.Lock()
		if caller.Children.Empty() {
			k.mu.Unlock()
			return -1, ErrNoChildren
		}
		if caller.Killed {
			k.mu.Unlock()
			return -1, ErrKilled
		}
		if pid, ok := k.reapFirstZombieLocked(caller); ok {
			k.mu.Unlock()
			return pid, nil
		}
		rt, wake := k.sleepLocked(caller, caller)
		k.mu.Unlock()

		k.parkSleeping(rt, wake)
	}
}

func (k *Kernel) reapFirstZombieLocked(caller *proc.Proc) (pid int, ok bool) {
	var zombie *proc.Proc
	caller.Children.Do(func(n *list.Node) bool {
		c := n.Owner.(*proc.Proc)
		if c.State == proc.Zombie {
			zombie = c
			return false
		}
		return true
	})
	if zombie == nil {
		return 0, false
	}
	list.Remove(&zombie.Sibling)
	pid = zombie.Pid
	delete(k.runtimes, zombie.Pid)
	k.table.Free(zombie)
	return pid, true
}

// IncTick implements SPEC_FULL's supplemented inctick(): charges p one
// MLFQ tick (spec §4.3's per-tick accounting) without applying the
// demotion or allotment side effects that the end-of-turn mlfq_logic
// call performs; intended for a timer-interrupt style caller that
// wants per-tick observability (e.g. the Ticks field in a Snapshot)
// independent of the coarser per-turn scheduling decision.
func (k *Kernel) IncTick(p *proc.Proc) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if p.Discipline == proc.MLFQ {
		p.Ticks++
	}
}

// SetCPUShare implements spec §4.4/§6's set_cpu_share: reserves n
// tickets of CPU share for p, converting it to STRIDE discipline if it
// was MLFQ. Fails with ErrInvalidShare if n is outside [1,
// 100-Reserve], or if granting it would leave the MLFQ's remaining
// ticket pool below Reserve. Must be called from p's own Body
// goroutine (the spec models this as a syscall the process issues on
// its own behalf while Running).
func (k *Kernel) SetCPUShare(p *proc.Proc, n int) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if n < 1 || n > 100-k.cfg.Reserve {
		return ErrInvalidShare
	}

	base := k.mlfq.Tickets
	if p.Discipline == proc.Stride {
		base += p.Tickets
	}
	if base-n < k.cfg.Reserve {
		return ErrInvalidShare
	}

	if p.Discipline == proc.MLFQ {
		k.mlfq.Dequeue(p)
		pass := k.sh.MinPass()
		if k.mlfq.Pass < pass {
			pass = k.mlfq.Pass
		}
		p.Pass = pass
		p.Discipline = proc.Stride
		k.sh.RunListAdd(p)
	} else {
		k.mlfq.Tickets += p.Tickets
	}
	k.mlfq.Tickets -= n
	p.Tickets = n

	if k.cfg.Logger != nil {
		k.cfg.Logger.Debug().Int64("pid", int64(p.Pid)).Int64("tickets", int64(n)).Log("cpu share granted")
	}
	return nil
}

func (k *Kernel) boostLocked() {
	k.mlfq.Boost()
	k.table.EachSleeping(func(p *proc.Proc) {
		if p.Discipline == proc.MLFQ {
			mlfq.ResetLevel(p)
		}
	})
	k.Metrics.Boosts.Add(1)
}

// selectLocked implements spec §4.4's arbitration rule: if the stride
// heap's minimum pass is strictly less than the MLFQ's pass, pop and
// dispatch from the heap; otherwise consult the MLFQ. Must be called
// with mu held.
func (k *Kernel) selectLocked() (p *proc.Proc, wasStride bool) {
	if k.sh.MinPass() < k.mlfq.Pass {
		p := k.sh.Pop()
		if p != nil {
			k.Metrics.StridePops.Add(1)
		}
		return p, true
	}
	return k.mlfq.Select(), false
}

// strideLogicLocked implements spec §4.4's stride_logic, called
// unconditionally at the end of every scheduler iteration regardless
// of which side was selected: computes the renormalization minimum,
// advances the MLFQ's pass when the MLFQ side ran (or nothing did),
// and folds every Runnable process currently on the stride run-list
// (the one that just finished its turn, plus any woken during the
// window) back into the heap with an advanced pass. Must be called
// with mu held.
func (k *Kernel) strideLogicLocked(wasStride bool, chosenPass int64) {
	var minpass int64
	if wasStride {
		minpass = chosenPass
	} else {
		minpass = k.mlfq.Pass
	}
	// Only rebases the heap and the run-list; a STRIDE process parked on
	// the sleep list at this instant is on neither and keeps its
	// pre-renormalization Pass, re-entering the heap out of epoch on
	// wake. Only reachable once Pass has drifted past roughly Barrier/4,
	// an extreme case this kernel does not otherwise guard against.
	if delta, renormalized := k.sh.RenormalizeIfNeeded(minpass, k.cfg.Barrier); renormalized {
		k.mlfq.Pass -= delta
	}
	if !wasStride {
		k.mlfq.Pass += k.cfg.STRD(k.mlfq.Tickets)
	}
	for _, p := range k.sh.TakeRunnable() {
		p.Pass += k.cfg.STRD(p.Tickets)
		k.sh.Push(p)
	}
}

// cpuLoop is one CPU's scheduler loop (spec §4.5): acquire mu, pick
// the next process per the arbitration rule, release mu, dispatch it
// (block until it yields, sleeps, or exits), reacquire mu, run the
// post-run accounting (mlfq_logic's demotion/boost and
// stride_logic's pass bookkeeping), and repeat. Idle iterations (no
// Runnable process found) still run stride_logic, since the MLFQ's
// pass advances even while the CPU is otherwise unoccupied.
func (k *Kernel) cpuLoop(ctx context.Context, apicid int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		k.mu.Lock()
		p, wasStride := k.selectLocked()
		if p == nil {
			k.strideLogicLocked(false, 0)
			k.mu.Unlock()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(k.cfg.IdleBackoff):
			}
			continue
		}

		chosenPass := p.Pass
		if wasStride {
			k.sh.RunListAdd(p)
		}
		p.State = proc.Running
		rt := k.runtimeLocked(p)
		k.Metrics.Ticks.Add(1)
		if k.cfg.Logger != nil {
			k.cfg.Logger.Debug().Int64("pid", int64(p.Pid)).Int64("cpu", int64(apicid)).Log("dispatch")
		}
		k.mu.Unlock()

		rt.runGrant <- struct{}{}
		<-rt.turnDone

		k.mu.Lock()
		if p.Discipline == proc.MLFQ {
			boosted, demoted := k.mlfq.Logic(p)
			if demoted {
				k.Metrics.Demotions.Add(1)
			}
			if boosted {
				k.boostLocked()
			}
		}
		k.strideLogicLocked(wasStride, chosenPass)
		k.mu.Unlock()
	}
}

// RunCPUs launches n per-CPU scheduler loops (the direct analogue of
// xv6's mpmain running on every core) and blocks until ctx is
// canceled and all of them have returned. A context cancellation is
// treated as a normal shutdown, not an error. Returns ErrAlreadyRunning
// if the Kernel's loops have already been started.
func (k *Kernel) RunCPUs(ctx context.Context, n int) error {
	if n <= 0 {
		return errors.New("sched: RunCPUs requires n > 0")
	}
	if !k.state.TryTransition(Awake, Running) {
		return ErrAlreadyRunning
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		apicid := i
		g.Go(func() error {
			return k.cpuLoop(gctx, apicid)
		})
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-gctx.Done():
			k.state.TryTransition(Running, Terminating)
		case <-done:
		}
	}()

	err := g.Wait()
	close(done)
	k.state.Store(Terminated)
	if err != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
