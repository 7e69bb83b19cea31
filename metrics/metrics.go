// Package metrics provides the plain-atomics counters backing spec
// §8's testable properties: ticks consumed, demotions, boosts fired,
// and stride heap pops. Grounded on eventloop/metrics.go's own
// atomic-counter struct -- no metrics SDK in the pack is a better fit
// for an in-process counter struct with no export surface.
package metrics

import "sync/atomic"

// Counters is safe for concurrent use; the zero value is ready.
type Counters struct {
	Ticks      atomic.Int64
	Demotions  atomic.Int64
	Boosts     atomic.Int64
	StridePops atomic.Int64
	Forks      atomic.Int64
	Exits      atomic.Int64
	Sleeps     atomic.Int64
	Wakeups    atomic.Int64
	Kills      atomic.Int64
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Ticks      int64
	Demotions  int64
	Boosts     int64
	StridePops int64
	Forks      int64
	Exits      int64
	Sleeps     int64
	Wakeups    int64
	Kills      int64
}

// Snapshot reads every counter. Individual fields may be inconsistent
// with each other under concurrent writers, matching the teacher's own
// non-atomic-across-fields metrics.go snapshot.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Ticks:      c.Ticks.Load(),
		Demotions:  c.Demotions.Load(),
		Boosts:     c.Boosts.Load(),
		StridePops: c.StridePops.Load(),
		Forks:      c.Forks.Load(),
		Exits:      c.Exits.Load(),
		Sleeps:     c.Sleeps.Load(),
		Wakeups:    c.Wakeups.Load(),
		Kills:      c.Kills.Load(),
	}
}
