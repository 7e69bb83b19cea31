package sched

import (
	"errors"
	"math"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Config groups the tunable constants of spec §6. The zero value is
// not meaningful; use DefaultConfig and Options, or NewConfig.
type Config struct {
	// NPROC is the process table's fixed capacity.
	NPROC int

	// TQ and TA are the per-level quantum and allotment; QSIZE is
	// len(TQ) (== len(TA)).
	TQ []int
	TA []int

	// BoostInterval is the number of MLFQ ticks between priority
	// boosts.
	BoostInterval int

	// Reserve is the minimum MLFQ ticket share that SetCPUShare must
	// never breach.
	Reserve int

	// StrideConst is the numerator of STRD(tickets) = StrideConst /
	// tickets.
	StrideConst int64

	// Barrier is the pass-value renormalization threshold.
	Barrier int64

	// MaxInt stands in for spec §6's MAXINT, the sentinel returned by
	// an empty stride heap's MinPass.
	MaxInt int64

	// IdleBackoff is how long a CPU loop sleeps between arbitration
	// attempts when nothing is Runnable, rather than spinning.
	IdleBackoff time.Duration

	Logger *logiface.Logger[*stumpy.Event]
}

// DefaultConfig returns the defaults named in SPEC_FULL's AMBIENT
// STACK section: NPROC=64, QSIZE=3, TQ={1,2,4}, TA={TQ[l]*4},
// BoostInterval=128, Reserve=20, StrideConst=10000,
// Barrier=math.MaxInt32/2, MaxInt=math.MaxInt32, logging to a
// stumpy-backed logiface.Logger writing to os.Stderr.
func DefaultConfig() Config {
	tq := []int{1, 2, 4}
	ta := make([]int, len(tq))
	for i, q := range tq {
		ta[i] = q * 4
	}
	return Config{
		NPROC:         64,
		TQ:            tq,
		TA:            ta,
		BoostInterval: 128,
		Reserve:       20,
		StrideConst:   10000,
		Barrier:       math.MaxInt32 / 2,
		MaxInt:        math.MaxInt32,
		IdleBackoff:   time.Millisecond,
		Logger:        stumpy.L.New(stumpy.L.WithStumpy()),
	}
}

// Option configures a Config, applied in NewConfig. Mirrors
// eventloop/options.go's LoopOption pattern: small closures validated
// at construction time rather than on every field access.
type Option func(*Config) error

// WithNPROC overrides the process table capacity.
func WithNPROC(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return errors.New("sched: NPROC must be positive")
		}
		c.NPROC = n
		return nil
	}
}

// WithLevels overrides TQ and TA together (they must share a length,
// the QSIZE).
func WithLevels(tq, ta []int) Option {
	return func(c *Config) error {
		if len(tq) == 0 || len(tq) != len(ta) {
			return errors.New("sched: TQ and TA must be non-empty and equal length")
		}
		for i := range tq {
			if tq[i] <= 0 || ta[i] <= 0 {
				return errors.New("sched: TQ and TA entries must be positive")
			}
		}
		c.TQ = append([]int(nil), tq...)
		c.TA = append([]int(nil), ta...)
		return nil
	}
}

// WithBoostInterval overrides the priority-boost period.
func WithBoostInterval(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return errors.New("sched: BoostInterval must be positive")
		}
		c.BoostInterval = n
		return nil
	}
}

// WithReserve overrides the minimum guaranteed MLFQ share.
func WithReserve(n int) Option {
	return func(c *Config) error {
		if n < 0 || n > 100 {
			return errors.New("sched: Reserve must be within [0, 100]")
		}
		c.Reserve = n
		return nil
	}
}

// WithStrideConst overrides the STRD() numerator.
func WithStrideConst(n int64) Option {
	return func(c *Config) error {
		if n <= 0 {
			return errors.New("sched: StrideConst must be positive")
		}
		c.StrideConst = n
		return nil
	}
}

// WithIdleBackoff overrides the per-CPU idle poll interval.
func WithIdleBackoff(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return errors.New("sched: IdleBackoff must be positive")
		}
		c.IdleBackoff = d
		return nil
	}
}

// WithLogger overrides the logger used for the debug log lines on slot
// allocation/free, init creation, fork, exit, sleep, share grants, and
// dispatch. Demotion, boost, share rejection, wakeup, kill and wait are
// not logged. A nil logger disables logging.
func WithLogger(l *logiface.Logger[*stumpy.Event]) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// NewConfig starts from DefaultConfig and applies opts in order,
// returning the first validation error encountered.
func NewConfig(opts ...Option) (Config, error) {
	c := DefaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&c); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

// QSIZE is the number of MLFQ levels configured.
func (c Config) QSIZE() int { return len(c.TQ) }

// STRD computes the stride increment for a ticket count (spec §4.4).
func (c Config) STRD(tickets int) int64 {
	return c.StrideConst / int64(tickets)
}
