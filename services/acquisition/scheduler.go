// Package acquisition runs the fixed-rate sampling interrupt: one hardware
// timer at the base rate, and a set of channels each firing on every
// divisor-th tick after its stagger offset.
//
// Tick is the interrupt handler. It performs no allocation, no logging and
// no blocking; everything it shares with the rest of the system is a ring
// index or an atomic counter.
package acquisition

import (
	"sync/atomic"

	"turbine-daq/errcode"
	"turbine-daq/x/mathx"
	"turbine-daq/x/timex"
)

// Timer drives Tick at a fixed rate.
type Timer interface {
	Start(hz uint32, fn func()) error
	Stop() error
}

type Config struct {
	// BaseHz is the tick rate. Every channel rate must divide it.
	BaseHz uint32
	// Micros, if set, is a free-running microsecond counter used to track
	// the longest Tick.
	Micros func() uint32
}

// Scheduler owns the tick counter and the channel table.
type Scheduler struct {
	cfg   Config
	timer Timer
	chans []*Channel

	tick    atomic.Uint32 // next tick to run
	maxTick atomic.Uint32 // longest Tick in µs
	running atomic.Bool
}

// New validates the channel table and returns a stopped Scheduler.
func New(cfg Config, timer Timer, chans ...*Channel) (*Scheduler, error) {
	const op = "acquisition.New"
	if cfg.BaseHz == 0 {
		return nil, errcode.New(errcode.InvalidConfig, op, "base rate is zero", nil)
	}
	for _, c := range chans {
		if c.RateHz == 0 || c.RateHz > cfg.BaseHz || !mathx.Divides(cfg.BaseHz, c.RateHz) {
			return nil, errcode.New(errcode.InvalidConfig, op, c.Name+": rate must divide base rate", nil)
		}
		c.divisor = cfg.BaseHz / c.RateHz
	}
	for i, a := range chans {
		for _, b := range chans[i+1:] {
			if a.Bus != "" && a.Bus == b.Bus && Collide(a.divisor, a.Offset, b.divisor, b.Offset) {
				return nil, errcode.New(errcode.BusConflict, op, a.Name+" and "+b.Name+" can fire on the same tick on "+a.Bus, nil)
			}
		}
	}
	return &Scheduler{cfg: cfg, timer: timer, chans: chans}, nil
}

// Collide reports whether two channels with divisors d1, d2 and offsets o1,
// o2 fire on a common tick, which happens iff gcd(d1, d2) divides o1-o2.
func Collide(d1, o1, d2, o2 uint32) bool {
	g := mathx.GCD(d1, d2)
	if g == 0 {
		return false
	}
	return o1%g == o2%g
}

// Tick runs every channel due on the current tick, then advances.
func (s *Scheduler) Tick() {
	var t0 uint32
	if s.cfg.Micros != nil {
		t0 = s.cfg.Micros()
	}
	t := s.tick.Load()
	for _, c := range s.chans {
		if c.due(t) {
			c.run(t)
		}
	}
	s.tick.Store(t + 1)
	if s.cfg.Micros != nil {
		if d := s.cfg.Micros() - t0; d > s.maxTick.Load() {
			s.maxTick.Store(d)
		}
	}
}

// Start arms the timer.
func (s *Scheduler) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.timer.Start(s.cfg.BaseHz, s.Tick); err != nil {
		s.running.Store(false)
		return err
	}
	return nil
}

// Stop disarms the timer. Samples already in the rings stay readable.
func (s *Scheduler) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	return s.timer.Stop()
}

func (s *Scheduler) Running() bool { return s.running.Load() }

// Ticks returns the number of ticks run so far.
func (s *Scheduler) Ticks() uint32 { return s.tick.Load() }

// Now returns the acquisition clock in microseconds. It is the time base for
// every capture timestamp.
func (s *Scheduler) Now() uint32 { return timex.TicksToMicros(s.tick.Load(), s.cfg.BaseHz) }

// TickMicros converts a captured tick to acquisition-clock microseconds.
func (s *Scheduler) TickMicros(tick uint32) uint32 {
	return timex.TicksToMicros(tick, s.cfg.BaseHz)
}

func (s *Scheduler) BaseHz() uint32 { return s.cfg.BaseHz }

// Divisor returns the tick divisor of the named channel, or 0.
func (s *Scheduler) Divisor(name string) uint32 {
	for _, c := range s.chans {
		if c.Name == name {
			return c.divisor
		}
	}
	return 0
}
