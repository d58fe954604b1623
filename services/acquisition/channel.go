package acquisition

import (
	"sync/atomic"

	"turbine-daq/types"
	"turbine-daq/x/ring"
)

// ChannelSpec places one sensor on the tick grid.
type ChannelSpec struct {
	Name   string
	Bus    string // physical bus; channels sharing a bus must never coincide
	RateHz uint32
	Offset uint32 // stagger, in ticks
}

// Channel is a scheduled sensor read. The sampler runs in interrupt context.
type Channel struct {
	ChannelSpec
	divisor uint32

	// fill reserves a ring slot and samples into it.
	fill          func(tick uint32) outcome
	overflow      func() uint32
	resetOverflow func()
	buffered      func() int

	sampled   atomic.Uint32
	busErrors atomic.Uint32
}

type outcome uint8

const (
	outSampled outcome = iota
	outDropped         // ring full, no bus transaction made
	outBusError
)

// Sampler3 reads a three-axis sensor.
type Sampler3 func() ([3]int32, error)

// Sampler1 reads a scalar sensor.
type Sampler1 func() (int32, error)

// Bind3 schedules a three-axis sensor writing into p. c is only used for
// diagnostics (buffered count and overflow).
func Bind3(spec ChannelSpec, read Sampler3, p *ring.Producer[types.Raw3], c *ring.Consumer[types.Raw3]) *Channel {
	ch := &Channel{ChannelSpec: spec}
	ch.fill = func(tick uint32) outcome {
		slot := p.Reserve()
		if slot == nil {
			return outDropped
		}
		v, err := read()
		if err != nil {
			return outBusError
		}
		slot.Tick, slot.V = tick, v
		p.Commit()
		return outSampled
	}
	ch.overflow = p.Overflow
	ch.resetOverflow = c.ResetOverflow
	ch.buffered = c.Len
	return ch
}

// Bind1 schedules a scalar sensor writing into p.
func Bind1(spec ChannelSpec, read Sampler1, p *ring.Producer[types.Raw1], c *ring.Consumer[types.Raw1]) *Channel {
	ch := &Channel{ChannelSpec: spec}
	ch.fill = func(tick uint32) outcome {
		slot := p.Reserve()
		if slot == nil {
			return outDropped
		}
		v, err := read()
		if err != nil {
			return outBusError
		}
		slot.Tick, slot.V = tick, v
		p.Commit()
		return outSampled
	}
	ch.overflow = p.Overflow
	ch.resetOverflow = c.ResetOverflow
	ch.buffered = c.Len
	return ch
}

// due reports whether the channel fires on tick.
func (c *Channel) due(tick uint32) bool {
	return tick >= c.Offset && (tick-c.Offset)%c.divisor == 0
}

func (c *Channel) run(tick uint32) {
	switch c.fill(tick) {
	case outSampled:
		c.sampled.Add(1)
	case outBusError:
		c.busErrors.Add(1)
	}
}

// Stats returns a snapshot of the channel counters.
func (c *Channel) Stats() ChannelStats {
	return ChannelStats{
		Name:      c.Name,
		Sampled:   c.sampled.Load(),
		BusErrors: c.busErrors.Load(),
		Overflow:  c.overflow(),
		Buffered:  c.buffered(),
	}
}

func (c *Channel) reset() {
	c.sampled.Store(0)
	c.busErrors.Store(0)
	c.resetOverflow()
}
