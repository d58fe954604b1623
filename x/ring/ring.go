// Package ring provides a fixed-capacity single-producer, single-consumer
// queue of typed slots, safe between an interrupt handler and a task.
//
// One slot is always left unused so that empty (write == read) and full
// (write+1 == read) are distinguishable without a shared count. The producer
// never blocks and never overwrites unread data: a write into a full ring is
// discarded and counted.
//
//	p, c := ring.New[types.Raw3](4096)
//	if s := p.Reserve(); s != nil { *s = v; p.Commit() }   // interrupt side
//	for v, ok := c.TryRead(); ok; v, ok = c.TryRead() { }  // task side
package ring

import "sync/atomic"

type state[T any] struct {
	buf      []T
	mask     uint32
	rd       atomic.Uint32 // consumer index (masked)
	wr       atomic.Uint32 // producer index (masked)
	overflow atomic.Uint32
}

// Producer is the write half. Only one goroutine (or interrupt) may hold it.
type Producer[T any] struct{ s *state[T] }

// Consumer is the read half. Only one goroutine may hold it.
type Consumer[T any] struct{ s *state[T] }

// New allocates a ring with the given number of slots and returns its two
// halves. capacity must be a power of two >= 2; capacity-1 items fit.
func New[T any](capacity int) (*Producer[T], *Consumer[T]) {
	if capacity < 2 || (capacity&(capacity-1)) != 0 {
		panic("ring: capacity must be power of two >= 2")
	}
	s := &state[T]{
		buf:  make([]T, capacity),
		mask: uint32(capacity - 1),
	}
	return &Producer[T]{s: s}, &Consumer[T]{s: s}
}

func (s *state[T]) len() int {
	return int((s.wr.Load() - s.rd.Load()) & s.mask)
}

// Producer side

// Reserve returns the next free slot for in-place filling, or nil when the
// ring is full, in which case the overflow counter is incremented. The slot
// becomes visible to the consumer only after Commit. A reserved slot that is
// not committed is simply reused by the next Reserve.
func (p *Producer[T]) Reserve() *T {
	s := p.s
	wr := s.wr.Load()
	if (wr+1)&s.mask == s.rd.Load() { // acquire
		s.overflow.Add(1)
		return nil
	}
	return &s.buf[wr]
}

// Commit publishes the slot returned by the last successful Reserve.
func (p *Producer[T]) Commit() {
	s := p.s
	s.wr.Store((s.wr.Load() + 1) & s.mask) // release
}

// TryWrite copies v into the ring. It returns false, and counts an
// overflow, when the ring is full.
func (p *Producer[T]) TryWrite(v T) bool {
	slot := p.Reserve()
	if slot == nil {
		return false
	}
	*slot = v
	p.Commit()
	return true
}

func (p *Producer[T]) Overflow() uint32 { return p.s.overflow.Load() }

// Consumer side

// TryRead removes and returns the oldest item.
func (c *Consumer[T]) TryRead() (v T, ok bool) {
	s := c.s
	rd := s.rd.Load()
	if rd == s.wr.Load() { // acquire
		return v, false
	}
	v = s.buf[rd]
	s.rd.Store((rd + 1) & s.mask) // release
	return v, true
}

// Len returns the number of unread items. It is a snapshot.
func (c *Consumer[T]) Len() int { return c.s.len() }

// Cap returns the number of slots, one more than the usable capacity.
func (c *Consumer[T]) Cap() int { return len(c.s.buf) }

// Overflow returns the number of writes discarded because the ring was full.
func (c *Consumer[T]) Overflow() uint32 { return c.s.overflow.Load() }

// ResetOverflow zeroes the overflow counter.
func (c *Consumer[T]) ResetOverflow() { c.s.overflow.Store(0) }
