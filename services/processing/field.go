package processing

import "turbine-daq/x/timex"

// State of an optional field at evaluation time.
type State uint8

const (
	NoData State = iota
	Fresh
	Stale
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	}
	return "no_data"
}

// Field holds the latest value of a slower sensor and decides, at each
// evaluation, whether it may be published. Validity is never stored; it is
// recomputed from capture age and read-error state every time.
type Field[T any] struct {
	value      T
	captured   uint32 // µs, acquisition clock
	obtained   bool
	failed     bool
	staleAfter uint32 // µs, inclusive
}

func NewField[T any](staleAfterMicros uint32) Field[T] {
	return Field[T]{staleAfter: staleAfterMicros}
}

// Set records a successful read captured at the given time.
func (f *Field[T]) Set(v T, capturedMicros uint32) {
	f.value, f.captured = v, capturedMicros
	f.obtained, f.failed = true, false
}

// Fail records a failed read. The cached value is kept but not published
// until the next successful read.
func (f *Field[T]) Fail() { f.failed = true }

// Clear forgets that anything was obtained. Ring-sourced fields are cleared
// at the start of every cycle so that an empty drain means no data even if
// an older value is cached.
func (f *Field[T]) Clear() { f.obtained = false }

// Obtained reports whether a value was set since the last Clear.
func (f *Field[T]) Obtained() bool { return f.obtained }

// State classifies the field at time now.
func (f *Field[T]) State(now uint32) State {
	if !f.obtained || f.failed {
		return NoData
	}
	if timex.Elapsed(now, f.captured) <= f.staleAfter {
		return Fresh
	}
	return Stale
}

// Value returns the cached value and whether it is Fresh at now.
func (f *Field[T]) Value(now uint32) (T, bool) {
	if f.State(now) != Fresh {
		var zero T
		return zero, false
	}
	return f.value, true
}
