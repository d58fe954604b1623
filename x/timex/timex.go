package timex

import "time"

// PeriodFromHz returns the period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) time.Duration {
	if freqHz == 0 {
		freqHz = 1
	}
	return time.Duration(uint64(time.Second) / uint64(freqHz))
}

// TicksToMicros converts a tick count at baseHz to microseconds, truncated
// to 32 bits. At 8 kHz this is tick*125 and wraps after about 71 minutes,
// matching the wrap of the tick counter scaled by the same factor.
func TicksToMicros(tick, baseHz uint32) uint32 {
	if baseHz == 0 {
		return 0
	}
	return uint32(uint64(tick) * 1_000_000 / uint64(baseHz))
}

// Micros returns d as whole microseconds clamped to uint32.
func Micros(d time.Duration) uint32 {
	us := d.Microseconds()
	if us < 0 {
		return 0
	}
	if us > 0xFFFFFFFF {
		return 0xFFFFFFFF
	}
	return uint32(us)
}

// Elapsed returns now-then on a wrapping 32-bit microsecond clock. A then
// up to half the wrap period after now counts as no time at all: it was
// captured after now was read.
func Elapsed(now, then uint32) uint32 {
	if d := now - then; int32(d) > 0 {
		return d
	}
	return 0
}
