// Package sim provides bus-level stand-ins for the three sensors so the
// whole pipeline can run on a host. Each device answers the same
// transactions as the real part and produces a slow, smooth waveform.
package sim

import (
	"errors"
	"math/rand"
	"sync/atomic"

	"github.com/chewxy/math32"

	"turbine-daq/x/mathx"
)

var ErrBus = errors.New("sim: bus fault")

// Faults lets a test or the sim CLI break a device at run time.
type Faults struct {
	fail   atomic.Bool
	absent atomic.Bool
}

// SetFailing makes every transaction return ErrBus.
func (f *Faults) SetFailing(on bool) { f.fail.Store(on) }

// SetAbsent makes the device behave as if unplugged.
func (f *Faults) SetAbsent(on bool) { f.absent.Store(on) }

func (f *Faults) Failing() bool { return f.fail.Load() }
func (f *Faults) Absent() bool  { return f.absent.Load() }

// Wave is a sinusoid plus uniform noise, evaluated at t seconds.
type Wave struct {
	Offset    float32
	Amplitude float32
	Hz        float32
	Phase     float32 // radians
	Noise     float32 // peak
}

func (w Wave) At(t float32, rnd *rand.Rand) float32 {
	v := w.Offset + w.Amplitude*math32.Sin(2*math32.Pi*w.Hz*t+w.Phase)
	if w.Noise > 0 && rnd != nil {
		v += w.Noise * (2*rnd.Float32() - 1)
	}
	return v
}

// clampCounts rounds v/lsb and clamps it to a signed field of bits width.
func clampCounts(v, lsb float32, bits uint) int32 {
	hi := float32(int32(1)<<(bits-1) - 1)
	return int32(mathx.Clamp(math32.Round(v/lsb), -hi-1, hi))
}

func newRand(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }
