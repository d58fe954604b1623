//go:build rp2040

package acquisition

import (
	"device/rp"
	"runtime/interrupt"

	"turbine-daq/x/timex"
)

// HardwareTimer drives Tick from TIMER alarm 1 (the runtime uses alarm 0).
// The alarm is re-armed relative to its previous target, so latency in one
// interrupt does not accumulate into drift.
type HardwareTimer struct {
	period uint32
	fn     func()
	intr   interrupt.Interrupt
}

var activeTimer *HardwareTimer

func (t *HardwareTimer) Start(hz uint32, fn func()) error {
	if activeTimer != nil {
		return ErrTimerRunning
	}
	// TIMER counts at 1 MHz.
	t.period = timex.Micros(timex.PeriodFromHz(hz))
	t.fn = fn
	activeTimer = t

	t.intr = interrupt.New(rp.IRQ_TIMER_IRQ_1, alarmHandler)
	t.intr.SetPriority(0x00)
	rp.TIMER.INTR.Set(rp.TIMER_INTR_ALARM_1)
	rp.TIMER.INTE.SetBits(rp.TIMER_INTE_ALARM_1)
	rp.TIMER.ALARM1.Set(rp.TIMER.TIMERAWL.Get() + t.period)
	t.intr.Enable()
	return nil
}

func (t *HardwareTimer) Stop() error {
	rp.TIMER.INTE.ClearBits(rp.TIMER_INTE_ALARM_1)
	rp.TIMER.ARMED.Set(1 << 1) // write-1-to-disarm alarm 1
	t.intr.Disable()
	activeTimer = nil
	return nil
}

func alarmHandler(interrupt.Interrupt) {
	rp.TIMER.INTR.Set(rp.TIMER_INTR_ALARM_1)
	t := activeTimer
	if t == nil {
		return
	}
	rp.TIMER.ALARM1.Set(rp.TIMER.ALARM1.Get() + t.period)
	t.fn()
}

// Micros reads the low word of the free-running 1 MHz counter.
func Micros() uint32 { return rp.TIMER.TIMERAWL.Get() }
