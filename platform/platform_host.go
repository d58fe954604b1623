//go:build !tinygo

package platform

import (
	"time"

	"turbine-daq/platform/sim"
	"turbine-daq/services/acquisition"
	"turbine-daq/services/config"
	"turbine-daq/services/daq"
)

// Simulated is a host board with simulated sensors on every bus.
type Simulated struct {
	Accel *sim.ADXL355
	Incl  *sim.SCL3300
	Temp  *sim.ADT7420

	start time.Time
}

func NewSimulated(cfg *config.Config) *Simulated {
	return &Simulated{
		Accel: sim.NewADXL355(float32(cfg.Accel.RateHz)),
		Incl:  sim.NewSCL3300(float32(cfg.Incl.RateHz)),
		Temp:  sim.NewADT7420(),
		start: time.Now(),
	}
}

// Hardware returns the simulated hardware set driven by a SoftTimer.
func (s *Simulated) Hardware() daq.Hardware {
	return daq.Hardware{
		AccelSPI: s.Accel,
		InclSPI:  s.Incl,
		TempI2C:  s.Temp,
		Timer:    &acquisition.SoftTimer{},
		Micros:   s.Micros,
		Sleep:    func(time.Duration) {},
	}
}

// Micros is microseconds since the board was created, wrapping at 2^32.
func (s *Simulated) Micros() uint32 { return uint32(time.Since(s.start).Microseconds()) }

// Fault sets a fault on a named sensor: accel, incl or temp. It reports
// false for an unknown name.
func (s *Simulated) Fault(name string, absent bool) bool {
	var f *sim.Faults
	switch name {
	case "accel":
		f = &s.Accel.Faults
	case "incl":
		f = &s.Incl.Faults
	case "temp":
		f = &s.Temp.Faults
	default:
		return false
	}
	f.SetAbsent(absent)
	return true
}
