package sim

import (
	"math/rand"

	"tinygo.org/x/drivers"

	"turbine-daq/drivers/adt7420"
)

// ADT7420 answers I2C register reads. Temperature drifts on a slow cycle;
// each conversion read advances it by Step seconds.
type ADT7420 struct {
	Faults
	Address uint16
	Temp    Wave // °C
	Step    float32

	config byte
	n      uint32
	rnd    *rand.Rand
}

var _ drivers.I2C = (*ADT7420)(nil)

func NewADT7420() *ADT7420 {
	return &ADT7420{
		Address: adt7420.Address,
		Temp:    Wave{Offset: 18, Amplitude: 4, Hz: 1.0 / 600, Noise: 0.05},
		Step:    1,
		rnd:     newRand(7420),
	}
}

func (d *ADT7420) Tx(addr uint16, w, r []byte) error {
	if d.Failing() || d.Absent() || addr != d.Address {
		return ErrBus
	}
	if len(w) == 0 {
		return nil
	}
	switch w[0] {
	case 0x03:
		if len(w) > 1 {
			d.config = w[1]
		} else if len(r) > 0 {
			r[0] = d.config
		}
	case 0x0B:
		if len(r) > 0 {
			r[0] = adt7420.ID
		}
	case 0x00:
		if len(r) >= 2 {
			t := float32(d.n) * d.Step
			d.n++
			c := clampCounts(d.Temp.At(t, d.rnd), adt7420.LSB, 13)
			v := uint16(c) << 3
			r[0], r[1] = byte(v>>8), byte(v)
		}
	}
	return nil
}

func (d *ADT7420) ReadRegister(addr uint8, reg uint8, data []byte) error {
	return d.Tx(uint16(addr), []byte{reg}, data)
}

func (d *ADT7420) WriteRegister(addr uint8, reg uint8, data []byte) error {
	return d.Tx(uint16(addr), append([]byte{reg}, data...), nil)
}
