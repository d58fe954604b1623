package sim

import (
	"math/rand"

	"tinygo.org/x/drivers"

	"turbine-daq/drivers/scl3300"
)

// SCL3300 answers each SPI frame with the response to the previous one.
// Angles and accelerations follow a slow nacelle tilt.
type SCL3300 struct {
	Faults
	// Angles in degrees, accelerations in g.
	AngX, AngY, AngZ Wave
	AccX, AccY, AccZ Wave
	RateHz           float32
	// CorruptCRC flips a CRC bit in every answer.
	CorruptCRC bool

	prev    uint32
	primed  bool
	mode    uint8
	started bool
	n       uint32
	rnd     *rand.Rand
}

var _ drivers.SPI = (*SCL3300)(nil)

func NewSCL3300(rateHz float32) *SCL3300 {
	return &SCL3300{
		RateHz: rateHz,
		AngX:   Wave{Amplitude: 0.8, Hz: 0.05, Noise: 0.01},
		AngY:   Wave{Offset: -0.4, Amplitude: 0.3, Hz: 0.05, Noise: 0.01},
		AngZ:   Wave{Offset: 89.5, Noise: 0.01},
		AccX:   Wave{Amplitude: 0.014, Hz: 0.05},
		AccY:   Wave{Offset: -0.007},
		AccZ:   Wave{Offset: 1},
		mode:   1,
		rnd:    newRand(3300),
	}
}

func (d *SCL3300) Tx(w, r []byte) error {
	if d.Failing() {
		return ErrBus
	}
	if len(w) < 4 || len(r) < 4 {
		return nil
	}
	cmd := uint32(w[0])<<24 | uint32(w[1])<<16 | uint32(w[2])<<8 | uint32(w[3])
	var resp uint32
	switch {
	case d.Absent():
		resp = 0
	case !d.primed:
		resp = scl3300.Response(scl3300.RSStartup, 0)
	default:
		resp = d.answer(d.prev)
		if d.CorruptCRC {
			resp ^= 0x01
		}
	}
	r[0], r[1], r[2], r[3] = byte(resp>>24), byte(resp>>16), byte(resp>>8), byte(resp)
	d.exec(cmd)
	d.prev, d.primed = cmd, true
	return nil
}

func (d *SCL3300) Transfer(b byte) (byte, error) { return 0, nil }

// exec applies write commands and advances time on each new X read.
func (d *SCL3300) exec(cmd uint32) {
	if cmd == scl3300.CmdReadAngX || cmd == scl3300.CmdReadAccX {
		if cmd != d.prev {
			d.n++
		}
	}
	if cmd>>24 != 0xB4 {
		return
	}
	switch data := uint16(cmd >> 8); {
	case data == 0x0020:
		d.started = false
	case data <= 3:
		d.mode = uint8(data) + 1
	}
}

func (d *SCL3300) answer(cmd uint32) uint32 {
	rs := uint8(scl3300.RSNormal)
	if !d.started {
		rs = scl3300.RSStartup
	}
	var data uint16
	switch cmd {
	case scl3300.CmdReadStatus:
		d.started = true
	case scl3300.CmdWhoAmI:
		data = scl3300.WhoAmI
	case scl3300.CmdReadAngX:
		data = d.angle(d.AngX)
	case scl3300.CmdReadAngY:
		data = d.angle(d.AngY)
	case scl3300.CmdReadAngZ:
		data = d.angle(d.AngZ)
	case scl3300.CmdReadAccX:
		data = d.acc(d.AccX)
	case scl3300.CmdReadAccY:
		data = d.acc(d.AccY)
	case scl3300.CmdReadAccZ:
		data = d.acc(d.AccZ)
	}
	return scl3300.Response(rs, data)
}

func (d *SCL3300) t() float32 { return float32(d.n) / d.RateHz }

func (d *SCL3300) angle(w Wave) uint16 {
	return uint16(clampCounts(w.At(d.t(), d.rnd), scl3300.AngleLSB, 16))
}

var sclSensitivity = [...]float32{1: 6000, 2: 3000, 3: 12000, 4: 12000}

func (d *SCL3300) acc(w Wave) uint16 {
	return uint16(clampCounts(w.At(d.t(), d.rnd), 1/sclSensitivity[d.mode], 16))
}
