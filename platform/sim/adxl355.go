package sim

import (
	"math/rand"

	"tinygo.org/x/drivers"
)

const (
	adxlDevIDAD  = 0x00
	adxlDevIDMST = 0x01
	adxlPartID   = 0x02
	adxlXData3   = 0x08
	adxlRange    = 0x2C
	adxlPowerCtl = 0x2D
)

// ADXL355 answers register and burst reads on SPI. Each burst read is one
// sample at RateHz; the waveform advances by 1/RateHz per read.
type ADXL355 struct {
	Faults
	X, Y, Z Wave
	RateHz  float32

	regs [0x30]byte
	n    uint32
	rnd  *rand.Rand
}

var _ drivers.SPI = (*ADXL355)(nil)

// NewADXL355 returns a device at rest: 1 g on Z and a 0.3 Hz tower sway on
// X and Y.
func NewADXL355(rateHz float32) *ADXL355 {
	d := &ADXL355{
		RateHz: rateHz,
		X:      Wave{Amplitude: 0.05, Hz: 0.3, Noise: 0.002},
		Y:      Wave{Amplitude: 0.02, Hz: 0.3, Phase: 1.5708, Noise: 0.002},
		Z:      Wave{Offset: 1, Noise: 0.002},
		rnd:    newRand(355),
	}
	d.regs[adxlDevIDAD] = 0xAD
	d.regs[adxlDevIDMST] = 0x1D
	d.regs[adxlPartID] = 0xED
	d.regs[adxlRange] = 0x81
	d.regs[adxlPowerCtl] = 0x01
	return d
}

// SetIdentity overrides the DEVID_AD and PARTID registers.
func (d *ADXL355) SetIdentity(devID, partID byte) {
	d.regs[adxlDevIDAD], d.regs[adxlPartID] = devID, partID
}

// Samples returns the number of burst reads served.
func (d *ADXL355) Samples() uint32 { return d.n }

func (d *ADXL355) Tx(w, r []byte) error {
	if d.Failing() {
		return ErrBus
	}
	if len(w) == 0 {
		return nil
	}
	if d.Absent() {
		for i := range r {
			r[i] = 0
		}
		return nil
	}
	reg := int(w[0] >> 1)
	if w[0]&1 == 0 {
		if reg < len(d.regs) {
			copy(d.regs[reg:], w[1:])
		}
		return nil
	}
	if reg == adxlXData3 {
		d.fill()
	}
	for i := 1; i < len(r); i++ {
		if j := reg + i - 1; j < len(d.regs) {
			r[i] = d.regs[j]
		}
	}
	return nil
}

func (d *ADXL355) Transfer(b byte) (byte, error) { return 0, nil }

func (d *ADXL355) lsb() float32 {
	switch d.regs[adxlRange] & 0x03 {
	case 0x02:
		return 1.0 / 128000
	case 0x03:
		return 1.0 / 64000
	default:
		return 1.0 / 256000
	}
}

func (d *ADXL355) fill() {
	t := float32(d.n) / d.RateHz
	d.n++
	lsb := d.lsb()
	for i, wv := range [3]Wave{d.X, d.Y, d.Z} {
		Encode20(d.regs[adxlXData3+3*i:], clampCounts(wv.At(t, d.rnd), lsb, 20))
	}
}

// Encode20 writes v as a left-justified 20-bit two's complement value.
func Encode20(dst []byte, v int32) {
	u := uint32(v) & 0xFFFFF
	dst[0] = byte(u >> 12)
	dst[1] = byte(u >> 4)
	dst[2] = byte(u<<4) & 0xF0
}
