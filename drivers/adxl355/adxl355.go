// Package adxl355 provides a driver for the ADXL355 20-bit three-axis
// accelerometer on SPI.
//
// Sample performs one burst read of all three axes in a single bus
// transaction using fixed internal buffers, so it is safe to call from an
// interrupt handler:
//
//	xyz, err := d.Sample()
//
// The SPI device passed to New must handle chip-select per Tx.
package adxl355

import (
	"errors"

	"tinygo.org/x/drivers"
)

var (
	ErrNoResponse = errors.New("adxl355: no response")
	ErrRange      = errors.New("adxl355: invalid range")
)

// Config controls measurement setup. All fields are optional.
type Config struct {
	// Range defaults to Range2G.
	Range Range
	// Filter is written to the FILTER register when non-zero (ODR and
	// high-pass corner). Zero keeps the power-on default of 4 kHz.
	Filter uint8
}

// Identity is what the device reported at Configure.
type Identity struct {
	DevID  uint8
	PartID uint8
}

// Match reports whether the identity registers hold the expected values.
func (id Identity) Match() bool { return id.DevID == DevIDAD && id.PartID == PartID }

// Device wraps an SPI connection to an ADXL355.
type Device struct {
	bus drivers.SPI
	cfg Config

	w [burstLen]byte // w[0] holds the burst command; the rest stay zero
	r [burstLen]byte
}

// New creates a Device. It does not touch the hardware.
func New(bus drivers.SPI) *Device {
	d := &Device{bus: bus, cfg: Config{Range: Range2G}}
	d.w[0] = burstReadCmd
	return d
}

// Configure reads the identity registers, sets the range and leaves standby.
// A device reading back all zeros or all ones never answered and yields
// ErrNoResponse. Any other identity mismatch is reported through the
// returned Identity and does not fail.
func (d *Device) Configure(cfg Config) (Identity, error) {
	if cfg.Range == 0 {
		cfg.Range = Range2G
	}
	if !cfg.Range.valid() {
		return Identity{}, ErrRange
	}
	d.cfg = cfg

	var id Identity
	var err error
	if id.DevID, err = d.readReg(regDevIDAD); err != nil {
		return id, err
	}
	if id.PartID, err = d.readReg(regPartID); err != nil {
		return id, err
	}
	if silent(id.DevID) && silent(id.PartID) {
		return id, ErrNoResponse
	}

	// Range and filter only take effect in standby.
	if err := d.writeReg(regPowerCtl, powerStandby); err != nil {
		return id, err
	}
	if err := d.writeReg(regRange, uint8(cfg.Range)); err != nil {
		return id, err
	}
	if cfg.Filter != 0 {
		if err := d.writeReg(regFilter, cfg.Filter); err != nil {
			return id, err
		}
	}
	if err := d.writeReg(regPowerCtl, powerMeasure); err != nil {
		return id, err
	}
	return id, nil
}

// Reset issues a software reset. The device needs a few ms before use.
func (d *Device) Reset() error { return d.writeReg(regReset, resetCode) }

// LSB returns g per count for the configured range.
func (d *Device) LSB() float32 { return d.cfg.Range.LSB() }

// Sample reads X, Y and Z in one burst and returns signed counts.
func (d *Device) Sample() ([3]int32, error) {
	var out [3]int32
	if err := d.bus.Tx(d.w[:], d.r[:]); err != nil {
		return out, err
	}
	b := d.r[1:]
	out[0] = Decode20(b[0], b[1], b[2])
	out[1] = Decode20(b[3], b[4], b[5])
	out[2] = Decode20(b[6], b[7], b[8])
	return out, nil
}

// Decode20 assembles a left-justified 20-bit two's complement value from
// its three data bytes (the low nibble of b2 is ignored).
func Decode20(b0, b1, b2 byte) int32 {
	u := uint32(b0)<<12 | uint32(b1)<<4 | uint32(b2)>>4
	if u&signBit20 != 0 {
		u |= signExtend20
	}
	return int32(u)
}

func (d *Device) readReg(reg uint8) (uint8, error) {
	w := [2]byte{reg<<1 | 1, 0}
	var r [2]byte
	if err := d.bus.Tx(w[:], r[:]); err != nil {
		return 0, err
	}
	return r[1], nil
}

func (d *Device) writeReg(reg, val uint8) error {
	w := [2]byte{reg << 1, val}
	return d.bus.Tx(w[:], nil)
}

func silent(b uint8) bool { return b == 0x00 || b == 0xFF }
