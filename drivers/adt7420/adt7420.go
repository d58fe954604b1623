// Package adt7420 provides a driver for the ADT7420 digital temperature
// sensor on I2C, in its default 13-bit continuous conversion mode.
package adt7420

import (
	"errors"

	"tinygo.org/x/drivers"
)

// I2C address with A0 and A1 low.
const Address = 0x48

const (
	regTempMSB = 0x00
	regStatus  = 0x02
	regConfig  = 0x03
	regID      = 0x0B

	ID = 0xCB

	configContinuous13 = 0x00
	signBit13          = 1 << 12
	range13            = 1 << 13
)

// LSB is degrees Celsius per count at 13-bit resolution.
const LSB float32 = 0.0625

var ErrNoResponse = errors.New("adt7420: no response")

// noResponse is ErrNoResponse carrying the bus error behind it.
type noResponse struct{ cause error }

func (e noResponse) Error() string        { return ErrNoResponse.Error() + ": " + e.cause.Error() }
func (e noResponse) Is(target error) bool { return target == ErrNoResponse }
func (e noResponse) Unwrap() error        { return e.cause }

type Config struct {
	// Address defaults to 0x48 if zero.
	Address uint16
}

// Device wraps an I2C connection to an ADT7420.
type Device struct {
	bus     drivers.I2C
	Address uint16

	w [2]byte
	r [2]byte
}

// New creates a Device. It does not touch the hardware.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: Address}
}

// Configure reads the ID register and selects continuous 13-bit conversion.
// It returns the ID read; a mismatch is not an error. A bus error means the
// device never acknowledged and yields an error that matches ErrNoResponse
// and wraps the bus error.
func (d *Device) Configure(cfg Config) (uint8, error) {
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}
	d.w[0] = regID
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:1]); err != nil {
		return 0, noResponse{err}
	}
	id := d.r[0]
	d.w[0], d.w[1] = regConfig, configContinuous13
	if err := d.bus.Tx(d.Address, d.w[:2], nil); err != nil {
		return id, noResponse{err}
	}
	return id, nil
}

// ReadRaw returns the latest conversion as signed 13-bit counts.
func (d *Device) ReadRaw() (int32, error) {
	d.w[0] = regTempMSB
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:2]); err != nil {
		return 0, err
	}
	return Decode13(d.r[0], d.r[1]), nil
}

// ReadCelsius is ReadRaw scaled to degrees Celsius.
func (d *Device) ReadCelsius() (float32, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return 0, err
	}
	return float32(raw) * LSB, nil
}

// Decode13 converts the two temperature register bytes to signed counts.
// The three low bits of lsb are status flags in 13-bit mode.
func Decode13(msb, lsb byte) int32 {
	v := int32((uint16(msb)<<8 | uint16(lsb)) >> 3)
	if v&signBit13 != 0 {
		v -= range13
	}
	return v
}
