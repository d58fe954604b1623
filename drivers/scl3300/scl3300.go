// Package scl3300 provides a driver for the SCL3300 three-axis inclinometer
// on SPI.
//
// The device answers each 32-bit frame with the response to the previous
// frame (off-frame protocol), so every register read is two frames: a prime
// and a fetch whose response carries the value.
//
// Sample uses fixed buffers and no allocation; it may be called from an
// interrupt handler. The SPI device must toggle chip-select per Tx.
package scl3300

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

var (
	ErrNoResponse = errors.New("scl3300: no response")
	ErrCRC        = errors.New("scl3300: crc mismatch")
	ErrStatus     = errors.New("scl3300: error status")
	ErrMode       = errors.New("scl3300: invalid mode")
)

// Output selects what Sample returns.
type Output uint8

const (
	OutputAngle Output = iota
	OutputAcceleration
)

// Config controls start-up. All fields are optional.
type Config struct {
	// Mode 1..4, default 1 (full scale 1.2 g, 40 Hz low pass).
	Mode uint8
	// Output defaults to OutputAngle.
	Output Output
	// Sleep is used for the start-up delays. Default time.Sleep.
	Sleep func(time.Duration)
}

// Start-up timing.
const (
	powerOnDelay = 25 * time.Millisecond
	resetDelay   = 5 * time.Millisecond
	settleDelay  = 100 * time.Millisecond
	statusClears = 3
)

// Report describes what the device returned during Configure.
type Report struct {
	Status       uint16
	ReturnStatus uint8
	WhoAmI       uint8
}

// StatusOK reports whether the device entered normal operation.
func (r Report) StatusOK() bool { return r.ReturnStatus == RSNormal }

// IdentityOK reports whether WHOAMI matched.
func (r Report) IdentityOK() bool { return r.WhoAmI == WhoAmI }

// Device wraps an SPI connection to an SCL3300.
type Device struct {
	bus drivers.SPI
	cfg Config
	cmd [3]uint32 // per-axis read commands for the selected output

	w [4]byte
	r [4]byte
}

// New creates a Device. It does not touch the hardware.
func New(bus drivers.SPI) *Device {
	d := &Device{bus: bus}
	d.cfg = Config{Mode: 1}
	d.selectOutput(OutputAngle)
	return d
}

// Configure runs the fixed start-up sequence. It fails only when the bus
// errors or the device never answers; an abnormal status or WHOAMI is
// reported in Report.
func (d *Device) Configure(cfg Config) (Report, error) {
	if cfg.Mode == 0 {
		cfg.Mode = 1
	}
	if int(cfg.Mode) >= len(modeCmd) {
		return Report{}, ErrMode
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	d.cfg = cfg
	d.selectOutput(cfg.Output)

	var rep Report
	cfg.Sleep(powerOnDelay)
	if _, err := d.transfer(CmdSWReset); err != nil {
		return rep, err
	}
	cfg.Sleep(resetDelay)
	for _, c := range [...]uint32{modeCmd[cfg.Mode], CmdEnableAng} {
		if _, err := d.transfer(c); err != nil {
			return rep, err
		}
	}
	cfg.Sleep(settleDelay)

	// Status latches start-up flags; clear them before the real read.
	for i := 0; i < statusClears; i++ {
		if _, err := d.transfer(CmdReadStatus); err != nil {
			return rep, err
		}
	}
	st, err := d.Read(CmdReadStatus)
	if err != nil {
		return rep, err
	}
	id, err := d.Read(CmdWhoAmI)
	if err != nil {
		return rep, err
	}
	if st.silent() && id.silent() {
		return rep, ErrNoResponse
	}
	rep.Status = st.Data()
	rep.ReturnStatus = st.ReturnStatus()
	rep.WhoAmI = uint8(id.Data())
	return rep, nil
}

// Read performs a prime and fetch for cmd and returns the fetch response.
func (d *Device) Read(cmd uint32) (Frame, error) {
	if _, err := d.transfer(cmd); err != nil {
		return 0, err
	}
	return d.transfer(cmd)
}

// ReadRegister returns the 16-bit data field for cmd.
func (d *Device) ReadRegister(cmd uint32) (uint16, error) {
	f, err := d.Read(cmd)
	if err != nil {
		return 0, err
	}
	return f.Data(), nil
}

// Sample reads the three axes of the selected output as signed counts.
func (d *Device) Sample() ([3]int32, error) {
	var out [3]int32
	for i, c := range d.cmd {
		f, err := d.Read(c)
		if err != nil {
			return out, err
		}
		if !f.CRCValid() {
			return out, ErrCRC
		}
		if f.ReturnStatus() == RSError {
			return out, ErrStatus
		}
		out[i] = int32(int16(f.Data()))
	}
	return out, nil
}

// LSB returns the physical unit per count for the selected output: degrees
// for angles, g for acceleration.
func (d *Device) LSB() float32 {
	if d.cfg.Output == OutputAcceleration {
		return 1 / accSensitivity[d.cfg.Mode]
	}
	return AngleLSB
}

func (d *Device) selectOutput(o Output) {
	if o == OutputAcceleration {
		d.cmd = [3]uint32{CmdReadAccX, CmdReadAccY, CmdReadAccZ}
		return
	}
	d.cmd = [3]uint32{CmdReadAngX, CmdReadAngY, CmdReadAngZ}
}

func (d *Device) transfer(cmd uint32) (Frame, error) {
	d.w[0] = byte(cmd >> 24)
	d.w[1] = byte(cmd >> 16)
	d.w[2] = byte(cmd >> 8)
	d.w[3] = byte(cmd)
	if err := d.bus.Tx(d.w[:], d.r[:]); err != nil {
		return 0, err
	}
	return Frame(uint32(d.r[0])<<24 | uint32(d.r[1])<<16 | uint32(d.r[2])<<8 | uint32(d.r[3])), nil
}
