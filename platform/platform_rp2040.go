//go:build rp2040

package platform

import (
	"machine"

	"turbine-daq/services/acquisition"
	"turbine-daq/services/daq"
	"turbine-daq/services/session"
)

// csDevice drives one chip select around each transaction on a shared bus.
type csDevice struct {
	bus *machine.SPI
	cs  machine.Pin
}

func (d csDevice) Tx(w, r []byte) error {
	d.cs.Low()
	err := d.bus.Tx(w, r)
	d.cs.High()
	return err
}

func (d csDevice) Transfer(b byte) (byte, error) {
	d.cs.Low()
	v, err := d.bus.Transfer(b)
	d.cs.High()
	return v, err
}

func newCS(bus *machine.SPI, pin int) csDevice {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.High()
	return csDevice{bus: bus, cs: p}
}

// Open configures SPI0 and I2C0 for b and returns the hardware set.
func Open(b Board) (daq.Hardware, error) {
	spi := machine.SPI0
	if err := spi.Configure(machine.SPIConfig{
		Frequency: b.SPI.Hz,
		SCK:       machine.Pin(b.SPI.SCK),
		SDO:       machine.Pin(b.SPI.SDO),
		SDI:       machine.Pin(b.SPI.SDI),
		Mode:      0,
	}); err != nil {
		return daq.Hardware{}, err
	}

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: b.I2C.Hz,
		SDA:       machine.Pin(b.I2C.SDA),
		SCL:       machine.Pin(b.I2C.SCL),
	}); err != nil {
		return daq.Hardware{}, err
	}

	return daq.Hardware{
		AccelSPI: newCS(spi, b.AccelCS),
		InclSPI:  newCS(spi, b.InclCS),
		TempI2C:  i2c,
		Timer:    &acquisition.HardwareTimer{},
		Micros:   acquisition.Micros,
	}, nil
}

// OpenUplink opens the UART link to the host bridge.
func OpenUplink(b Board, baud uint32) (*session.Link, error) {
	return session.OpenUART(baud, machine.Pin(b.UART.TX), machine.Pin(b.UART.RX))
}

// LED configures the status LED.
func LED(b Board) machine.Pin {
	p := machine.Pin(b.LED)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return p
}
