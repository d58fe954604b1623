// Package platform maps a board's wiring onto daq.Hardware. RP2040 builds
// talk to the real buses; host builds get simulated sensors.
package platform

// Board describes the wiring of the acquisition board. Pins are plain GPIO
// numbers; mapping to machine.Pin happens in the rp2040 build.
type Board struct {
	Name string

	// Accelerometer and inclinometer share SPI0 with separate chip selects.
	SPI struct {
		SCK, SDO, SDI int
		Hz            uint32
	}
	AccelCS int
	InclCS  int

	// Temperature sensor on I2C0.
	I2C struct {
		SDA, SCL int
		Hz       uint32
	}

	// Uplink to the host bridge on UART0.
	UART struct {
		TX, RX int
	}

	LED int
}

// Pico is the reference wiring on a Raspberry Pi Pico.
var Pico = func() Board {
	var b Board
	b.Name = "pico"
	b.SPI.SCK, b.SPI.SDO, b.SPI.SDI = 18, 19, 16
	b.SPI.Hz = 2_000_000
	b.AccelCS, b.InclCS = 17, 20
	b.I2C.SDA, b.I2C.SCL = 4, 5
	b.I2C.Hz = 400_000
	b.UART.TX, b.UART.RX = 0, 1
	b.LED = 25
	return b
}()
