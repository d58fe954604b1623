//go:build !tinygo

package bridge

import (
	"context"
	"fmt"
	"io"

	"go.bug.st/serial"
)

func init() {
	if SerialDial == nil {
		SerialDial = openSerial
	}
}

func openSerial(_ context.Context, c SerialConfig) (io.ReadWriteCloser, error) {
	port, err := serial.Open(c.Port, &serial.Mode{BaudRate: c.Baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", c.Port, err)
	}
	return port, nil
}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
