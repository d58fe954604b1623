//go:build rp2040

package session

import (
	"machine"

	"github.com/jangala-dev/tinygo-uartx/uartx"
)

// OpenUART configures UART0 on the given pins and returns a Link over it.
func OpenUART(baud uint32, tx, rx machine.Pin) (*Link, error) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{BaudRate: baud, TX: tx, RX: rx}); err != nil {
		return nil, err
	}
	return NewLink(u), nil
}
