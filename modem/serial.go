package modem

import (
	"context"
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// SerialDialer opens a GSM modem over a local serial port.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0" or "COM3".
	PortName string

	// BaudRate overrides the default 115200 when Mode is nil.
	BaudRate int

	// Mode configures baud rate, parity, data and stop bits. Nil
	// selects 8N1 at BaudRate, which most modules ship with.
	Mode *serial.Mode
}

var defaultSerialMode = serial.Mode{
	BaudRate: 115200,
	Parity:   serial.NoParity,
	DataBits: 8,
	StopBits: serial.OneStopBit,
}

// Dial opens the serial port and returns it as a Transport.
//
// Opening a serial port is quick, so the context is only consulted for
// cancellation before the open, not during it.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("gsm: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("gsm: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		m := defaultSerialMode
		if d.BaudRate > 0 {
			m.BaudRate = d.BaudRate
		}
		mode = &m
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}
	return port, nil
}

var _ Dialer = SerialDialer{}
