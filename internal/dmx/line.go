package dmx

import (
	"fmt"

	"go.bug.st/serial"
)

// Line is the byte-oriented serial output the transmitter drives.
//
// DMX512 has no in-band framing for the BREAK condition, so the transmitter
// synthesises it by dropping the baud rate, writing a zero byte, and
// switching back. SetBaud must therefore be cheap enough to call twice per
// frame.
type Line interface {
	// SetBaud reconfigures the line speed, keeping 8 data bits,
	// no parity, 2 stop bits.
	SetBaud(baud int) error

	// Write sends raw bytes down the line.
	Write(p []byte) (int, error)

	// Drain blocks until buffered output has left the UART.
	Drain() error

	Close() error
}

// serialLine drives a real serial port.
type serialLine struct {
	port serial.Port
}

// OpenLine opens the serial device at path configured for DMX512 output
// (250 kbit/s, 8N2). The caller owns the returned Line and must Close it.
func OpenLine(path string) (Line, error) {
	mode := &serial.Mode{
		BaudRate: DataBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", path, err)
	}

	return &serialLine{port: port}, nil
}

func (l *serialLine) SetBaud(baud int) error {
	return l.port.SetMode(&serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	})
}

func (l *serialLine) Write(p []byte) (int, error) {
	return l.port.Write(p)
}

func (l *serialLine) Drain() error {
	return l.port.Drain()
}

func (l *serialLine) Close() error {
	return l.port.Close()
}

// NopLine is a Line that discards all output. It is selected at startup
// when DMX output is disabled or the serial device cannot be opened, so
// the rest of the system keeps working on machines without the hardware.
type NopLine struct{}

func (NopLine) SetBaud(int) error           { return nil }
func (NopLine) Write(p []byte) (int, error) { return len(p), nil }
func (NopLine) Drain() error                { return nil }
func (NopLine) Close() error                { return nil }
