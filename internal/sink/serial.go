// Package sink delivers clamped velocity commands to the robot base.
// The serial sink speaks a one-line-per-command text protocol; a log
// sink and a fan-out sink cover development and telemetry wiring.
package sink

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/banshee-data/rover.pilot/internal/policy"
)

// SerialPorter is the minimal surface the sink needs from a serial
// port. Satisfied by go.bug.st/serial ports and by the test mock.
type SerialPorter interface {
	io.Writer
	io.Closer
}

// SerialSink writes velocity commands to the base controller as
// "VEL,<linear>,<angular>\r\n" lines. The base tolerates repeated
// commands at tick frequency, so every cycle's command is written.
type SerialSink struct {
	mu   sync.Mutex
	port SerialPorter
}

// NewSerialSink wraps an already-open port.
func NewSerialSink(port SerialPorter) *SerialSink {
	return &SerialSink{port: port}
}

// OpenSerialSink opens the serial device at the given path and wraps it.
// A non-positive baud rate defaults to 115200.
func OpenSerialSink(path string, baudRate int) (*SerialSink, error) {
	if baudRate <= 0 {
		baudRate = 115200
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial device %s: %w", path, err)
	}
	return NewSerialSink(port), nil
}

// Publish writes one command line to the port.
func (s *SerialSink) Publish(cmd policy.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.port, "VEL,%.4f,%.4f\r\n", cmd.Linear, cmd.Angular); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}
	return nil
}

// Close closes the underlying port.
func (s *SerialSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}
