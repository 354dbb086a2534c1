// Package serialio wraps go.bug.st/serial with the narrow Port interface the
// gateway needs, plus port discovery and the pure decision function used to
// auto-select a device when none is configured explicitly.
package serialio

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// ErrSerialOpen wraps any failure to open or configure a serial device, so
// callers (notably internal/exitcode) can distinguish it from a later I/O
// error on an already-open port.
var ErrSerialOpen = errors.New("serialio: open failed")

// Port is the minimal surface the gateway's reader and writer loops need.
// Keeping it narrow (rather than depending on go.bug.st/serial.Port
// directly) lets tests substitute a PTY-backed or in-memory fake.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	// Flush blocks until all written bytes have been transmitted. Used after
	// the serial writer's post-reopen retry write, matching the spec's
	// "retry the same buffer exactly once (flush afterwards)".
	Flush() error
}

// DataBits is the number of data bits per serial frame.
type DataBits int

const (
	DataBits5 DataBits = 5
	DataBits6 DataBits = 6
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
)

// Parity selects the serial parity mode.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// StopBits is the number of stop bits per serial frame.
type StopBits int

const (
	StopBits1 StopBits = iota
	StopBits2
)

// Config describes how to open and configure a serial device.
type Config struct {
	Baud        uint32
	DataBits    DataBits
	Parity      Parity
	StopBits    StopBits
	ReadTimeout time.Duration
}

func (c Config) mode() *serial.Mode {
	m := &serial.Mode{
		BaudRate: int(c.Baud),
		DataBits: int(c.DataBits),
	}
	switch c.Parity {
	case ParityOdd:
		m.Parity = serial.OddParity
	case ParityEven:
		m.Parity = serial.EvenParity
	default:
		m.Parity = serial.NoParity
	}
	switch c.StopBits {
	case StopBits2:
		m.StopBits = serial.TwoStopBits
	default:
		m.StopBits = serial.OneStopBit
	}
	return m
}

type port struct {
	serial.Port
}

func (p port) Flush() error {
	return p.Port.Drain()
}

// Open opens path with cfg and a read timeout, returning a Port ready for
// the gateway's reader/writer loops.
func Open(path string, cfg Config) (Port, error) {
	p, err := serial.Open(path, cfg.mode())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSerialOpen, path, err)
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 200 * time.Millisecond
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrSerialOpen, path, err)
	}
	return port{Port: p}, nil
}
