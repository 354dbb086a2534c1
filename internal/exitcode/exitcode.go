// Package exitcode maps the gateway's error taxonomy onto process exit
// codes, mirroring the original implementation's exit_code_for_error so
// scripts driving the CLI can distinguish "no device found" from "address
// already in use" from a generic failure.
package exitcode

import (
	"errors"
	"io/fs"
	"net"
	"os"

	"github.com/sergw-project/sergw/internal/serialio"
)

const (
	OK              = 0
	Generic         = 1
	NoPorts         = 2
	MultiplePorts   = 3
	NetworkError    = 4
	SerialOpenError = 5
)

// For maps err to a process exit code. A nil err maps to OK. The checks
// are ordered most-specific first, matching the original implementation's
// downcast chain.
func For(err error) int {
	if err == nil {
		return OK
	}

	if errors.Is(err, serialio.ErrNoPorts) {
		return NoPorts
	}
	var mp *serialio.MultiplePortsError
	if errors.As(err, &mp) {
		return MultiplePorts
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		if os.IsPermission(pathErr.Err) {
			return NetworkError
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return NetworkError
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrExist) {
		return NetworkError
	}

	if isSerialOpenError(err) {
		return SerialOpenError
	}

	return Generic
}

// isSerialOpenError reports whether err originated from opening or
// configuring the serial device (as opposed to a later I/O error on an
// already-open port), by checking for the serialio package's own wrapping.
func isSerialOpenError(err error) bool {
	return errors.Is(err, serialio.ErrSerialOpen)
}
