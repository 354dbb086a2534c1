package serialio

import (
	"errors"
	"fmt"
)

// ErrNoPorts is returned when auto-selection finds zero candidate ports.
var ErrNoPorts = errors.New("no serial ports found")

// MultiplePortsError is returned when auto-selection finds more than one
// candidate port; the caller must disambiguate with --serial.
type MultiplePortsError struct {
	Ports []string
}

func (e *MultiplePortsError) Error() string {
	return fmt.Sprintf("multiple serial ports detected: %v; specify --serial", e.Ports)
}

// DecidePort is the pure decision function behind port auto-selection,
// mirroring the original implementation's decide_port: an explicit path
// always wins; otherwise exactly one discovered port is required.
func DecidePort(explicit string, available []string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	switch len(available) {
	case 0:
		return "", ErrNoPorts
	case 1:
		return available[0], nil
	default:
		cp := make([]string, len(available))
		copy(cp, available)
		return "", &MultiplePortsError{Ports: cp}
	}
}

// SelectPort resolves the serial device path to open: explicit if given,
// otherwise the sole discovered USB-class port.
func SelectPort(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	ports, err := ListPorts(false)
	if err != nil {
		return "", err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name
	}
	return DecidePort("", names)
}
