package serialio

import (
	"go.bug.st/serial/enumerator"
)

// PortInfo describes one discovered serial port: its name, whether it is a
// USB-class port, and its USB metadata. The struct has no JSON tags, so the
// json output of `ports` uses the Go field names, reports the port class as
// the boolean IsUSB, and always includes the metadata fields (as empty
// strings for ports that have none).
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	Product      string
	Manufacturer string
}

// ListPorts returns detected serial ports. When all is false, only
// USB-class ports are returned.
func ListPorts(all bool) ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if !all && !d.IsUSB {
			continue
		}
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			Product:      d.Product,
			Manufacturer: d.Manufacturer,
		})
	}
	return ports, nil
}
