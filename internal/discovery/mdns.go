// Package discovery advertises the gateway over mDNS/DNS-SD so clients on
// the local network can find it without a configured host, the way the
// teacher's cmd/can-server advertises its CAN bridge.
package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"

	"github.com/sergw-project/sergw/internal/logging"
)

const serviceType = "_sergw._tcp"

// Handle owns a registered mDNS service and must be shut down once the
// gateway stops listening.
type Handle struct {
	server *zeroconf.Server
}

// Register advertises the gateway on the local network as
// "sergw:<basename>" for the given TCP port, with a txt record naming the
// serial device backing it.
func Register(basename string, port int, serialPath string) (*Handle, error) {
	instance := fmt.Sprintf("sergw:%s", basename)
	txt := []string{"provider=sergw", fmt.Sprintf("serial=%s", serialPath)}

	srv, err := zeroconf.Register(instance, serviceType, "local.", port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	logging.L().Info("mdns_registered", "instance", instance, "port", port)
	return &Handle{server: srv}, nil
}

// Shutdown deregisters the service.
func (h *Handle) Shutdown() {
	if h == nil || h.server == nil {
		return
	}
	h.server.Shutdown()
	logging.L().Info("mdns_shutdown")
}
