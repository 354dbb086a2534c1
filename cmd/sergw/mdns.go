package main

import (
	"context"
	"net"
	"path/filepath"
	"strconv"

	"github.com/sergw-project/sergw/internal/discovery"
	"github.com/sergw-project/sergw/internal/logging"
)

// startMDNS waits for the supervisor to be listening, then advertises it
// over mDNS until ctx is cancelled.
func startMDNS(ctx context.Context, ready <-chan struct{}, addr func() net.Addr, serialPath string) {
	select {
	case <-ready:
	case <-ctx.Done():
		return
	}

	a := addr()
	if a == nil {
		return
	}
	_, portStr, err := net.SplitHostPort(a.String())
	if err != nil {
		logging.L().Warn("mdns_port_parse_failed", "addr", a.String(), "error", err)
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		logging.L().Warn("mdns_port_parse_failed", "addr", a.String(), "error", err)
		return
	}

	handle, err := discovery.Register(filepath.Base(serialPath), port, serialPath)
	if err != nil {
		logging.L().Warn("mdns_start_failed", "error", err)
		return
	}
	go func() {
		<-ctx.Done()
		handle.Shutdown()
	}()
}
