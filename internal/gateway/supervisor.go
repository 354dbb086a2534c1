// Package gateway implements the core of the bridge: the Supervisor that
// opens the serial device, binds the TCP listener, and fuses the two sides
// through the Broadcast Registry, grounded on the teacher's internal/server
// package but built around a byte-transparent pipe instead of a framed
// protocol.
package gateway

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sergw-project/sergw/internal/buffer"
	"github.com/sergw-project/sergw/internal/inspector"
	"github.com/sergw-project/sergw/internal/logging"
	"github.com/sergw-project/sergw/internal/metrics"
	"github.com/sergw-project/sergw/internal/registry"
	"github.com/sergw-project/sergw/internal/serialio"
)

// Options configures a Supervisor.
type Options struct {
	SerialPath   string
	SerialConfig serialio.Config
	ListenAddr   string

	// OutboundQueueSize bounds each TCP client's per-connection outbound
	// queue; a client that cannot keep up is evicted rather than slowing
	// down every other client or the serial device.
	OutboundQueueSize int
	// IngressQueueSize bounds the shared queue every TCP client's reader
	// feeds and the serial writer drains.
	IngressQueueSize int
	// InspectorCapacity sizes the debug sample broker's per-subscriber
	// buffer; it has no bearing on the data path.
	InspectorCapacity int
}

func (o *Options) setDefaults() {
	if o.OutboundQueueSize <= 0 {
		o.OutboundQueueSize = 256
	}
	if o.IngressQueueSize <= 0 {
		o.IngressQueueSize = 256
	}
	if o.InspectorCapacity <= 0 {
		o.InspectorCapacity = 64
	}
}

// Supervisor owns the gateway's lifecycle: it wires the Broadcast Registry,
// the shared ingress queue, the two serial loops, the TCP accept loop, and
// the Inspector broker, and tears all of it down on Shutdown.
type Supervisor struct {
	opts Options

	reg       *registry.Registry
	ingress   chan buffer.Buffer
	inspector *inspector.Broker
	stop      *StopSignal

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup

	readyOnce sync.Once
	readyCh   chan struct{}
}

// NewSupervisor returns a Supervisor ready to Serve.
func NewSupervisor(opts Options) *Supervisor {
	opts.setDefaults()
	return &Supervisor{
		opts:      opts,
		reg:       registry.New(),
		ingress:   make(chan buffer.Buffer, opts.IngressQueueSize),
		inspector: inspector.NewBroker(opts.InspectorCapacity),
		stop:      NewStopSignal(),
		readyCh:   make(chan struct{}),
	}
}

// Registry exposes the Broadcast Registry, mainly for metrics (active
// connection count) and tests.
func (s *Supervisor) Registry() *registry.Registry { return s.reg }

// Inspector exposes the debug sample broker so the CLI can mount its
// websocket handler.
func (s *Supervisor) Inspector() *inspector.Broker { return s.inspector }

// Ready is closed once the TCP listener is bound and the serial loops have
// been started.
func (s *Supervisor) Ready() <-chan struct{} { return s.readyCh }

// Addr returns the bound listener address, valid only after Ready is
// closed.
func (s *Supervisor) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the gateway until ctx is cancelled or a fatal bind error
// occurs. It blocks until every spawned loop has exited.
func (s *Supervisor) Serve(ctx context.Context) error {
	log := logging.L().With("component", "supervisor")

	ln, err := net.Listen("tcp", s.opts.ListenAddr)
	if err != nil {
		metrics.IncError(metrics.ErrBind)
		return fmt.Errorf("gateway: listen %s: %w", s.opts.ListenAddr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	metrics.SetReadinessFunc(func() bool { return true })

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		serialReaderLoop(s.opts.SerialPath, s.opts.SerialConfig, s.stop, s.reg, s.inspector)
	}()
	go func() {
		defer s.wg.Done()
		serialWriterLoop(s.opts.SerialPath, s.opts.SerialConfig, s.stop, s.ingress, s.inspector)
	}()

	log.Info("listening", "addr", ln.Addr().String(), "serial", s.opts.SerialPath)
	s.readyOnce.Do(func() { close(s.readyCh) })

	go func() {
		<-ctx.Done()
		s.stop.Stop()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.stop.Stopped() {
				break
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			metrics.IncError(metrics.ErrAccept)
			log.Warn("accept_error", "error", err)
			continue
		}
		pair := newConnectionPair(conn, s.opts.OutboundQueueSize)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			pair.run(s.stop, s.reg, s.ingress, s.inspector)
		}()
	}

	s.wg.Wait()
	s.reg.Dispose()
	s.inspector.Shutdown()
	log.Info("supervisor_stopped")
	return nil
}

// Shutdown requests a clean stop and waits for Serve to return or ctx to
// expire, whichever comes first.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.stop.Stop()
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("gateway: shutdown timed out: %w", ctx.Err())
	case <-done:
		return nil
	}
}
