package gateway

import (
	"net"
	"sync"
	"time"

	"github.com/sergw-project/sergw/internal/buffer"
	"github.com/sergw-project/sergw/internal/inspector"
	"github.com/sergw-project/sergw/internal/logging"
	"github.com/sergw-project/sergw/internal/metrics"
	"github.com/sergw-project/sergw/internal/registry"
)

const readerPollTimeout = 200 * time.Millisecond

// connectionPair wires one accepted TCP client into the gateway: a reader
// goroutine forwards its bytes into the shared serial ingress queue in
// arrival order, a writer goroutine drains its dedicated outbound queue
// (fed by the serial reader's broadcast) back onto the socket, and a
// supervisor goroutine joins the two and unregisters the connection exactly
// once, regardless of which side failed first.
type connectionPair struct {
	conn       net.Conn
	addr       string
	outbound   chan buffer.Buffer
	done       chan struct{} // closed when the writer loop exits; published to the registry
	doneOnce   sync.Once
	readerDone chan struct{} // closed when the reader loop exits; tells the writer to stop
	readerOnce sync.Once
}

func newConnectionPair(conn net.Conn, outboundCap int) *connectionPair {
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	return &connectionPair{
		conn:       conn,
		addr:       conn.RemoteAddr().String(),
		outbound:   make(chan buffer.Buffer, outboundCap),
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}
}

func (c *connectionPair) closeDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *connectionPair) closeReaderDone() {
	c.readerOnce.Do(func() { close(c.readerDone) })
}

// run registers the connection, starts its reader and writer, and blocks
// until both have exited and the connection has been unregistered. Call it
// in its own goroutine per accepted client.
func (c *connectionPair) run(stop *StopSignal, reg *registry.Registry, ingress chan<- buffer.Buffer, br *inspector.Broker) {
	log := logging.L().With("remote", c.addr)

	reg.Insert(c.addr, &registry.Entry{Addr: c.addr, Out: c.outbound, Done: c.done})
	metrics.ActiveClients.Inc()
	log.Info("client_connected")
	br.PublishEvent("Connected: " + c.addr)

	readerExited := make(chan struct{})
	writerExited := make(chan struct{})

	go func() {
		defer close(readerExited)
		c.readLoop(stop, ingress, br, log)
	}()
	go func() {
		defer close(writerExited)
		c.writeLoop(stop, log)
	}()

	<-readerExited
	reg.Remove(c.addr)
	metrics.ActiveClients.Dec()
	log.Info("client_disconnected")
	br.PublishEvent("Disconnected: " + c.addr)

	<-writerExited
	_ = c.conn.Close()
}

// readLoop polls the socket with a bounded read deadline rather than a
// single unbounded blocking Read, so an idle-but-connected client still
// lets this loop notice stop within readerPollTimeout instead of hanging
// the supervisor's shutdown wait indefinitely.
func (c *connectionPair) readLoop(stop *StopSignal, ingress chan<- buffer.Buffer, br *inspector.Broker, log interface {
	Info(string, ...any)
	Warn(string, ...any)
}) {
	defer c.closeReaderDone()

	buf := make([]byte, 4096)
	for {
		if stop.Stopped() {
			return
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(readerPollTimeout))
		n, err := c.conn.Read(buf)
		if n > 0 {
			chunk := buffer.New(buf[:n])
			metrics.AddBytesIn(n)
			br.Publish(inspector.Sample{
				Tag:  inspector.Tag{Dir: inspector.Outbound, From: c.conn.RemoteAddr()},
				Data: chunk.Bytes(),
			})
			select {
			case ingress <- chunk:
			case <-stop.Done():
				return
			case <-c.done:
				return
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if err.Error() != "EOF" {
				metrics.IncError(metrics.ErrTCPRead)
				log.Warn("client_read_error", "error", err)
			}
			return
		}
	}
}

// writeLoop drains the per-connection outbound queue onto the socket. It
// closes c.done on exit for any reason, which is the registry's signal that
// this peer is dead rather than merely slow.
func (c *connectionPair) writeLoop(stop *StopSignal, log interface {
	Info(string, ...any)
	Warn(string, ...any)
}) {
	defer c.closeDone()

	for {
		select {
		case <-stop.Done():
			return
		case <-c.readerDone:
			return
		case chunk := <-c.outbound:
			if _, err := c.conn.Write(chunk.Bytes()); err != nil {
				metrics.IncError(metrics.ErrTCPWrite)
				log.Warn("client_write_error", "error", err)
				return
			}
		}
	}
}
