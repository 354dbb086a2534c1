package gateway

import (
	"net"
	"testing"
	"time"

	"github.com/sergw-project/sergw/internal/buffer"
	"github.com/sergw-project/sergw/internal/inspector"
	"github.com/sergw-project/sergw/internal/registry"
)

// TestConnectionPairForwardsBothWays exercises a connectionPair without any
// serial device: a client's bytes reach the shared ingress queue, and bytes
// pushed into the connection's outbound queue (as the serial reader's
// Broadcast would) reach the client.
func TestConnectionPairForwardsBothWays(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()

	stop := NewStopSignal()
	reg := registry.New()
	ingress := make(chan buffer.Buffer, 8)
	br := inspector.NewBroker(4)

	pair := newConnectionPair(serverSide, 8)
	runDone := make(chan struct{})
	go func() {
		pair.run(stop, reg, ingress, br)
		close(runDone)
	}()

	if _, err := clientSide.Write([]byte("ping")); err != nil {
		t.Fatalf("client write: %v", err)
	}
	select {
	case chunk := <-ingress:
		if string(chunk.Bytes()) != "ping" {
			t.Fatalf("got %q", chunk.Bytes())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ingress")
	}

	pair.outbound <- buffer.New([]byte("pong"))
	readBuf := make([]byte, 16)
	clientSide.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := clientSide.Read(readBuf)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	if string(readBuf[:n]) != "pong" {
		t.Fatalf("got %q", readBuf[:n])
	}

	if reg.Count() != 1 {
		t.Fatalf("expected 1 registered connection, got %d", reg.Count())
	}

	clientSide.Close()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pair.run to return after client close")
	}

	if reg.Count() != 0 {
		t.Fatalf("expected connection to be unregistered, got count %d", reg.Count())
	}
}

// TestConnectionPairWriteLoopExitsOnStop verifies that signalling stop makes
// the writer exit promptly even with an idle connection, and that this in
// turn closes Done so the registry would no longer treat the peer as alive.
// The reader's own stop responsiveness (bounded by its read-deadline poll
// interval rather than a socket close) is covered separately.
func TestConnectionPairWriteLoopExitsOnStop(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	stop := NewStopSignal()
	pair := newConnectionPair(serverSide, 8)

	writeLoopDone := make(chan struct{})
	go func() {
		pair.writeLoop(stop, nopLogger{})
		close(writeLoopDone)
	}()

	stop.Stop()

	select {
	case <-writeLoopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for writeLoop to return after stop")
	}

	select {
	case <-pair.done:
	default:
		t.Fatal("expected done to be closed once writeLoop exits")
	}
}

// TestConnectionPairReadLoopExitsOnStopWithoutSocketClose verifies that an
// idle, still-open client connection does not keep run blocked past roughly
// one readerPollTimeout once stop is signalled: the reader's bounded
// SetReadDeadline loop notices stop on its own, with no need for the peer to
// disconnect.
func TestConnectionPairReadLoopExitsOnStopWithoutSocketClose(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	stop := NewStopSignal()
	reg := registry.New()
	ingress := make(chan buffer.Buffer, 8)
	br := inspector.NewBroker(4)

	pair := newConnectionPair(serverSide, 8)
	runDone := make(chan struct{})
	go func() {
		pair.run(stop, reg, ingress, br)
		close(runDone)
	}()

	stop.Stop()

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pair.run to return after stop, with client still connected")
	}
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}
