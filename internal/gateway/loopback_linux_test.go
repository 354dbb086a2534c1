//go:build linux

package gateway

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/sergw-project/sergw/internal/serialio"
)

// TestTCPToSerialAndBack drives the gateway end to end over a real PTY,
// mirroring the original implementation's own loopback integration test:
// bytes written by a TCP client arrive on the PTY master, and bytes written
// to the PTY master are broadcast back to the TCP client.
func TestTCPToSerialAndBack(t *testing.T) {
	master, slavePath, err := openPTYPair()
	if err != nil {
		t.Fatalf("openPTYPair: %v", err)
	}
	defer master.Close()

	sup := NewSupervisor(Options{
		SerialPath:   slavePath,
		SerialConfig: serialio.Config{Baud: 115200, DataBits: serialio.DataBits8},
		ListenAddr:   "127.0.0.1:0",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- sup.Serve(ctx) }()

	select {
	case <-sup.Ready():
	case err := <-serveErr:
		t.Fatalf("supervisor exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for supervisor to be ready")
	}

	conn, err := net.Dial("tcp", sup.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	time.Sleep(100 * time.Millisecond) // let the accept loop register the client

	// TCP client -> serial.
	if _, err := conn.Write([]byte("hello-from-client")); err != nil {
		t.Fatalf("client write: %v", err)
	}
	readBuf := make([]byte, 64)
	master.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, err := master.Read(readBuf)
	if err != nil {
		t.Fatalf("master read: %v", err)
	}
	if got := string(readBuf[:n]); got != "hello-from-client" {
		t.Fatalf("master got %q", got)
	}

	// Serial -> TCP client.
	if _, err := master.Write([]byte("hello-from-device")); err != nil {
		t.Fatalf("master write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, err = conn.Read(readBuf)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	if got := readBuf[:n]; !bytes.Equal(got, []byte("hello-from-device")) {
		t.Fatalf("client got %q", got)
	}

	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := sup.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
