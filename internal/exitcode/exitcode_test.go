package exitcode

import (
	"errors"
	"fmt"
	"net"
	"os"
	"testing"

	"github.com/sergw-project/sergw/internal/serialio"
)

func TestForNil(t *testing.T) {
	if got := For(nil); got != OK {
		t.Fatalf("got %d, want OK", got)
	}
}

func TestForNoPorts(t *testing.T) {
	if got := For(serialio.ErrNoPorts); got != NoPorts {
		t.Fatalf("got %d, want NoPorts", got)
	}
	wrapped := fmt.Errorf("select: %w", serialio.ErrNoPorts)
	if got := For(wrapped); got != NoPorts {
		t.Fatalf("got %d, want NoPorts (wrapped)", got)
	}
}

func TestForMultiplePorts(t *testing.T) {
	err := &serialio.MultiplePortsError{Ports: []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}}
	if got := For(err); got != MultiplePorts {
		t.Fatalf("got %d, want MultiplePorts", got)
	}
}

func TestForNetworkError(t *testing.T) {
	_, err := net.Dial("tcp", "127.0.0.1:0")
	if err == nil {
		t.Fatal("expected dial error")
	}
	if got := For(err); got != NetworkError {
		t.Fatalf("got %d, want NetworkError", got)
	}
}

func TestForPermissionError(t *testing.T) {
	err := &os.PathError{Op: "open", Path: "/dev/ttyUSB0", Err: os.ErrPermission}
	if got := For(err); got != NetworkError {
		t.Fatalf("got %d, want NetworkError", got)
	}
}

func TestForSerialOpenError(t *testing.T) {
	err := fmt.Errorf("%w: /dev/ttyUSB0: no such device", serialio.ErrSerialOpen)
	if got := For(err); got != SerialOpenError {
		t.Fatalf("got %d, want SerialOpenError", got)
	}
}

func TestForGeneric(t *testing.T) {
	if got := For(errors.New("boom")); got != Generic {
		t.Fatalf("got %d, want Generic", got)
	}
}
