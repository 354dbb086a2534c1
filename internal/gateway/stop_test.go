package gateway

import "testing"

func TestStopSignalIdempotent(t *testing.T) {
	s := NewStopSignal()
	if s.Stopped() {
		t.Fatal("expected not stopped initially")
	}
	s.Stop()
	s.Stop() // must not panic on double close
	if !s.Stopped() {
		t.Fatal("expected stopped after Stop")
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("expected Done() to be closed")
	}
}
