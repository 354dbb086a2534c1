package registry

import (
	"testing"

	"github.com/sergw-project/sergw/internal/buffer"
)

func newEntry(addr string, out chan buffer.Buffer, done chan struct{}) *Entry {
	return &Entry{Addr: addr, Out: out, Done: done}
}

func TestBroadcastDeliversToMultipleAliveReceivers(t *testing.T) {
	r := New()
	out1 := make(chan buffer.Buffer, 4)
	out2 := make(chan buffer.Buffer, 4)
	r.Insert("a1", newEntry("a1", out1, make(chan struct{})))
	r.Insert("a2", newEntry("a2", out2, make(chan struct{})))

	r.Broadcast(buffer.New([]byte("abc")))

	b1 := <-out1
	b2 := <-out2
	if string(b1.Bytes()) != "abc" || string(b2.Bytes()) != "abc" {
		t.Fatalf("expected both receivers to get abc, got %q and %q", b1.Bytes(), b2.Bytes())
	}
}

func TestBroadcastRemovesSlowReceiverOnFull(t *testing.T) {
	r := New()
	outAlive := make(chan buffer.Buffer, 1)
	outSlow := make(chan buffer.Buffer, 1)
	r.Insert("alive", newEntry("alive", outAlive, make(chan struct{})))
	r.Insert("slow", newEntry("slow", outSlow, make(chan struct{})))

	// First broadcast fills both queues.
	r.Broadcast(buffer.New([]byte("one")))

	// Drain alive so it isn't full for the next broadcast.
	<-outAlive

	res := r.Broadcast(buffer.New([]byte("two")))
	if res.EvictedFull != 1 {
		t.Fatalf("expected one eviction for full queue, got %+v", res)
	}
	if r.Count() != 1 {
		t.Fatalf("expected slow client to be evicted, registry has %d entries", r.Count())
	}
	got := <-outAlive
	if string(got.Bytes()) != "two" {
		t.Fatalf("expected alive client to receive 'two', got %q", got.Bytes())
	}
}

func TestBroadcastRemovesDeadReceiver(t *testing.T) {
	r := New()
	done := make(chan struct{})
	close(done) // simulate a writer that has already exited
	out := make(chan buffer.Buffer, 1)
	r.Insert("dead", newEntry("dead", out, done))

	res := r.Broadcast(buffer.New([]byte("x")))
	if res.EvictedDead != 1 {
		t.Fatalf("expected dead eviction, got %+v", res)
	}
	if r.Count() != 0 {
		t.Fatalf("expected registry to be empty after evicting dead receiver")
	}
}

func TestInsertThenRemoveRestoresPreInsertState(t *testing.T) {
	r := New()
	if r.Count() != 0 {
		t.Fatalf("expected empty registry initially")
	}
	r.Insert("a", newEntry("a", make(chan buffer.Buffer, 1), make(chan struct{})))
	r.Remove("a")
	if r.Count() != 0 {
		t.Fatalf("expected registry to be empty after insert+remove, got %d", r.Count())
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	r := New()
	r.Remove("does-not-exist")
	if r.Count() != 0 {
		t.Fatalf("expected empty registry")
	}
}

func TestDisposeIsIdempotent(t *testing.T) {
	r := New()
	r.Insert("a", newEntry("a", make(chan buffer.Buffer, 1), make(chan struct{})))
	r.Insert("b", newEntry("b", make(chan buffer.Buffer, 1), make(chan struct{})))

	r.Dispose()
	if r.Count() != 0 {
		t.Fatalf("expected empty registry after first dispose")
	}
	r.Dispose()
	if r.Count() != 0 {
		t.Fatalf("expected empty registry after second dispose")
	}
}

func TestInsertReplacesExistingEntryForSameAddress(t *testing.T) {
	r := New()
	outOld := make(chan buffer.Buffer, 1)
	outNew := make(chan buffer.Buffer, 1)
	r.Insert("addr", newEntry("addr", outOld, make(chan struct{})))
	r.Insert("addr", newEntry("addr", outNew, make(chan struct{})))

	if r.Count() != 1 {
		t.Fatalf("expected exactly one entry per address, got %d", r.Count())
	}
	r.Broadcast(buffer.New([]byte("hi")))
	select {
	case <-outOld:
		t.Fatalf("replaced entry should not receive broadcasts")
	default:
	}
	got := <-outNew
	if string(got.Bytes()) != "hi" {
		t.Fatalf("expected new entry to receive broadcast, got %q", got.Bytes())
	}
}
