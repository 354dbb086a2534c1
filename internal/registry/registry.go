// Package registry implements the Broadcast Registry: the concurrent,
// address-keyed mapping from connected TCP client to that client's bounded
// outbound queue. It is the only structure in the gateway that is mutated
// concurrently from more than one logical loop (the accept loop inserts and
// removes; the serial reader broadcasts), so it uses per-shard locking
// rather than one global mutex, the same way the teacher's hub avoids a
// single lock around its client table but split further into buckets so
// that insert/remove from accept never contends with iteration from
// broadcast on an unrelated shard.
package registry

import (
	"hash/fnv"
	"sync"

	"github.com/sergw-project/sergw/internal/buffer"
)

const shardCount = 16

// Entry is a Connection Record: the peer address and the sender half of its
// bounded outbound queue. Done is closed by the connection's writer loop
// when it exits, letting Broadcast tell a dead receiver apart from a merely
// full one.
type Entry struct {
	Addr string
	Out  chan<- buffer.Buffer
	Done <-chan struct{}
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// Registry is the Broadcast Registry.
type Registry struct {
	shards [shardCount]*shard
}

// New returns an empty Registry.
func New() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{entries: make(map[string]*Entry)}
	}
	return r
}

func (r *Registry) shardFor(addr string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(addr))
	return r.shards[h.Sum32()%shardCount]
}

// Insert adds the mapping, replacing any existing entry for the same
// address. The supervisor guarantees the previous connection for an address
// has already been removed before a new one is inserted, but Insert itself
// is unconditionally authoritative: accept always wins.
func (r *Registry) Insert(addr string, entry *Entry) {
	s := r.shardFor(addr)
	s.mu.Lock()
	s.entries[addr] = entry
	s.mu.Unlock()
}

// Remove deletes the mapping for addr if present. Idempotent.
func (r *Registry) Remove(addr string) {
	s := r.shardFor(addr)
	s.mu.Lock()
	delete(s.entries, addr)
	s.mu.Unlock()
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// BroadcastResult summarizes one Broadcast call, useful for metrics.
type BroadcastResult struct {
	Delivered    int
	EvictedFull  int
	EvictedDead  int
}

// Broadcast delivers buf to every currently-registered connection without
// blocking. A connection whose outbound queue is at capacity (Full) or whose
// writer has already exited (Dead) is evicted after the pass completes; the
// other connections still receive the message regardless of one slow or
// dead peer, since each shard is only locked briefly to take a snapshot.
func (r *Registry) Broadcast(buf buffer.Buffer) BroadcastResult {
	var result BroadcastResult
	var evict []string

	for _, s := range r.shards {
		s.mu.RLock()
		snapshot := make([]*Entry, 0, len(s.entries))
		for _, e := range s.entries {
			snapshot = append(snapshot, e)
		}
		s.mu.RUnlock()

		for _, e := range snapshot {
			select {
			case <-e.Done:
				result.EvictedDead++
				evict = append(evict, e.Addr)
				continue
			default:
			}
			select {
			case e.Out <- buf:
				result.Delivered++
			default:
				result.EvictedFull++
				evict = append(evict, e.Addr)
			}
		}
	}

	for _, addr := range evict {
		r.Remove(addr)
	}
	return result
}

// Dispose removes all entries. Idempotent: calling it on an empty registry
// is a no-op.
func (r *Registry) Dispose() {
	for _, s := range r.shards {
		s.mu.Lock()
		s.entries = make(map[string]*Entry)
		s.mu.Unlock()
	}
}
