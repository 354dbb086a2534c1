// Package buffer provides an immutable byte chunk type shared between the
// serial and TCP sides of the gateway without per-consumer copying.
package buffer

// Buffer is an immutable chunk of bytes produced by exactly one reader and
// consumed by zero or more writers. A Buffer's backing array is never
// mutated after New returns, so sharing the slice header across goroutines
// (registry fan-out, per-connection queues) is safe without a lock: Go's
// garbage collector keeps the backing array alive for as long as any Buffer
// value references it, which gives us the "destroyed when the last writer
// drops its reference" lifecycle from the spec for free.
type Buffer struct {
	data []byte
}

// New copies src into a freshly allocated Buffer. The copy is mandatory, not
// defensive: callers read into a reused scratch slice on every loop
// iteration, so the bytes must be captured before the next read overwrites
// them.
func New(src []byte) Buffer {
	data := make([]byte, len(src))
	copy(data, src)
	return Buffer{data: data}
}

// Bytes returns the underlying slice. Callers must not mutate it.
func (b Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes held by the buffer.
func (b Buffer) Len() int {
	return len(b.data)
}
