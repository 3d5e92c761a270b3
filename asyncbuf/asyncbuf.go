// Package asyncbuf implements a double-buffer that keeps one refill in
// flight so a consumer pulling data in batches never has to wait on the
// full cost of production, only the tail of whatever batch is already
// underway.
package asyncbuf

import "fmt"

// Buffer holds a ready slice of T and an in-flight refill, both of size
// bufferSize. GetData(n) drains the ready slice, triggering fresh refills as
// needed, and always leaves a fresh refill in flight afterward.
type Buffer[T any] struct {
	bufferSize int
	generate   func(size int) ([]T, error)

	data  []T
	index int

	future chan futureResult[T]
	closed bool
}

type futureResult[T any] struct {
	data []T
	err  error
}

// New constructs a Buffer of bufferSize and immediately launches the first
// refill; index starts at bufferSize so the first GetData call waits on
// that refill.
func New[T any](bufferSize int, generate func(size int) ([]T, error)) *Buffer[T] {
	b := &Buffer[T]{bufferSize: bufferSize, generate: generate, index: bufferSize}
	b.future = b.launchRefill()
	return b
}

func (b *Buffer[T]) launchRefill() chan futureResult[T] {
	ch := make(chan futureResult[T], 1)
	go func() {
		data, err := b.generate(b.bufferSize)
		ch <- futureResult[T]{data: data, err: err}
	}()
	return ch
}

// GetData returns exactly n items in FIFO order, blocking on refills as
// necessary. A request larger than bufferSize transparently spans multiple
// refills.
func (b *Buffer[T]) GetData(n int) ([]T, error) {
	if b.closed {
		return nil, fmt.Errorf("asyncbuf: GetData called after Close")
	}
	out := make([]T, 0, n)
	for len(out) < n {
		if b.index >= len(b.data) {
			if b.future == nil {
				return nil, fmt.Errorf("asyncbuf: buffer is unusable after a previous refill error")
			}
			res := <-b.future
			if res.err != nil {
				b.future = nil
				return nil, fmt.Errorf("asyncbuf: refill: %w", res.err)
			}
			b.data = res.data
			b.index = 0
			b.future = b.launchRefill()
		}
		take := n - len(out)
		if avail := len(b.data) - b.index; take > avail {
			take = avail
		}
		out = append(out, b.data[b.index:b.index+take]...)
		b.index += take
	}
	return out, nil
}

// Close joins the in-flight refill future. Idempotent.
func (b *Buffer[T]) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.future == nil {
		return nil
	}
	res := <-b.future
	return res.err
}
