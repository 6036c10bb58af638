package emit

import "sync"

// BufferedEmitter decouples the superstep loop from a slow downstream
// emitter. Emit enqueues; a single background goroutine drains the queue
// into the wrapped emitter, preserving emission order.
//
// When the buffer is full, Emit drops the event rather than block execution.
// Observability is best-effort here; checkpoints, not events, are the record
// of truth.
type BufferedEmitter struct {
	inner Emitter
	ch    chan Event

	wg       sync.WaitGroup
	closeOne sync.Once
}

// NewBufferedEmitter wraps inner with a queue of the given capacity and
// starts the drain goroutine. Close the emitter to stop it and flush the
// remaining events.
func NewBufferedEmitter(inner Emitter, capacity int) *BufferedEmitter {
	if capacity <= 0 {
		capacity = 256
	}
	b := &BufferedEmitter{
		inner: inner,
		ch:    make(chan Event, capacity),
	}
	b.wg.Add(1)
	go b.drain()
	return b
}

func (b *BufferedEmitter) drain() {
	defer b.wg.Done()
	for e := range b.ch {
		b.inner.Emit(e)
	}
}

// Emit implements Emitter. Non-blocking; drops when the queue is full.
func (b *BufferedEmitter) Emit(e Event) {
	select {
	case b.ch <- e:
	default:
	}
}

// Close stops the drain goroutine after delivering everything already
// queued. Emit after Close panics; close last.
func (b *BufferedEmitter) Close() {
	b.closeOne.Do(func() {
		close(b.ch)
	})
	b.wg.Wait()
}

// Flush implements Flusher by closing the queue and waiting for delivery.
func (b *BufferedEmitter) Flush() {
	b.Close()
}
