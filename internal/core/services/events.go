package services

import (
	"sync"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

// DefaultEventBuffer is the result channel capacity used when the host
// does not specify one.
const DefaultEventBuffer = 256

// Emitter delivers asynchronous results to the host over a buffered
// channel. Detached operations and per-fragment progress flow through
// here. A host that wants them must drain Results; a full buffer blocks
// the producing worker until the host catches up or the emitter closes.
//
// The results channel itself is never closed. Operations are delimited
// by Finish results, so a host reads until the Finish it is waiting for.
type Emitter struct {
	ch   chan domain.Result
	done chan struct{}
	once sync.Once
}

// NewEmitter creates an emitter with the given channel capacity.
// capacity <= 0 uses DefaultEventBuffer.
func NewEmitter(capacity int) *Emitter {
	if capacity <= 0 {
		capacity = DefaultEventBuffer
	}
	return &Emitter{
		ch:   make(chan domain.Result, capacity),
		done: make(chan struct{}),
	}
}

// Results returns the channel the host consumes.
func (e *Emitter) Results() <-chan domain.Result {
	return e.ch
}

// Done is closed when the emitter shuts down.
func (e *Emitter) Done() <-chan struct{} {
	return e.done
}

// Emit delivers one result. Results emitted after Close are discarded.
func (e *Emitter) Emit(r domain.Result) {
	select {
	case <-e.done:
	case e.ch <- r:
	}
}

// Close releases every blocked producer and discards further results.
// Safe to call more than once.
func (e *Emitter) Close() {
	e.once.Do(func() { close(e.done) })
}
