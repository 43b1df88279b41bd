// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package mailbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrClosed is returned when a mailbox has been closed
	ErrClosed = errors.New("the mailbox has been closed")

	// ErrTimeout is returned when no value arrives before the time channel passed to ReceiveWait is signaled.
	// This error does not apply when using a context.  ctx.Err() is returned in that case.
	ErrTimeout = errors.New("no value was received within the timeout")
)

const (
	stateOpen   int32 = 0
	stateClosed int32 = 1
)

// Mailbox is a capacity-one channel with overwrite semantics.  Instances must be created with New.
//
// The pending value lives in a buffered channel of size 1.  Senders are serialized by a mutex, which
// guarantees that the drain-then-insert sequence in Send never blocks.  Receivers never take the mutex:
// they block on the channel itself, so no lock is ever held across a wait.
type Mailbox[T any] struct {
	lock sync.Mutex
	c    chan T

	state  int32
	closed chan struct{}

	instruments
}

// New creates an empty, open Mailbox
func New[T any](o ...Option) *Mailbox[T] {
	m := &Mailbox[T]{
		c:           make(chan T, 1),
		closed:      make(chan struct{}),
		instruments: newInstruments(o...),
	}

	return m
}

func (m *Mailbox[T]) checkClosed() bool {
	return atomic.LoadInt32(&m.state) == stateClosed
}

// Send makes v the pending value, discarding any value that has not been received yet.
// At most one blocked receiver is woken.  Send never blocks, and does nothing once the mailbox is closed.
func (m *Mailbox[T]) Send(v T) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.checkClosed() {
		return
	}

	select {
	case <-m.c:
		m.overwrites.Add(1.0)
	default:
	}

	// only senders fill the slot, and they hold the lock, so the buffer has room
	m.c <- v
	m.sends.Add(1.0)
}

// received hands v to a receiver unless the mailbox was closed first.  A select that finds both
// a value and the closed channel ready picks either, so the state is checked again here.
func (m *Mailbox[T]) received(v T) (T, error) {
	if m.checkClosed() {
		var zero T
		return zero, ErrClosed
	}

	m.receives.Add(1.0)
	return v, nil
}

// Receive removes and returns the pending value, blocking until one is sent.  If nothing is ever sent,
// this method blocks until the mailbox is closed, at which point ErrClosed is returned.
func (m *Mailbox[T]) Receive() (T, error) {
	var zero T
	if m.checkClosed() {
		return zero, ErrClosed
	}

	select {
	case v := <-m.c:
		return m.received(v)

	case <-m.closed:
		return zero, ErrClosed
	}
}

// ReceiveWait is like Receive, but gives up with ErrTimeout when the given time channel is signaled first.
func (m *Mailbox[T]) ReceiveWait(t <-chan time.Time) (T, error) {
	var zero T
	if m.checkClosed() {
		return zero, ErrClosed
	}

	select {
	case v := <-m.c:
		return m.received(v)

	case <-t:
		return zero, ErrTimeout

	case <-m.closed:
		return zero, ErrClosed
	}
}

// ReceiveCtx is like Receive, but gives up with ctx.Err() when the context is canceled first.
func (m *Mailbox[T]) ReceiveCtx(ctx context.Context) (T, error) {
	var zero T
	if m.checkClosed() {
		return zero, ErrClosed
	}

	select {
	case v := <-m.c:
		return m.received(v)

	case <-ctx.Done():
		return zero, ctx.Err()

	case <-m.closed:
		return zero, ErrClosed
	}
}

// TryReceive removes and returns the pending value without blocking.  The boolean is false if
// no value was pending or the mailbox is closed.
func (m *Mailbox[T]) TryReceive() (T, bool) {
	var zero T
	if m.checkClosed() {
		return zero, false
	}

	select {
	case v := <-m.c:
		if _, err := m.received(v); err != nil {
			return zero, false
		}

		return v, true
	default:
		return zero, false
	}
}

// Pending tests if a value is waiting to be received
func (m *Mailbox[T]) Pending() bool {
	return len(m.c) > 0
}

// Close closes this mailbox, releasing all blocked receivers with ErrClosed.  Any pending value is
// abandoned:  no receive that observes the closed state returns it, including one racing this call.
// Close is idempotent:  subsequent calls return ErrClosed.
func (m *Mailbox[T]) Close() error {
	if atomic.CompareAndSwapInt32(&m.state, stateOpen, stateClosed) {
		close(m.closed)
		return nil
	}

	return ErrClosed
}

// Closed returns a channel that is closed when this mailbox has been closed.
// This channel has similar use cases to context.Done().
func (m *Mailbox[T]) Closed() <-chan struct{} {
	return m.closed
}
