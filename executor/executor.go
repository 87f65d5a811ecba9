// Package executor provides a single-threaded callback loop.
//
// A Loop dispatches posted callbacks one at a time, in FIFO order, on the
// goroutine that calls Run. Handles in the process package associate with a
// Loop so that exit notifications never race each other: however many waits
// are outstanding, their completion callbacks execute serialized on the
// loop's goroutine.
package executor

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Post after Close has been called.
var ErrClosed = errors.New("executor: loop closed")

// Loop is a FIFO callback queue drained by a single goroutine.
//
// The zero value is not usable; construct with New.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
}

// New constructs an idle loop. Callbacks posted before Run starts are
// retained and dispatched once it does.
func New() *Loop {
	l := &Loop{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Post enqueues fn for execution on the Run goroutine. It never blocks.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return errors.New("executor: nil callback")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return nil
}

// Run dispatches callbacks on the calling goroutine until Close is called
// and every previously posted callback has executed.
func (l *Loop) Run() {
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			// Closed and drained.
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// Close stops Run once pending callbacks have been dispatched. Further
// Post calls fail with ErrClosed. Close is idempotent.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
}
