package process

import (
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/Flamefire/cobalt/internal/metrics"
)

// AsyncWait registers a one-shot callback invoked on the handle's executor
// loop with the wait outcome: a non-nil err if the underlying OS wait
// failed, otherwise the portable exit code. The callback fires exactly once
// per registration, including when the process has already exited.
//
// If the registration itself cannot be performed — the handle is not open,
// or the loop is closed — AsyncWait fails synchronously and the callback is
// never invoked.
func (p *Process) AsyncWait(fn func(err error, code ExitCode)) error {
	if fn == nil {
		return errors.New("process: nil wait callback")
	}
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return ErrNotOpen
	}
	if p.exited {
		err, code := p.waitErr, p.code
		p.mu.Unlock()
		return p.loop.Post(func() { fn(err, code) })
	}
	p.ensureWatchLocked()
	p.waiters = append(p.waiters, fn)
	p.mu.Unlock()
	return nil
}

// Wait blocks the calling goroutine until the process exits, caches the
// portable exit code and returns it. A failure of the OS-level wait itself
// is returned as an error; the handle remains usable.
//
// Wait panics if the exit subscription cannot be registered (the handle is
// not open). That is a precondition violation, not a wait outcome, and it
// bypasses the error return in both Wait and MustWait.
func (p *Process) Wait() (ExitCode, error) {
	type outcome struct {
		err  error
		code ExitCode
	}
	// The result slot is owned by this frame. Delivery is a buffered send,
	// so a caller that abandons the wait can never wedge the loop or leave
	// the callback writing into freed state.
	slot := make(chan outcome, 1)
	start := time.Now()
	if err := p.AsyncWait(func(err error, code ExitCode) {
		slot <- outcome{err, code}
	}); err != nil {
		panic(fmt.Errorf("process: wait subscription failed: %w", err))
	}

	res := <-slot
	metrics.ObserveWait(time.Since(start))
	if res.err != nil {
		return 0, fmt.Errorf("wait pid %d: %w", p.ID(), res.err)
	}
	return res.code, nil
}

// MustWait is the panicking form of Wait.
func (p *Process) MustWait() ExitCode {
	code, err := p.Wait()
	if err != nil {
		panic(err)
	}
	return code
}

// ensureWatchLocked starts the exit watcher if it is not running yet.
// Callers hold p.mu.
func (p *Process) ensureWatchLocked() {
	if p.watching {
		return
	}
	p.watching = true
	if p.cmd != nil {
		go p.reapChild()
	} else {
		pid := p.pid
		go func() {
			code, err := watchAttached(pid)
			p.complete(err, code)
		}()
	}
}

// reapChild performs the single OS wait for a launched subprocess. All
// registered callbacks fan out from this one observation.
func (p *Process) reapChild() {
	err := p.cmd.Wait()
	if err == nil {
		p.complete(nil, exitCodeFromState(p.cmd.ProcessState))
		return
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// A nonzero exit or signal death is an outcome, not a wait failure.
		p.complete(nil, exitCodeFromState(exitErr.ProcessState))
		return
	}
	p.complete(err, 0)
}

// complete records the wait outcome exactly once and dispatches every
// registered callback, on the loop while it accepts work and directly
// otherwise. Late registrations observe the cached outcome through the
// fast path in AsyncWait.
func (p *Process) complete(err error, code ExitCode) {
	p.mu.Lock()
	if p.exited {
		p.mu.Unlock()
		return
	}
	p.exited = true
	p.waitErr = err
	if err == nil {
		p.code = code
	}
	waiters := p.waiters
	p.waiters = nil
	close(p.watchDone)
	p.mu.Unlock()

	if err == nil {
		metrics.ProcessExited(code.Signaled())
	}
	for _, fn := range waiters {
		fn := fn
		if p.loop.Post(func() { fn(err, code) }) != nil {
			// The registration already succeeded, so the outcome must still
			// arrive even if the loop shut down first. Delivery happens on
			// this goroutine instead; a blocked Wait unblocks either way.
			fn(err, code)
		}
	}
}
