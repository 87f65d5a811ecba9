package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/Flamefire/cobalt/executor"
	"github.com/Flamefire/cobalt/internal/metrics"
)

// ErrNotOpen is reported by operations on a handle that does not currently
// identify a process.
var ErrNotOpen = errors.New("process: handle not open")

// ExitCode is a portable representation of how a process ended. Values of
// zero and above are the process's own exit status; a negative value is the
// negated number of the signal that killed it.
type ExitCode int

// Signaled reports whether the code describes death by signal.
func (c ExitCode) Signaled() bool { return c < 0 }

func (c ExitCode) String() string {
	if c.Signaled() {
		return fmt.Sprintf("signal %d", -int(c))
	}
	return fmt.Sprintf("exit %d", int(c))
}

// Process is an owning handle to one OS process.
//
// A Process is created invalid by New, by launching a subprocess with
// Launch, or by attaching to an existing pid with Attach. All completion
// callbacks it issues run on the executor loop supplied at construction.
type Process struct {
	loop *executor.Loop

	mu       sync.Mutex
	pid      int
	proc     *os.Process // native handle; nil only for a placeholder
	cmd      *exec.Cmd   // non-nil iff this handle launched the process
	open     bool
	owns     bool // close terminates while true
	exited   bool
	code     ExitCode
	waitErr  error // wait-completion failure, set alongside exited
	waiters  []func(error, ExitCode)
	watching bool

	// watchDone is closed once the exit outcome has been captured. It is
	// created eagerly so Terminate can block on it without racing the
	// watcher startup.
	watchDone chan struct{}
}

// New returns an invalid placeholder handle associated with loop. IsOpen
// reports false and every control operation fails with ErrNotOpen until the
// placeholder is replaced by a launched or attached handle.
func New(loop *executor.Loop) *Process {
	return &Process{loop: loop, watchDone: make(chan struct{})}
}

// Attach wraps an existing process identified by pid. The handle owns
// lifetime tracking: Close terminates the process unless Detach is called
// first. Attach does not verify that pid names a live process; Running
// reports the OS-level failure if it does not.
func Attach(loop *executor.Loop, pid int) (*Process, error) {
	if loop == nil {
		return nil, errors.New("process: attach requires an executor loop")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("attach pid %d: %w", pid, err)
	}
	return attachHandle(loop, pid, proc), nil
}

// AttachHandle wraps an existing process for which the caller already holds
// a native handle.
func AttachHandle(loop *executor.Loop, pid int, proc *os.Process) (*Process, error) {
	if loop == nil {
		return nil, errors.New("process: attach requires an executor loop")
	}
	if proc == nil {
		return Attach(loop, pid)
	}
	return attachHandle(loop, pid, proc), nil
}

func attachHandle(loop *executor.Loop, pid int, proc *os.Process) *Process {
	metrics.ProcessAttached()
	return &Process{
		loop:      loop,
		pid:       pid,
		proc:      proc,
		open:      true,
		owns:      true,
		watchDone: make(chan struct{}),
	}
}

// ID returns the OS process identifier, or zero for a placeholder.
func (p *Process) ID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// IsOpen reports whether the handle identifies a process. The process may
// already have exited; IsOpen stays true until Close or Detach.
func (p *Process) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// ExitCode returns the last cached exit code. It performs no OS query; the
// value is meaningful only after Wait, Terminate or a Running call that
// observed the exit.
func (p *Process) ExitCode() ExitCode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code
}

// Running reports whether the process is still alive. Once the exit has
// been observed the code is cached for ExitCode. Attaching to a pid that
// does not exist surfaces the OS error alongside a false result.
func (p *Process) Running() (bool, error) {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return false, ErrNotOpen
	}
	pid := p.pid
	child := p.cmd != nil
	if p.exited {
		err := p.waitErr
		p.mu.Unlock()
		if err != nil {
			// The watcher never observed a live process; report its failure.
			return false, fmt.Errorf("running pid %d: %w", pid, err)
		}
		return false, nil
	}
	p.mu.Unlock()

	alive, err := isAlive(pid)
	if err != nil {
		if child && isNotFound(err) {
			// Our own child, gone between exit and the reaper's bookkeeping:
			// the outcome is moments away.
			<-p.watchDone
			return false, nil
		}
		return false, fmt.Errorf("running pid %d: %w", pid, err)
	}
	return alive, nil
}

// MustRunning is the panicking form of Running.
func (p *Process) MustRunning() bool {
	alive, err := p.Running()
	if err != nil {
		panic(err)
	}
	return alive
}

// Interrupt asks the process to interrupt, SIGINT-style. The process may
// ignore it. Cached state is unaffected.
func (p *Process) Interrupt() error { return p.signal(sigInterrupt) }

// MustInterrupt is the panicking form of Interrupt.
func (p *Process) MustInterrupt() {
	if err := p.Interrupt(); err != nil {
		panic(err)
	}
}

// RequestExit asks the process to shut down gracefully, SIGTERM-style. The
// process may ignore it.
func (p *Process) RequestExit() error { return p.signal(sigRequestExit) }

// MustRequestExit is the panicking form of RequestExit.
func (p *Process) MustRequestExit() {
	if err := p.RequestExit(); err != nil {
		panic(err)
	}
}

// Terminate unconditionally ends the process and blocks until the resulting
// exit code has been captured into the cache.
func (p *Process) Terminate() error {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return ErrNotOpen
	}
	if p.exited {
		// Already captured; nothing left to kill.
		p.mu.Unlock()
		return nil
	}
	p.ensureWatchLocked()
	p.mu.Unlock()

	if err := p.signal(sigKill); err != nil {
		return err
	}
	<-p.watchDone
	return nil
}

// MustTerminate is the panicking form of Terminate.
func (p *Process) MustTerminate() {
	if err := p.Terminate(); err != nil {
		panic(err)
	}
}

// Detach relinquishes lifetime ownership and returns the raw OS handle.
// Close no longer terminates the process afterwards. The behaviour of
// further control operations on this handle is unspecified.
func (p *Process) Detach() *os.Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.owns = false
	return p.proc
}

// Close invalidates the handle. If it still owns an open process whose exit
// has not been observed, the process is terminated first: this is the
// resource-safety backstop against leaking subprocesses. Close is
// idempotent and never fails on an already-closed handle.
func (p *Process) Close() error {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return nil
	}
	owns := p.owns && !p.exited
	p.mu.Unlock()

	if owns {
		if err := p.Terminate(); err != nil && !isNotFound(err) && !errors.Is(err, ErrNotOpen) {
			return fmt.Errorf("close: %w", err)
		}
	}

	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
	return nil
}

func (p *Process) signal(sig signalKind) error {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		metrics.SignalFailed(sig.String())
		return ErrNotOpen
	}
	pid := p.pid
	p.mu.Unlock()

	if err := sendSignal(pid, sig); err != nil {
		metrics.SignalFailed(sig.String())
		return fmt.Errorf("%s pid %d: %w", sig, pid, err)
	}
	metrics.SignalSent(sig.String())
	return nil
}

type signalKind int

const (
	sigInterrupt signalKind = iota
	sigRequestExit
	sigKill
)

func (s signalKind) String() string {
	switch s {
	case sigInterrupt:
		return "interrupt"
	case sigRequestExit:
		return "request-exit"
	case sigKill:
		return "terminate"
	}
	return "unknown"
}
