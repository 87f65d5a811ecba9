//go:build !windows

package process_test

import (
	"bytes"
	"errors"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/Flamefire/cobalt/process"
)

func TestLaunchCapturesStdoutAndExitZero(t *testing.T) {
	loop := newTestLoop(t)

	var out bytes.Buffer
	p, err := process.Launch(loop, "/bin/sh", []string{"-c", "echo hello"}, process.Config{
		Stdio: process.Stdio{Out: &out},
	})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	defer p.Close()

	if !p.IsOpen() {
		t.Fatal("launched handle not open")
	}
	if p.ID() <= 0 {
		t.Fatalf("launched pid = %d", p.ID())
	}

	code, err := p.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %v, want 0", code)
	}
	if got := p.ExitCode(); got != 0 {
		t.Fatalf("cached exit code = %v, want 0", got)
	}
	if got := strings.TrimSpace(out.String()); got != "hello" {
		t.Fatalf("captured stdout = %q, want %q", got, "hello")
	}
}

func TestRunningReportsNoSuchProcess(t *testing.T) {
	loop := newTestLoop(t)

	// Far above any real pid ceiling.
	p, err := process.Attach(loop, 1<<30)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer p.Detach()

	alive, err := p.Running()
	if alive {
		t.Fatal("nonexistent pid reported running")
	}
	if !errors.Is(err, syscall.ESRCH) {
		t.Fatalf("Running returned %v, want ESRCH", err)
	}
}

func TestTerminateCapturesSignalCode(t *testing.T) {
	loop := newTestLoop(t)

	p, err := process.Launch(loop, "/bin/sh", []string{"-c", "sleep 30"}, process.Config{})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	defer p.Close()

	if err := p.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	// Terminate blocks until the outcome is cached.
	want := process.ExitCode(-int(syscall.SIGKILL))
	if got := p.ExitCode(); got != want {
		t.Fatalf("cached exit code after terminate = %v, want %v", got, want)
	}
	if !p.ExitCode().Signaled() {
		t.Fatal("terminate outcome not marked as signal death")
	}

	code, err := p.Wait()
	if err != nil {
		t.Fatalf("wait after terminate: %v", err)
	}
	if code != want {
		t.Fatalf("wait after terminate = %v, want %v", code, want)
	}
}

func TestRequestExitReachesTrapHandler(t *testing.T) {
	loop := newTestLoop(t)

	script := `trap 'exit 42' TERM; while true; do sleep 0.05; done`
	p, err := process.Launch(loop, "/bin/sh", []string{"-c", script}, process.Config{})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	defer p.Close()

	// Give the shell a moment to install the trap.
	time.Sleep(200 * time.Millisecond)
	if err := p.RequestExit(); err != nil {
		t.Fatalf("request exit: %v", err)
	}

	code, err := p.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if code != 42 {
		t.Fatalf("exit code = %v, want 42", code)
	}
}

func TestInterruptReachesTrapHandler(t *testing.T) {
	loop := newTestLoop(t)

	script := `trap 'exit 33' INT; while true; do sleep 0.05; done`
	p, err := process.Launch(loop, "/bin/sh", []string{"-c", script}, process.Config{})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	defer p.Close()

	// Give the shell a moment to install the trap.
	time.Sleep(200 * time.Millisecond)
	if err := p.Interrupt(); err != nil {
		t.Fatalf("interrupt: %v", err)
	}

	code, err := p.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if code != 33 {
		t.Fatalf("exit code = %v, want 33", code)
	}
}

func TestDetachLeavesProcessRunning(t *testing.T) {
	loop := newTestLoop(t)

	p, err := process.Launch(loop, "/bin/sh", []string{"-c", "sleep 30"}, process.Config{})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	pid := p.ID()

	raw := p.Detach()
	if raw == nil {
		t.Fatal("detach returned no raw handle")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close after detach: %v", err)
	}

	if err := syscall.Kill(pid, 0); err != nil {
		t.Fatalf("detached process gone after close: %v", err)
	}

	// External code owns the process now; end it through the raw handle.
	if err := raw.Kill(); err != nil {
		t.Fatalf("kill via raw handle: %v", err)
	}
}

func TestCloseTerminatesOwnedProcess(t *testing.T) {
	loop := newTestLoop(t)

	p, err := process.Launch(loop, "/bin/sh", []string{"-c", "sleep 30"}, process.Config{})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	pid := p.ID()

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if p.IsOpen() {
		t.Fatal("handle still open after close")
	}
	if !p.ExitCode().Signaled() {
		t.Fatalf("close outcome = %v, want signal death", p.ExitCode())
	}
	if err := syscall.Kill(pid, 0); !errors.Is(err, syscall.ESRCH) {
		t.Fatalf("process still present after close: kill(0) = %v", err)
	}
}

func TestHandleUsableAfterControlFailure(t *testing.T) {
	loop := newTestLoop(t)

	p, err := process.Launch(loop, "/bin/sh", []string{"-c", "exit 0"}, process.Config{})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	defer p.Close()

	if code, err := p.Wait(); err != nil || code != 0 {
		t.Fatalf("wait = %v, %v", code, err)
	}

	// The process is reaped; signalling it now fails, but the handle stays
	// consistent.
	if err := p.Interrupt(); err == nil {
		t.Fatal("interrupt after exit unexpectedly succeeded")
	}
	if !p.IsOpen() {
		t.Fatal("handle closed by a failed control operation")
	}
	if got := p.ExitCode(); got != 0 {
		t.Fatalf("cached exit code disturbed by failed interrupt: %v", got)
	}
	if alive, err := p.Running(); alive || err != nil {
		t.Fatalf("Running after exit = %v, %v", alive, err)
	}
}
