//go:build !windows

package process

import (
	"errors"
	"os"
	"syscall"
)

func sendSignal(pid int, sig signalKind) error {
	var s syscall.Signal
	switch sig {
	case sigInterrupt:
		s = syscall.SIGINT
	case sigRequestExit:
		s = syscall.SIGTERM
	default:
		s = syscall.SIGKILL
	}
	return syscall.Kill(pid, s)
}

func isAlive(pid int) (bool, error) {
	err := syscall.Kill(pid, 0)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, syscall.EPERM):
		// Exists but belongs to someone else.
		return true, nil
	default:
		return false, err
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, syscall.ESRCH)
}

func exitCodeFromState(state *os.ProcessState) ExitCode {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitCode(-int(ws.Signal()))
	}
	return ExitCode(state.ExitCode())
}
