//go:build windows

package process

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

func sendSignal(pid int, sig signalKind) error {
	switch sig {
	case sigInterrupt, sigRequestExit:
		// CTRL_C cannot target a single process in a shared console;
		// CTRL_BREAK reaches the target's process group.
		return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(pid))
	default:
		h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
		if err != nil {
			return err
		}
		defer windows.CloseHandle(h)
		return windows.TerminateProcess(h, 1)
	}
}

func isAlive(pid int) (bool, error) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			return false, syscall.ESRCH
		}
		return false, err
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false, err
	}
	return code == uint32(windows.STILL_ACTIVE), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, syscall.ESRCH) || errors.Is(err, windows.ERROR_INVALID_PARAMETER)
}

func exitCodeFromState(state *os.ProcessState) ExitCode {
	return ExitCode(state.ExitCode())
}

// watchAttached blocks on the kernel object until the process exits. Unlike
// the Unix attach paths the real exit code is observable here.
func watchAttached(pid int) (ExitCode, error) {
	h, err := windows.OpenProcess(windows.SYNCHRONIZE|windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return 0, fmt.Errorf("open pid %d: %w", pid, err)
	}
	defer windows.CloseHandle(h)

	if _, err := windows.WaitForSingleObject(h, windows.INFINITE); err != nil {
		return 0, fmt.Errorf("wait pid %d: %w", pid, err)
	}
	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return 0, fmt.Errorf("exit code pid %d: %w", pid, err)
	}
	return ExitCode(code), nil
}
