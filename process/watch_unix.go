//go:build unix && !linux

package process

import (
	"fmt"
	"syscall"
	"time"
)

const attachPollInterval = 100 * time.Millisecond

// watchAttached polls for liveness; without a parent-child relationship
// there is no exit notification to subscribe to on this platform. The exit
// status of a non-child process is not observable; the delivered code is
// zero. A pid that never existed is reported as a wait failure.
func watchAttached(pid int) (ExitCode, error) {
	seenAlive := false
	for {
		err := syscall.Kill(pid, 0)
		switch {
		case err == nil, err == syscall.EPERM:
			seenAlive = true
		case err == syscall.ESRCH:
			if !seenAlive {
				return 0, fmt.Errorf("watch pid %d: %w", pid, err)
			}
			return 0, nil
		default:
			return 0, fmt.Errorf("watch pid %d: %w", pid, err)
		}
		time.Sleep(attachPollInterval)
	}
}
