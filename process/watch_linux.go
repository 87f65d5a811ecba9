//go:build linux

package process

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// watchAttached blocks until the process identified by pid exits, using a
// pidfd so no polling is needed. The exit status of a non-child process is
// not observable; the delivered code is zero. A pid that does not exist is
// reported as a wait failure.
func watchAttached(pid int) (ExitCode, error) {
	fd, err := unix.PidfdOpen(pid, 0)
	if err != nil {
		return 0, fmt.Errorf("pidfd_open pid %d: %w", pid, err)
	}
	defer unix.Close(fd)

	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("poll pidfd for pid %d: %w", pid, err)
		}
		return 0, nil
	}
}
