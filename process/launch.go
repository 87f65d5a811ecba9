package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/Flamefire/cobalt/executor"
	"github.com/Flamefire/cobalt/internal/metrics"
)

// Stdio wires the standard streams of a launched process. Nil fields
// inherit the parent's stream rather than reading from or writing to the
// null device.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Config bundles the launch options. The zero value inherits the parent's
// standard streams, working directory and environment.
type Config struct {
	Stdio Stdio
	Dir   string   // working directory; empty inherits the current one
	Env   []string // environment in "key=value" form; nil inherits
}

// Launch starts exe with args and returns an owning handle to the new
// process. The exit watcher starts immediately, so the child is reaped even
// if the caller never waits. On failure no process exists and no handle is
// returned.
func Launch(loop *executor.Loop, exe string, args []string, cfg Config) (*Process, error) {
	if loop == nil {
		return nil, errors.New("process: launch requires an executor loop")
	}

	cmd := exec.Command(exe, args...)
	cmd.Dir = cfg.Dir
	if cfg.Env != nil {
		cmd.Env = cfg.Env
	}
	cmd.Stdin = cfg.Stdio.In
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = cfg.Stdio.Out
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = cfg.Stdio.Err
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		metrics.LaunchFailed()
		return nil, fmt.Errorf("launch %s: %w", exe, err)
	}

	p := &Process{
		loop:      loop,
		pid:       cmd.Process.Pid,
		proc:      cmd.Process,
		cmd:       cmd,
		open:      true,
		owns:      true,
		watching:  true,
		watchDone: make(chan struct{}),
	}
	metrics.ProcessLaunched()
	go p.reapChild()
	return p, nil
}
