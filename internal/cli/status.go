package cli

import (
	"github.com/spf13/cobra"

	"github.com/Flamefire/cobalt/executor"
	"github.com/Flamefire/cobalt/process"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <pid>",
		Short: "Report whether a process is running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}

			loop := executor.New()
			go loop.Run()
			defer loop.Close()

			p, err := process.Attach(loop, pid)
			if err != nil {
				return err
			}
			// status must never end up owning the process's lifetime.
			defer p.Detach()

			logger := opts.logger(cmd.OutOrStdout())
			alive, err := p.Running()
			if err != nil {
				logger.Log("warn", "status", pid, err.Error())
				return &ExitError{Code: 1}
			}
			if alive {
				logger.Log("info", "status", pid, "running")
				return nil
			}
			logger.Log("info", "status", pid, "not running")
			return &ExitError{Code: 1}
		},
	}
}
