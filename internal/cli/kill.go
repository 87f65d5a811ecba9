package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Flamefire/cobalt/executor"
	"github.com/Flamefire/cobalt/process"
)

func newKillCmd(opts *options) *cobra.Command {
	var sigName string

	cmd := &cobra.Command{
		Use:   "kill <pid>",
		Short: "Send a control signal to a process",
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
			defer p.Detach()

			switch sigName {
			case "int":
				err = p.Interrupt()
			case "term":
				err = p.RequestExit()
			case "kill":
				err = p.Terminate()
			default:
				return fmt.Errorf("unknown signal %q (want int, term or kill)", sigName)
			}
			if err != nil {
				return err
			}

			opts.logger(cmd.OutOrStdout()).Log("info", "signalled", pid, sigName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sigName, "signal", "s", "term", "Signal to send: int, term or kill")
	return cmd
}
