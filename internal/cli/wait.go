package cli

import (
	"github.com/spf13/cobra"

	"github.com/Flamefire/cobalt/executor"
	"github.com/Flamefire/cobalt/process"
)

func newWaitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "wait <pid>",
		Short: "Block until a process exits",
		Long: "Block until a process exits.\n\n" +
			"The exit status of a process that is not a child of this one is not\n" +
			"observable on most platforms; in that case the reported code is 0.",
		Args: cobra.ExactArgs(1),
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

			code, err := p.Wait()
			if err != nil {
				return err
			}
			opts.logger(cmd.OutOrStdout()).Log("info", "exited", pid, code.String())
			return nil
		},
	}
}
