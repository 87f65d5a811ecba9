// Package cli implements the cobalt command line interface.
package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Flamefire/cobalt/internal/cliutil"
)

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *options) {
	opts := &options{}

	root := &cobra.Command{
		Use:   "cobalt",
		Short: "Launch, watch and signal subprocesses",
	}
	root.PersistentFlags().BoolVar(&opts.jsonLogs, "json", false, "Emit JSON log records (default when stdout is not a terminal)")
	opts.jsonFlagChanged = func() bool { return root.PersistentFlags().Changed("json") }

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newKillCmd(opts))
	root.AddCommand(newWaitCmd(opts))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, opts
}

// ExitError carries a child's exit code to the process boundary so Execute
// can propagate it as the CLI's own exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	jsonLogs        bool
	jsonFlagChanged func() bool
}

func (o *options) logger(out io.Writer) *cliutil.Logger {
	jsonMode := o.jsonLogs
	if o.jsonFlagChanged != nil && !o.jsonFlagChanged() {
		jsonMode = !cliutil.StdoutIsTerminal()
	}
	return cliutil.NewLogger(out, jsonMode)
}

func parsePID(arg string) (int, error) {
	pid, err := strconv.Atoi(arg)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid %q", arg)
	}
	return pid, nil
}
