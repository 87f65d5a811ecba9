package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Flamefire/cobalt/executor"
	"github.com/Flamefire/cobalt/internal/spec"
	"github.com/Flamefire/cobalt/process"
)

func newRunCmd(opts *options) *cobra.Command {
	var (
		manifestPath string
		detach       bool
		metricsAddr  string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] [-- command args...]",
		Short: "Launch a process and wait for it to exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd.OutOrStdout())

			var (
				argv    []string
				cfg     process.Config
				closers []io.Closer
			)
			defer func() {
				for _, c := range closers {
					c.Close()
				}
			}()

			switch {
			case manifestPath != "":
				if len(args) > 0 {
					return errors.New("run accepts a manifest or a command, not both")
				}
				doc, err := spec.Load(manifestPath)
				if err != nil {
					return err
				}
				argv = doc.Command
				cfg.Dir = doc.Workdir
				cfg.Env = doc.Environ()
				if doc.Stdout != "" {
					f, err := os.Create(doc.Stdout)
					if err != nil {
						return fmt.Errorf("open stdout capture: %w", err)
					}
					closers = append(closers, f)
					cfg.Stdio.Out = f
				}
				if doc.Stderr != "" {
					f, err := os.Create(doc.Stderr)
					if err != nil {
						return fmt.Errorf("open stderr capture: %w", err)
					}
					closers = append(closers, f)
					cfg.Stdio.Err = f
				}
			case len(args) > 0:
				argv = args
			default:
				return errors.New("run requires a command or an -f manifest")
			}

			loop := executor.New()
			go loop.Run()
			defer loop.Close()

			boundAddr, stopMetrics, err := serveMetrics(metricsAddr)
			if err != nil {
				return err
			}
			if stopMetrics != nil {
				defer stopMetrics()
				logger.Log("info", "metrics", 0, "serving on "+boundAddr)
			}

			p, err := process.Launch(loop, argv[0], argv[1:], cfg)
			if err != nil {
				return err
			}
			logger.Log("info", "launched", p.ID(), strings.Join(argv, " "))

			if detach {
				p.Detach()
				fmt.Fprintln(cmd.OutOrStdout(), p.ID())
				return nil
			}

			// An interrupt of the CLI becomes a graceful shutdown request
			// for the child; a second one kills it via context teardown.
			forwardDone := make(chan struct{})
			defer close(forwardDone)
			go func() {
				select {
				case <-cmd.Context().Done():
					_ = p.RequestExit()
				case <-forwardDone:
				}
			}()

			code, err := p.Wait()
			if err != nil {
				return err
			}
			level := "info"
			if code != 0 {
				level = "warn"
			}
			logger.Log(level, "exited", p.ID(), code.String())
			if err := p.Close(); err != nil {
				return err
			}
			if code == 0 {
				return nil
			}
			return &ExitError{Code: shellExitCode(code)}
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "file", "f", "", "Path to a YAML launch manifest")
	cmd.Flags().BoolVar(&detach, "detach", false, "Print the pid and leave the process running")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	return cmd
}

// shellExitCode maps a portable exit code onto shell conventions: signal
// deaths become 128+n.
func shellExitCode(code process.ExitCode) int {
	if code.Signaled() {
		return 128 - int(code)
	}
	return int(code)
}
