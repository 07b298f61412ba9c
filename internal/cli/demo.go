package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"coopsched/internal/input"
	"coopsched/internal/job"
	"coopsched/internal/sched"
)

const quitKey = 'q'

type demoOptions struct {
	script  string
	gap     int
	tickers int
	everyMS int64
}

func newDemoCmd(a *app) *cobra.Command {
	var opts demoOptions
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run ticker tasks next to an echo task until 'q' is read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeInput, err := openInput(opts)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeInput(); err != nil {
					a.logger.Warn().Err(err).Msg("restore terminal")
				}
			}()

			s := sched.New(a.cfg, sched.WithInput(in), sched.WithLogger(a.logger))
			return runDemo(s, a.cfg.TraceCSV, cmd.OutOrStdout(), a.logger, opts)
		},
	}

	cmd.Flags().StringVar(&opts.script, "script", "", "Read these characters instead of the terminal")
	cmd.Flags().IntVar(&opts.gap, "gap", 3, "Empty probes before each scripted character")
	cmd.Flags().IntVar(&opts.tickers, "tickers", 2, "Number of ticker tasks")
	cmd.Flags().Int64Var(&opts.everyMS, "every", 500, "Interval of the first ticker in ms; ticker n ticks every n*interval")

	return cmd
}

func openInput(opts demoOptions) (sched.Input, func() error, error) {
	if opts.script != "" {
		script := opts.script
		if !strings.ContainsRune(script, quitKey) {
			script += string(quitKey)
		}
		return input.FromString(script, opts.gap), func() error { return nil }, nil
	}
	tty, err := input.OpenTTY()
	if err != nil {
		return nil, nil, fmt.Errorf("open terminal (use --script when not on a tty): %w", err)
	}
	return tty, tty.Close, nil
}

func runDemo(s *sched.Scheduler, tracePath string, out io.Writer, logger zerolog.Logger, opts demoOptions) error {
	if err := s.Init(); err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn().Err(err).Msg("scheduler teardown")
		}
	}()
	if tracePath != "" {
		if err := s.EnableCSVTrace(tracePath); err != nil {
			return err
		}
	}

	quit := false
	stop := func() bool { return quit }

	echo, err := s.Create(job.Echo(s, out, quitKey, func() { quit = true }))
	if err != nil {
		return err
	}
	tickers := make([]sched.TaskID, 0, opts.tickers)
	for i := range opts.tickers {
		name := fmt.Sprintf("ticker-%d", i+1)
		id, err := s.Create(job.Ticker(s, out, name, opts.everyMS*int64(i+1), 0, stop))
		if err != nil {
			return err
		}
		tickers = append(tickers, id)
	}
	logger.Info().Int("tasks", s.NumTasks()).Msgf("running, press %q to quit", quitKey)

	if err := s.Wait(echo); err != nil {
		return err
	}
	for _, id := range tickers {
		if err := s.Wait(id); err != nil {
			return err
		}
	}

	st := s.Stats()
	logger.Info().
		Uint64("switches", st.Switches).
		Uint64("idle_passes", st.IdlePasses).
		Uint64("stacks_released", st.StacksReleased).
		Msg("demo finished")
	fmt.Fprintf(out, "done: %d tasks, %d switches\n", st.Tasks, st.Switches)
	return nil
}
