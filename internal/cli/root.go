package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"coopsched/internal/logging"
	"coopsched/internal/sched"
)

// app carries the settings resolved from flags and the config file.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	traceCSV   string
	debug      bool

	cfg    sched.Config
	logger zerolog.Logger
}

// NewRootCmd creates the root cobra command for the coopsched CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "coopsched",
		Short: "coopsched runs cooperative tasks on a single thread",
		Long:  "coopsched multiplexes cooperative tasks that wait, sleep and read input on one thread of control.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.resolve(cmd)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yml", "YAML config file (missing file = defaults)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().StringVar(&a.traceCSV, "trace-csv", "", "Write scheduler events to this CSV file")

	root.AddCommand(
		newDemoCmd(a),
		newConfigCmd(a),
	)

	return root
}

// resolve loads the config file and lets explicitly set flags override it.
func (a *app) resolve(cmd *cobra.Command) error {
	cfg, err := sched.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if flags.Changed("trace-csv") {
		cfg.TraceCSV = a.traceCSV
	}
	if a.debug {
		cfg.LogLevel = "debug"
	}

	a.cfg = cfg
	a.logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
	return nil
}
