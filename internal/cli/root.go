package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-qa/config"
	"github.com/RyanBlaney/sonido-qa/logging"
)

var version = "0.1.0"

// options are the persistent flags plus the configuration they resolve to
type options struct {
	configPath string
	logLevel   string
	noColor    bool

	config *config.Config
}

// NewRootCmd builds the sonido-qa command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:     "sonido-qa",
		Short:   "Objective audio-quality regression tests for synthesizers",
		Version: version,
		Long: `sonido-qa renders reference tones, runs them through a synthesizer and
measures how the output differs: SNR, THD+N, frequency response, correlation,
RMS, peak level and dynamic range.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file (YAML or JSON)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newCompareCmd(opts))
	root.AddCommand(newConfigCmd(opts))

	return root
}

// Execute runs the root command with os.Args
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// load reads the config file, if any, and configures the global logger
func (o *options) load(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	o.config = cfg

	// logs go to stderr so reports on stdout stay clean
	stderr := cmd.ErrOrStderr()
	logger := logging.NewDefaultLoggerWithWriters(stderr, stderr, o.colored(stderr))
	logger.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	logging.SetGlobalLogger(logger)

	return nil
}

// colored reports whether w should receive ANSI colors
func (o *options) colored(w io.Writer) bool {
	if o.noColor {
		return false
	}
	if o.config != nil && o.config.Logging.Color != nil {
		return *o.config.Logging.Color
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
