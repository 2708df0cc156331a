package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-qa/config"
	"github.com/RyanBlaney/sonido-qa/logging"
	"github.com/RyanBlaney/sonido-qa/quality"
	"github.com/RyanBlaney/sonido-qa/report"
	"github.com/RyanBlaney/sonido-qa/synth"
	"github.com/RyanBlaney/sonido-qa/transcode"
)

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the quality suite against a synthesizer",
		Long: `Generate a reference tone for every test case, run it through the
synthesizer, analyze the output and write the reports.

  sonido-qa run --synth ./build/synth
  sonido-qa run -c suite.yaml --workers 4 --baseline quality_analysis/quality_results.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyRunFlags(cmd, opts.config); err != nil {
				return err
			}
			return runSuite(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("synth", "", "Path to the synthesizer executable")
	flags.IntP("workers", "w", 0, "Concurrent test cases")
	flags.Duration("timeout", 0, "Per-case synthesizer timeout")
	flags.StringP("output", "o", "", "Report output directory")
	flags.StringSlice("format", nil, "Report formats: json, yaml, text")
	flags.String("baseline", "", "Previous quality_results.json to compare against")
	flags.StringSlice("case", nil, "Run only the named test cases")
	flags.Bool("keep-files", false, "Keep per-case audio files")
	flags.Uint64("seed", 0, "Tone noise seed")

	return cmd
}

// applyRunFlags overrides the configuration with flags the user set
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("synth") {
		cfg.Suite.SynthPath, _ = flags.GetString("synth")
	}
	if flags.Changed("workers") {
		cfg.Suite.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("timeout") {
		timeout, _ := flags.GetDuration("timeout")
		cfg.Suite.Timeout = config.Duration(timeout)
	}
	if flags.Changed("output") {
		cfg.Report.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("format") {
		cfg.Report.Formats, _ = flags.GetStringSlice("format")
	}
	if flags.Changed("baseline") {
		cfg.Report.Baseline, _ = flags.GetString("baseline")
	}
	if flags.Changed("keep-files") {
		cfg.Suite.KeepFiles, _ = flags.GetBool("keep-files")
	}
	if flags.Changed("seed") {
		cfg.Suite.Seed, _ = flags.GetUint64("seed")
	}

	return cfg.Validate()
}

// selectCases keeps the named cases in configuration order
func selectCases(cases []synth.TestCase, names []string) ([]synth.TestCase, error) {
	if len(names) == 0 {
		return cases, nil
	}

	byName := make(map[string]synth.TestCase, len(cases))
	for _, tc := range cases {
		byName[tc.Name] = tc
	}

	selected := make([]synth.TestCase, 0, len(names))
	for _, name := range names {
		tc, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown test case: %s", name)
		}
		selected = append(selected, tc)
	}
	return selected, nil
}

func runSuite(cmd *cobra.Command, opts *options) error {
	cfg := opts.config
	names, _ := cmd.Flags().GetStringSlice("case")
	cases, err := selectCases(cfg.TestCases(), names)
	if err != nil {
		return err
	}

	engine, err := quality.NewEngine(cfg.EngineConfig())
	if err != nil {
		return err
	}
	loader := transcode.NewLoader(cfg.LoaderConfig())
	if err := loader.CheckFallback(cmd.Context()); err != nil {
		logging.Warn("ffmpeg fallback unavailable, only WAV at the engine rate can be loaded", logging.Fields{
			"error": err.Error(),
		})
	}
	suite, err := synth.NewSuite(cfg.SuiteConfig(), engine, loader)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := suite.Run(ctx, cases)
	if result == nil {
		return runErr
	}

	writer := report.NewWriter(cfg.WriterConfig())
	paths, err := writer.Write(result, cfg.Report.Formats)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := report.RenderText(out, result, time.Now(), opts.colored(out)); err != nil {
		return err
	}
	if len(paths) > 0 {
		fmt.Fprintf(out, "\nReports: %s\n", strings.Join(paths, ", "))
	}

	if cfg.Report.Baseline != "" {
		if err := checkBaseline(cmd, cfg, result); err != nil {
			return err
		}
	}

	return runErr
}

func checkBaseline(cmd *cobra.Command, cfg *config.Config, result *synth.SuiteResult) error {
	data, err := os.ReadFile(cfg.Report.Baseline)
	if err != nil {
		return fmt.Errorf("failed to read baseline: %w", err)
	}

	comparison, err := report.CompareBaseline(data, result, cfg.Report.Tolerances)
	if err != nil {
		return fmt.Errorf("failed to compare baseline: %w", err)
	}
	if len(comparison.Missing) > 0 {
		logging.Warn("Test cases missing from baseline", logging.Fields{
			"cases": strings.Join(comparison.Missing, ","),
		})
	}

	fmt.Fprintln(cmd.OutOrStdout())
	return printComparison(cmd, comparison, cfg.Report.Baseline)
}
