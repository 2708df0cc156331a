package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-qa/quality"
	"github.com/RyanBlaney/sonido-qa/report"
	"github.com/RyanBlaney/sonido-qa/transcode"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <original> <processed>",
		Short: "Compare two audio files",
		Long: `Load two audio files at the engine sample rate and print every quality
metric. WAV is read directly; other formats and other sample rates go through ffmpeg.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analyzeFiles(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().Bool("json", false, "Print the report as JSON")
	cmd.Flags().Bool("spectra", false, "Include frequency responses in JSON output")
	cmd.Flags().Float64("fundamental", 0, "Fundamental frequency for THD+N, Hz")

	return cmd
}

func analyzeFiles(cmd *cobra.Command, opts *options, originalPath, processedPath string) error {
	cfg := opts.config
	if cmd.Flags().Changed("fundamental") {
		cfg.Engine.FundamentalFrequency, _ = cmd.Flags().GetFloat64("fundamental")
	}

	engine, err := quality.NewEngine(cfg.EngineConfig())
	if err != nil {
		return err
	}
	loader := transcode.NewLoader(cfg.LoaderConfig())

	original, err := loader.Load(cmd.Context(), originalPath)
	if err != nil {
		return fmt.Errorf("failed to load original: %w", err)
	}
	processed, err := loader.Load(cmd.Context(), processedPath)
	if err != nil {
		return fmt.Errorf("failed to load processed: %w", err)
	}

	q, err := engine.Analyze(original.PCM, processed.PCM)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		spectra, _ := cmd.Flags().GetBool("spectra")
		data, err := json.MarshalIndent(report.NewQualityDocument(q, spectra), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	metrics := q.Metrics()
	for _, name := range q.MetricNames() {
		fmt.Fprintf(out, "%-24s %.6g\n", name, metrics[name])
	}
	return nil
}
