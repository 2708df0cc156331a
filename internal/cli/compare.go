package cli

import (
	"fmt"
	"maps"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-qa/report"
)

func newCompareCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <baseline.json> <current.json>",
		Short: "Compare two quality_results.json files",
		Long: `Compare the metrics of two result files and fail when any metric regressed
beyond its tolerance.

  sonido-qa compare old/quality_results.json quality_analysis/quality_results.json \
    --tolerance correlation=0.005`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, _ := cmd.Flags().GetStringToString("tolerance")
			tolerances, err := mergeTolerances(opts.config.Report.Tolerances, overrides)
			if err != nil {
				return err
			}

			baseline, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read baseline: %w", err)
			}
			current, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read current results: %w", err)
			}

			comparison, err := report.CompareResults(baseline, current, tolerances)
			if err != nil {
				return err
			}
			return printComparison(cmd, comparison, args[0])
		},
	}

	cmd.Flags().StringToString("tolerance", nil, "Per-metric tolerance, e.g. correlation=0.01")

	return cmd
}

// mergeTolerances layers flag values over the configured or default tolerances
func mergeTolerances(configured map[string]float64, overrides map[string]string) (map[string]float64, error) {
	tolerances := report.DefaultTolerances()
	if configured != nil {
		tolerances = maps.Clone(configured)
	}

	for metric, raw := range overrides {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid tolerance for %s: %q", metric, raw)
		}
		tolerances[metric] = v
	}
	return tolerances, nil
}

func printComparison(cmd *cobra.Command, comparison *report.Comparison, baselinePath string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Baseline: %d metrics compared, %d regressions\n",
		comparison.Compared, len(comparison.Regressions))
	for _, r := range comparison.Regressions {
		fmt.Fprintf(out, "  %s\n", r)
	}
	for _, name := range comparison.Missing {
		fmt.Fprintf(out, "  %s: not in baseline\n", name)
	}

	if !comparison.Passed() {
		return fmt.Errorf("%d quality regressions against %s", len(comparison.Regressions), baselinePath)
	}
	return nil
}
