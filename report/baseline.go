package report

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/RyanBlaney/sonido-qa/quality"
	"github.com/RyanBlaney/sonido-qa/synth"
)

// Direction says which way a metric may move without counting as a regression
type Direction int

const (
	// HigherIsBetter flags drops below baseline - tolerance
	HigherIsBetter Direction = iota
	// LowerIsBetter flags rises above baseline + tolerance
	LowerIsBetter
	// Stable flags any move further than tolerance
	Stable
)

// MetricDirections maps the processed-signal metrics to their direction.
// Metrics not listed, such as those of the generated tone, are Stable.
var MetricDirections = map[string]Direction{
	quality.KeyCorrelation:           HigherIsBetter,
	quality.KeySNR:                   HigherIsBetter,
	quality.KeyProcessedTHDN:         LowerIsBetter,
	quality.KeyProcessedRMS:          Stable,
	quality.KeyProcessedPeak:         Stable,
	quality.KeyProcessedDynamicRange: Stable,
}

// DefaultTolerances returns the tolerances used when none are configured
func DefaultTolerances() map[string]float64 {
	return map[string]float64{
		quality.KeyCorrelation:           0.01,
		quality.KeySNR:                   1.0,
		quality.KeyProcessedTHDN:         1.0,
		quality.KeyProcessedRMS:          0.01,
		quality.KeyProcessedPeak:         0.5,
		quality.KeyProcessedDynamicRange: 1.0,
	}
}

// Regression is a metric that moved past its tolerance
type Regression struct {
	Test      string `json:"test"`
	Metric    string `json:"metric"`
	Baseline  Float  `json:"baseline"`
	Current   Float  `json:"current"`
	Tolerance Float  `json:"tolerance"`
}

func (r Regression) String() string {
	return fmt.Sprintf("%s/%s: %v -> %v (tolerance %v)",
		r.Test, r.Metric, float64(r.Baseline), float64(r.Current), float64(r.Tolerance))
}

// Comparison is the outcome of a baseline comparison
type Comparison struct {
	Compared    int          `json:"compared"` // metric values checked
	Regressions []Regression `json:"regressions"`
	Missing     []string     `json:"missing"` // tests absent from the baseline
}

// Passed reports whether nothing regressed
func (c *Comparison) Passed() bool {
	return len(c.Regressions) == 0
}

// caseMetrics is one test's outcome, from a live run or a results file
type caseMetrics struct {
	name    string
	success bool
	metrics map[string]float64
}

// CompareBaseline checks a suite result against a previous
// quality_results.json. Only metrics named in tolerances are compared; a nil
// map uses DefaultTolerances. A test that succeeded in the baseline and fails
// now is reported with the metric "success".
func CompareBaseline(baselineJSON []byte, result *synth.SuiteResult, tolerances map[string]float64) (*Comparison, error) {
	current := make([]caseMetrics, 0, len(result.Results))
	for _, r := range result.Results {
		cm := caseMetrics{name: r.Name, success: r.Success && r.Quality != nil}
		if cm.success {
			cm.metrics = r.Quality.Metrics()
		}
		current = append(current, cm)
	}
	return compare(baselineJSON, current, tolerances)
}

// CompareResults checks one quality_results.json against another
func CompareResults(baselineJSON, currentJSON []byte, tolerances map[string]float64) (*Comparison, error) {
	results, err := resultsObject(currentJSON, "current")
	if err != nil {
		return nil, err
	}

	var current []caseMetrics
	results.ForEach(func(name, value gjson.Result) bool {
		cm := caseMetrics{name: name.String(), success: value.Get("success").Bool()}
		if q := value.Get("quality"); cm.success && q.IsObject() {
			cm.metrics = make(map[string]float64)
			q.ForEach(func(metric, v gjson.Result) bool {
				if f, ok := metricValue(v); ok {
					cm.metrics[metric.String()] = f
				}
				return true
			})
		} else {
			cm.success = false
		}
		current = append(current, cm)
		return true
	})

	slices.SortFunc(current, func(a, b caseMetrics) int {
		return strings.Compare(a.name, b.name)
	})
	return compare(baselineJSON, current, tolerances)
}

func resultsObject(data []byte, which string) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%s results are not valid JSON", which)
	}
	results := gjson.GetBytes(data, "results")
	if !results.IsObject() {
		return gjson.Result{}, fmt.Errorf("%s has no results object", which)
	}
	return results, nil
}

func compare(baselineJSON []byte, current []caseMetrics, tolerances map[string]float64) (*Comparison, error) {
	results, err := resultsObject(baselineJSON, "baseline")
	if err != nil {
		return nil, err
	}
	if tolerances == nil {
		tolerances = DefaultTolerances()
	}
	metrics := slices.Sorted(maps.Keys(tolerances))

	comparison := &Comparison{}
	for _, cm := range current {
		base := results.Get(escapePath(cm.name))
		if !base.Exists() {
			comparison.Missing = append(comparison.Missing, cm.name)
			continue
		}

		if !cm.success {
			if base.Get("success").Bool() {
				comparison.Regressions = append(comparison.Regressions, Regression{
					Test: cm.name, Metric: "success", Baseline: 1, Current: 0,
				})
			}
			continue
		}

		for _, metric := range metrics {
			value, ok := cm.metrics[metric]
			if !ok {
				continue
			}
			baseValue, ok := metricValue(base.Get("quality." + metric))
			if !ok {
				continue
			}

			comparison.Compared++
			tolerance := tolerances[metric]
			if regressed(direction(metric), baseValue, value, tolerance) {
				comparison.Regressions = append(comparison.Regressions, Regression{
					Test:      cm.name,
					Metric:    metric,
					Baseline:  Float(baseValue),
					Current:   Float(value),
					Tolerance: Float(tolerance),
				})
			}
		}
	}

	return comparison, nil
}

// metricValue reads a number or one of the "+Inf", "-Inf", "NaN" strings
func metricValue(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		v, err := parseFloat(r.Str)
		return v, err == nil
	}
	return 0, false
}

func direction(metric string) Direction {
	if d, ok := MetricDirections[metric]; ok {
		return d
	}
	return Stable
}

func regressed(direction Direction, baseline, current, tolerance float64) bool {
	if math.IsNaN(baseline) {
		return false
	}
	if math.IsNaN(current) {
		return true
	}
	if baseline == current {
		return false
	}

	switch direction {
	case HigherIsBetter:
		return current < baseline-tolerance
	case LowerIsBetter:
		return current > baseline+tolerance
	default:
		return math.Abs(current-baseline) > tolerance
	}
}

// escapePath escapes gjson path syntax in a test name
func escapePath(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
