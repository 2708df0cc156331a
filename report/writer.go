package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-qa/logging"
	"github.com/RyanBlaney/sonido-qa/synth"
)

// Formats understood by Writer.Write
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

const (
	textRule    = 50
	sectionRule = 30
)

// WriterConfig controls report output
type WriterConfig struct {
	OutputDir   string `json:"output_dir" yaml:"output_dir"`
	WithSpectra bool   `json:"with_spectra" yaml:"with_spectra"` // include frequency responses in JSON/YAML
}

// Writer writes suite results into an output directory
type Writer struct {
	config WriterConfig
	now    func() time.Time
	logger logging.Logger
}

// NewWriter creates a writer for config.OutputDir
func NewWriter(config WriterConfig) *Writer {
	return &Writer{
		config: config,
		now:    time.Now,
		logger: logging.WithFields(logging.Fields{
			"component":  "report_writer",
			"output_dir": config.OutputDir,
		}),
	}
}

// Write writes every requested format and returns the paths written
func (w *Writer) Write(result *synth.SuiteResult, formats []string) ([]string, error) {
	var paths []string
	for _, format := range formats {
		var (
			path string
			err  error
		)
		switch format {
		case FormatJSON:
			path, err = w.WriteJSON(result)
		case FormatYAML:
			path, err = w.WriteYAML(result)
		case FormatText:
			path, err = w.WriteText(result)
		default:
			err = fmt.Errorf("unsupported report format: %s", format)
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	w.logger.Info("Reports written", logging.Fields{"files": len(paths)})
	return paths, nil
}

// WriteJSON writes quality_results.json
func (w *Writer) WriteJSON(result *synth.SuiteResult) (string, error) {
	data, err := json.MarshalIndent(NewDocument(result, w.now(), w.config.WithSpectra), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON results: %w", err)
	}
	return w.writeFile(JSONFileName, append(data, '\n'))
}

// WriteYAML writes quality_results.yaml
func (w *Writer) WriteYAML(result *synth.SuiteResult) (string, error) {
	data, err := yaml.Marshal(NewDocument(result, w.now(), w.config.WithSpectra))
	if err != nil {
		return "", fmt.Errorf("failed to encode YAML results: %w", err)
	}
	return w.writeFile(YAMLFileName, data)
}

// WriteText writes the uncolored quality_report.txt
func (w *Writer) WriteText(result *synth.SuiteResult) (string, error) {
	path, err := w.prepare(TextFileName)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create text report: %w", err)
	}
	defer f.Close()

	if err := RenderText(f, result, w.now(), false); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write text report: %w", err)
	}
	return path, nil
}

func (w *Writer) prepare(name string) (string, error) {
	dir := w.config.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func (w *Writer) writeFile(name string, data []byte) (string, error) {
	path, err := w.prepare(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	w.logger.Debug("Report written", logging.Fields{"path": path})
	return path, nil
}

type palette struct {
	title, pass, fail, label *color.Color
}

func newPalette(colored bool) palette {
	p := palette{
		title: color.New(color.Bold),
		pass:  color.New(color.FgGreen),
		fail:  color.New(color.FgRed, color.Bold),
		label: color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.title, p.pass, p.fail, p.label} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// RenderText writes the human-readable report. Failed cases are listed after
// the successful ones.
func RenderText(out io.Writer, result *synth.SuiteResult, generated time.Time, colored bool) error {
	p := newPalette(colored)
	tw := &textWriter{w: out}

	tw.line(p.title.Sprint("sonido-qa quality report"))
	tw.line(strings.Repeat("=", textRule))
	tw.printf("Generated: %s\n\n", generated.Format("2006-01-02 15:04:05"))

	var failed []synth.CaseResult
	for _, r := range result.Results {
		if !r.Success || r.Quality == nil {
			failed = append(failed, r)
			continue
		}

		q := r.Quality
		tw.printf("Test: %s\n", p.label.Sprint(r.Name))
		tw.line(strings.Repeat("-", sectionRule))
		tw.printf("Correlation: %.4f\n", q.Correlation)
		tw.printf("Original RMS: %.6f\n", q.OriginalRMS)
		tw.printf("Processed RMS: %.6f\n", q.ProcessedRMS)
		tw.printf("Original peak: %.2f dBFS\n", q.OriginalPeak)
		tw.printf("Processed peak: %.2f dBFS\n", q.ProcessedPeak)
		tw.printf("Original THD+N: %.4f%%\n", q.OriginalTHDN)
		tw.printf("Processed THD+N: %.4f%%\n", q.ProcessedTHDN)
		tw.printf("Original dynamic range: %.2f dB\n", q.OriginalDynamicRange)
		tw.printf("Processed dynamic range: %.2f dB\n", q.ProcessedDynamicRange)
		if q.SNR != nil {
			tw.printf("SNR: %.2f dB\n", *q.SNR)
		}
		tw.line("")
	}

	if len(failed) > 0 {
		tw.line(p.fail.Sprint("Failed tests"))
		tw.line(strings.Repeat("-", sectionRule))
		for _, r := range failed {
			tw.printf("%s: %s\n", p.fail.Sprint(r.Name), r.Error)
		}
		tw.line("")
	}

	s := result.Summary
	status := p.pass
	if s.Failed > 0 {
		status = p.fail
	}
	tw.line(p.title.Sprint("Summary"))
	tw.line(strings.Repeat("-", sectionRule))
	tw.printf("Successful: %s\n", status.Sprintf("%d/%d", s.Successful, s.Total))
	tw.printf("Mean correlation: %.4f\n", s.Correlation.Mean)
	if excluded := s.Correlation.PosInf + s.Correlation.NegInf + s.Correlation.NaN; excluded > 0 {
		tw.printf("Excluded non-finite correlations: %d\n", excluded)
	}
	if s.AnalysisTime.Count > 0 {
		tw.printf("Analysis time: p50 %s, p90 %s, max %s\n",
			s.AnalysisTime.P50, s.AnalysisTime.P90, s.AnalysisTime.Max)
	}

	return tw.err
}

// textWriter keeps the first write error
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	if _, err := fmt.Fprintf(t.w, format, args...); err != nil {
		t.err = fmt.Errorf("failed to write text report: %w", err)
	}
}

func (t *textWriter) line(s string) {
	t.printf("%s\n", s)
}
