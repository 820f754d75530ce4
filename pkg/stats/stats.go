package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Step is one timed stage of a pipeline run.
type Step struct {
	Name     string
	Duration time.Duration
}

// Trace records steps in the order they finished.
type Trace struct {
	Steps []Step
}

// Time runs fn and records its duration under name, even when fn fails.
func (t *Trace) Time(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	t.Steps = append(t.Steps, Step{Name: name, Duration: time.Since(start)})
	return err
}

func (t *Trace) Total() time.Duration {
	var total time.Duration
	for _, s := range t.Steps {
		total += s.Duration
	}
	return total
}

// Lookup returns the duration of the named step.
func (t *Trace) Lookup(name string) (time.Duration, bool) {
	for _, s := range t.Steps {
		if s.Name == name {
			return s.Duration, true
		}
	}
	return 0, false
}

// PerformanceData holds timing and metadata for one hybrid run
type PerformanceData struct {
	AlgorithmName string
	KernelSize    int
	Sigma         float64
	Width         int
	Height        int
	InputPaths    []string
	OutputPaths   []string
	Timestamp     time.Time
	Trace         Trace

	Workers  *int // For tile-parallel filtering
	TileRows *int
}

// WriteReport writes a single combined results file into dir and returns its path.
func WriteReport(dir string, results []PerformanceData) (string, error) {
	return WriteReportWithPrefix(dir, results, "hybrid_")
}

// WriteReportWithPrefix writes results file with custom prefix
func WriteReportWithPrefix(dir string, results []PerformanceData, prefix string) (string, error) {
	if len(results) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	// Use timestamp from first result
	timestamp := results[0].Timestamp.Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(dir, fmt.Sprintf("%s%s.txt", prefix, timestamp))

	file, err := os.Create(resultsFile)
	if err != nil {
		return "", fmt.Errorf("failed to create results file: %w", err)
	}
	defer file.Close()

	if err := Render(file, results); err != nil {
		return "", err
	}
	return resultsFile, nil
}

// Render formats results as plain text.
func Render(w io.Writer, results []PerformanceData) error {
	if len(results) == 0 {
		return nil
	}

	p := &printer{w: w}
	p.printf("=== Hybrid Image Results ===\n")
	p.printf("Timestamp: %s\n\n", results[0].Timestamp.Format("2006-01-02 15:04:05"))

	for _, result := range results {
		p.printf("=== %s Results ===\n", result.AlgorithmName)
		p.printf("Image size: %dx%d\n", result.Width, result.Height)
		p.printf("Kernel size: %d\n", result.KernelSize)
		p.printf("Sigma: %.2f\n", result.Sigma)

		if result.Workers != nil {
			p.printf("Workers: %d\n", *result.Workers)
		}
		if result.TileRows != nil {
			p.printf("Tile rows: %d\n", *result.TileRows)
		}

		p.printf("\nSteps:\n")
		for _, step := range result.Trace.Steps {
			p.printf("  %-10s %.2fms\n", step.Name, float64(step.Duration.Microseconds())/1000.0)
		}
		p.printf("Total execution time: %.2fs\n", result.Trace.Total().Seconds())

		p.printf("\nInput files:\n")
		for i, path := range result.InputPaths {
			p.printf("  %d. %s\n", i+1, path)
		}

		p.printf("\nOutput files:\n")
		for i, path := range result.OutputPaths {
			p.printf("  %d. %s\n", i+1, path)
		}

		p.printf("\n")
	}
	return p.err
}

// printer keeps the first write error so Render can check once at the end.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
