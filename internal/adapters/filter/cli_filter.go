package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/service"
)

// CliFilter implements a command-line interface for phishing detection
type CliFilter struct {
	analyzer   Analyzer
	logger     *zap.Logger
	out        io.Writer
	jsonOutput bool
	verbose    bool
}

// NewCliFilter creates a new CLI filter writing its report to out
func NewCliFilter(analyzer Analyzer, logger *zap.Logger, out io.Writer, jsonOutput, verbose bool) *CliFilter {
	return &CliFilter{
		analyzer:   analyzer,
		logger:     logger,
		out:        out,
		jsonOutput: jsonOutput,
		verbose:    verbose,
	}
}

// ProcessInput analyzes the input and prints the report
func (f *CliFilter) ProcessInput(ctx context.Context, input core.AnalysisInput) (*service.Report, error) {
	f.logger.Debug("Processing input", zap.Bool("has_url", input.URL != ""), zap.Int("message_length", len(input.Message)))

	report, err := f.analyzer.Analyze(ctx, input)
	if err != nil {
		f.logger.Error("Failed to analyze input", zap.Error(err))
		return nil, err
	}

	if f.jsonOutput {
		enc := json.NewEncoder(f.out)
		enc.SetIndent("", "  ")
		return report, enc.Encode(report.Result)
	}

	return report, f.printReport(input, report)
}

func (f *CliFilter) printReport(input core.AnalysisInput, report *service.Report) error {
	w := &errWriter{w: f.out}

	w.printf("\n=== Input ===\n")
	if input.URL != "" {
		w.printf("URL: %s\n", input.URL)
	} else {
		preview := input.Message
		if !f.verbose && len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		w.printf("Message (%d bytes):\n%s\n", len(input.Message), preview)
	}

	w.printf("\n=== Results ===\n")
	w.printf("Is phishing: %t\n", report.Result.IsPhishing)
	w.printf("Risk score: %.2f\n", report.Result.RiskScore)
	if len(report.Result.Reasons) == 0 {
		w.printf("Reasons: none\n")
	} else {
		w.printf("Reasons:\n")
		for _, reason := range report.Result.Reasons {
			w.printf("  - %s\n", reason)
		}
	}
	if f.verbose {
		w.printf("Request ID: %s\n", report.RequestID)
		w.printf("Cached: %t\n", report.Cached)
		w.printf("Processing time: %v\n", report.Duration)
	}

	return w.err
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}

// errWriter keeps the first write error so a report can be printed without checking each line
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
