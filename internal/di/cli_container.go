package di

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/adapters/filter"
	"github.com/mikey/phish-filter/internal/config"
	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/logging"
	"github.com/mikey/phish-filter/internal/metrics"
	"github.com/mikey/phish-filter/internal/ports"
	"github.com/mikey/phish-filter/internal/service"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	URL       string
	Message   string
	InputFile string

	// Detection flags
	Threshold float64
	Provider  string
	Offline   bool

	// Output flags
	JSONOutput bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags(args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet("phish-check", flag.ContinueOnError)

	// Input flags
	fs.StringVar(&flags.URL, "url", "", "URL to analyze")
	fs.StringVar(&flags.Message, "message", "", "Message text to scan for a URL")
	fs.StringVar(&flags.InputFile, "file", "", "Read the message from a file (use - for stdin)")

	// Detection flags
	fs.Float64Var(&flags.Threshold, "threshold", -1, "Phishing score threshold (0-100, negative keeps the configured value)")
	fs.StringVar(&flags.Provider, "provider", "", "Model provider (fallback, logistic, openai, gemini, bedrock)")
	fs.BoolVar(&flags.Offline, "offline", false, "Skip DNS, redirect and threat intel checks")

	// Output flags
	fs.BoolVar(&flags.JSONOutput, "json", false, "Print the result as JSON")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags, out io.Writer) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration, with command line flags taking precedence
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := config.NewFromFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Debug("Loaded configuration from file", zap.String("file", used))
		}
		applyFlags(cfg, flags)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// The CLI runs one analysis, so it keeps no metrics and no cache
	if err := container.Provide(func() *metrics.Metrics { return nil }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() ports.CacheRepository { return nil }); err != nil {
		return nil, err
	}

	if err := provideAnalysis(container); err != nil {
		return nil, err
	}

	// Register CLI filter
	if err := container.Provide(func(svc *service.Service, logger *zap.Logger, flags *CLIFlags) *filter.CliFilter {
		if out == nil {
			out = os.Stdout
		}
		return filter.NewCliFilter(svc, logger, out, flags.JSONOutput, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// applyFlags overlays the command line flags on the loaded configuration
func applyFlags(cfg *config.Config, flags *CLIFlags) {
	v := cfg.GetViper()

	v.Set("cache.enabled", false)
	if flags.Threshold >= 0 {
		v.Set("detection.threshold", flags.Threshold)
	}
	if flags.Provider != "" {
		v.Set("model.provider", flags.Provider)
	}
	if flags.Offline {
		v.Set("verifiers.dns.enabled", false)
		v.Set("verifiers.redirect.enabled", false)
		v.Set("threat_intel.providers", []string{})
		v.Set("threat_intel.google_safe_browsing.api_key", "")
		v.Set("threat_intel.virustotal.api_key", "")
		v.Set("threat_intel.phishtank.app_key", "")
	}
}

// Input builds the analysis input from the flags. -file reads the message from a file,
// or from stdin when the name is "-".
func (f *CLIFlags) Input(stdin io.Reader) (core.AnalysisInput, error) {
	switch {
	case f.URL != "":
		return core.AnalysisInput{URL: f.URL}, nil
	case f.Message != "":
		return core.AnalysisInput{Message: f.Message}, nil
	case f.InputFile == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return core.AnalysisInput{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		return core.AnalysisInput{Message: string(data)}, nil
	case f.InputFile != "":
		data, err := os.ReadFile(f.InputFile)
		if err != nil {
			return core.AnalysisInput{}, fmt.Errorf("failed to read input file: %w", err)
		}
		return core.AnalysisInput{Message: string(data)}, nil
	default:
		return core.AnalysisInput{}, errors.New("one of -url, -message or -file is required")
	}
}
