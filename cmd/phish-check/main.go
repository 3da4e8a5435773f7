package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/adapters/filter"
	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/di"
)

// Exit codes: 0 legitimate, 1 error, 2 phishing
const (
	exitError    = 1
	exitPhishing = 2
)

func main() {
	flags, err := di.ParseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(exitError)
	}

	input, err := flags.Input(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}

	container, err := di.BuildCLIContainer(flags, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(exitError)
	}

	phishing := false
	err = container.Invoke(func(cli *filter.CliFilter, model core.Model, logger *zap.Logger) error {
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		report, err := cli.ProcessInput(ctx, input)
		if closer, ok := model.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil {
				logger.Warn("Failed to close model", zap.Error(cerr))
			}
		}
		if err != nil {
			return err
		}

		phishing = report.Result.IsPhishing
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}

	if phishing {
		os.Exit(exitPhishing)
	}
}
