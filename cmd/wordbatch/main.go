// Command wordbatch fetches one batch of words with definitions and prints
// it as JSON on stdout. It uses the same configuration as the server but
// touches no storage.
//
// Usage: wordbatch [-config path] [-n count] [-timeout d]
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heartmarshall/wordbrowser/internal/app"
	"github.com/heartmarshall/wordbrowser/internal/config"
	"github.com/heartmarshall/wordbrowser/internal/service/wordfeed"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "wordbatch: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("wordbatch", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	count := fs.Int("n", 0, "number of random words to request (0 = configured batch size)")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall deadline for the batch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	words, err := app.NewWordFeed(cfg.Words, logger).FetchBatch(ctx, *count)
	if err != nil {
		var fe *wordfeed.FetchError
		if errors.As(err, &fe) && fe.Cause() != nil {
			logger.ErrorContext(ctx, "fetch batch failed",
				slog.String("error", err.Error()),
				slog.String("cause", fe.Cause().Error()),
			)
		}
		return fmt.Errorf("fetch batch: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(words); err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	return nil
}
