package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/offers-tracker/internal/app"
	"github.com/joseph-ayodele/offers-tracker/internal/common"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		configFile = flag.String("config", "", "optional config file (yaml, toml or json)")
		dir        = flag.String("dir", "", "folder with offer PDFs (defaults to watch.dir)")
		out        = flag.String("out", "", "ledger path, .xlsx or .csv (defaults to ledger.path)")
	)
	flag.Parse()

	cfg, err := common.Load(*configFile)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if *dir != "" {
		cfg.Watch.Dir = *dir
	}
	if *out != "" {
		cfg.Ledger.Path = *out
		if err := cfg.Validate(); err != nil {
			printError("Error: %v\n", err)
			os.Exit(2)
		}
	}

	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	sum, err := a.Processor.ProcessDirectory(ctx, cfg.Watch.Dir)
	if err != nil {
		logger.Error("batch processing failed", "dir", cfg.Watch.Dir, "error", err)
		os.Exit(1)
	}

	for _, o := range sum.Outcomes {
		line := fmt.Sprintf("%-9s %-12s %s", o.Status, o.Insurer, o.FileName)
		if o.Err != nil {
			line += "  (" + o.Err.Error() + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files found: %d\n", sum.Matched)
	fmt.Printf("- Processed: %d\n", sum.Processed)
	fmt.Printf("- Skipped: %d\n", sum.Skipped)
	fmt.Printf("- Failed: %d\n", sum.Failed)
	fmt.Printf("- Ledger: %s\n", a.Ledger.Path())

	if sum.Failed > 0 {
		os.Exit(1)
	}
}
