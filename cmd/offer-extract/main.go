package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/offers-tracker/internal/app"
	"github.com/joseph-ayodele/offers-tracker/internal/common"
	"github.com/joseph-ayodele/offers-tracker/internal/extract"
	"github.com/joseph-ayodele/offers-tracker/internal/insurer"
	"github.com/joseph-ayodele/offers-tracker/internal/ocr"
)

func main() {
	var (
		configFile = flag.String("config", "", "optional config file (yaml, toml or json)")
		showText   = flag.Bool("text", false, "print the extracted text instead of the record")
	)
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "usage: offer-extract [-config file] [-text] <offer.pdf>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := common.Load(*configFile)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	text := extract.NewOCRAdapter(ocr.NewExtractor(app.OCRConfig(cfg.OCR), logger), logger)
	res, err := text.Extract(ctx, path)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err)
		os.Exit(1)
	}
	logger.Info("text extraction OK",
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	if *showText {
		fmt.Println(res.Text)
		return
	}

	fields, err := extract.NewRulesExtractor(logger).ExtractFields(ctx, res.Text, filepath.Base(path))
	if errors.Is(err, insurer.ErrUnsupported) {
		logger.Warn("unsupported insurer", "path", path)
		os.Exit(3)
	}
	if err != nil {
		logger.Error("field extraction failed", "path", path, "error", err)
		os.Exit(1)
	}
	for _, f := range fields.Approximate {
		logger.Warn("approximate field", "field", f.Header(), "value", fields.Record.Get(f))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields.Record); err != nil {
		logger.Error("encode record", "error", err)
		os.Exit(1)
	}
}
