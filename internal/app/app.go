// Package app wires configuration into a ready-to-run offer pipeline.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/joseph-ayodele/offers-tracker/constants"
	"github.com/joseph-ayodele/offers-tracker/internal/common"
	"github.com/joseph-ayodele/offers-tracker/internal/extract"
	"github.com/joseph-ayodele/offers-tracker/internal/ingest"
	"github.com/joseph-ayodele/offers-tracker/internal/ledger"
	"github.com/joseph-ayodele/offers-tracker/internal/metrics"
	"github.com/joseph-ayodele/offers-tracker/internal/ocr"
	"github.com/joseph-ayodele/offers-tracker/internal/pipeline"
	"github.com/joseph-ayodele/offers-tracker/internal/repository"
)

// App holds the wired components shared by the binaries.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Text      extract.TextExtractor
	Ledger    ledger.Ledger
	Mover     *ingest.Mover
	DB        *repository.DB
	Journal   repository.JournalRepository
	Processor *pipeline.Processor
}

// OCRConfig maps the ocr section of the configuration.
func OCRConfig(c common.OCRConfig) ocr.Config {
	return ocr.Config{
		Engine:        c.Engine,
		Pdftotext:     c.Pdftotext,
		Pdftoppm:      c.Pdftoppm,
		Tesseract:     c.Tesseract,
		TesseractLang: c.Lang,
		DPI:           c.DPI,
		MaxPages:      c.MaxPages,
		TessdataDir:   c.TessdataDir,
		Timeout:       c.Timeout,
	}
}

// New builds every component. The done and error folders are created here.
// Call Close when finished.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	a.Text = extract.NewOCRAdapter(ocr.NewExtractor(OCRConfig(cfg.OCR), logger), logger)

	l, err := ledger.Open(cfg.Ledger.Path, cfg.Ledger.Sheet, logger)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	a.Ledger = l

	a.Mover = ingest.NewMover(cfg.Folders.Done, cfg.Folders.Error, logger)
	if err := a.Mover.EnsureDirs(); err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithUnsupportedPolicy(constants.UnsupportedPolicy(cfg.Folders.UnsupportedPolicy)),
	}
	if cfg.Journal.Enabled {
		db, err := repository.Open(ctx, repository.Config{Driver: cfg.Journal.Driver, DSN: cfg.Journal.DSN}, logger)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		journal, err := repository.NewJournalRepository(ctx, db, logger)
		if err != nil {
			db.Close(logger)
			return nil, err
		}
		a.DB, a.Journal = db, journal
		opts = append(opts, pipeline.WithJournal(journal))
	}

	a.Processor = pipeline.NewProcessor(logger, a.Text, extract.NewRulesExtractor(logger), a.Ledger, a.Mover, opts...)
	logger.Info("app.ready",
		"ledger", a.Ledger.Path(),
		"done", cfg.Folders.Done,
		"error", cfg.Folders.Error,
		"journal", cfg.Journal.Enabled,
	)
	return a, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close(a.Logger)
	}
}
