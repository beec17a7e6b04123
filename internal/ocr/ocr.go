package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/offers-tracker/constants"
)

const (
	EngineNative    = "native"    // embedded text layer via github.com/ledongthuc/pdf
	EnginePdftotext = "pdftotext" // poppler pdftotext -layout
)

type Config struct {
	Engine    string // EngineNative | EnginePdftotext; default native
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "ces"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir         string
	EnableTSVConfidence bool

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	Timeout time.Duration // per document; 0 = bounded by ctx only
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF
	Method     string // "pdf-native" | "pdf-text" | "pdf-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	native func(path string) (string, int, error)
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the exec runner, mainly for tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

// WithNativeReader replaces the embedded text-layer reader.
func WithNativeReader(fn func(path string) (string, int, error)) Option {
	return func(e *Extractor) { e.native = fn }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineNative
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "ces"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	e := &Extractor{cfg: cfg, runner: execRunner{}, native: readNativeText, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract returns the text of every page of a PDF. The text layer is tried
// first; when it is blank the pages are rasterized and OCR'd.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if constants.MapExtToFormat(ext) != constants.PDF {
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	e.logger.Debug("starting text extraction", "path", path, "engine", e.cfg.Engine)
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	res := ExtractionResult{SourceType: constants.PDF}
	text, pages, method, warns := e.textLayer(ctx, path)
	res.Warnings = append(res.Warnings, warns...)

	if strings.TrimSpace(text) == "" {
		e.logger.Info("ocr.fallback", "path", path, "reason", "empty text layer")
		ocrText, ocrPages, ocrWarns, err := e.pdfToOCR(ctx, path)
		res.Warnings = append(res.Warnings, ocrWarns...)
		if err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("ocr: %w", err)
		}
		text, pages, method = ocrText, ocrPages, "pdf-ocr"
		res.Language = e.cfg.TesseractLang
	}

	res.Text = Normalize(text)
	res.Pages = pages
	res.Method = method
	res.Confidence = heuristicConfidence(res.Text)
	res.Duration = time.Since(start)
	e.logger.Debug("text extraction done",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// textLayer reads the embedded text with the configured engine. Failures
// are reported as warnings so the OCR fallback can still run.
func (e *Extractor) textLayer(ctx context.Context, path string) (string, int, string, []string) {
	switch e.cfg.Engine {
	case EnginePdftotext:
		text, pages, warns, err := e.pdfToText(ctx, path)
		if err != nil {
			e.logger.Warn("pdftotext failed", "path", path, "error", err)
			return "", 0, "pdf-text", append(warns, err.Error())
		}
		return text, pages, "pdf-text", warns
	default:
		text, pages, err := e.native(path)
		if err != nil {
			e.logger.Warn("native text layer failed", "path", path, "error", err)
			return "", 0, "pdf-native", []string{err.Error()}
		}
		return text, pages, "pdf-native", nil
	}
}
