package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/offers-tracker/internal/insurer"
	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF"
	Method     string // "pdf-native" | "pdf-text" | "pdf-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// FieldExtractor is Stage 2: text -> ledger record.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text, filename string) (FieldsResult, error)
}

type FieldsResult struct {
	Record  record.Record
	Insurer insurer.Insurer
	// Approximate lists fields filled by a known-heuristic rule.
	Approximate []record.Field
}
