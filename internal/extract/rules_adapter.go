package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/offers-tracker/internal/common"
	"github.com/joseph-ayodele/offers-tracker/internal/insurer"
)

// RulesExtractor runs the insurer rulesets behind the FieldExtractor contract.
type RulesExtractor struct {
	logger *slog.Logger
}

func NewRulesExtractor(logger *slog.Logger) *RulesExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RulesExtractor{logger: logger}
}

// ExtractFields returns insurer.ErrUnsupported for blank or unknown documents.
// A panic inside a ruleset is returned as an error.
func (r *RulesExtractor) ExtractFields(ctx context.Context, text, filename string) (res FieldsResult, err error) {
	if err := ctx.Err(); err != nil {
		return FieldsResult{}, err
	}
	ins := insurer.Detect(text)
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("extract.rules.panic",
				"document_id", common.DocumentIDFromContext(ctx),
				"file", filename, "insurer", ins.String(), "panic", p)
			res, err = FieldsResult{Insurer: ins}, fmt.Errorf("%s ruleset: %v", ins, p)
		}
	}()

	rec, ins, err := insurer.ExtractDocument(text, filename)
	if err != nil {
		return FieldsResult{Insurer: ins}, err
	}
	ex, err := insurer.For(ins)
	if err != nil {
		return FieldsResult{Insurer: ins}, err
	}
	r.logger.Debug("extract.rules.ok", "document_id", common.DocumentIDFromContext(ctx), "file", filename, "insurer", ins.String())
	return FieldsResult{Record: rec, Insurer: ins, Approximate: ex.ApproximateFields()}, nil
}
