package pipeline

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/offers-tracker/constants"
	"github.com/joseph-ayodele/offers-tracker/internal/ingest"
)

// BatchSummary counts the outcomes of one ProcessDirectory run.
type BatchSummary struct {
	Scanned   uint32
	Matched   uint32
	Processed int
	Skipped   int
	Failed    int
	Outcomes  []Outcome
}

// ProcessDirectory processes every PDF currently at the top level of dir,
// in name order, one at a time. Per-document failures are counted, not returned.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) (BatchSummary, error) {
	paths, stats, err := ingest.ScanDirectory(dir, constants.AllowedExtensions)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("scan %s: %w", dir, err)
	}
	sum := BatchSummary{Scanned: stats.Scanned, Matched: stats.Matched}
	p.logger.Info("pipeline.batch.start", "dir", dir, "scanned", stats.Scanned, "matched", stats.Matched)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		out, _ := p.ProcessFile(ctx, path)
		sum.Outcomes = append(sum.Outcomes, out)
		switch out.Status {
		case constants.StatusProcessed:
			sum.Processed++
		case constants.StatusSkipped:
			sum.Skipped++
		default:
			sum.Failed++
		}
	}

	p.logger.Info("pipeline.batch.ok",
		"dir", dir,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
	)
	return sum, nil
}
