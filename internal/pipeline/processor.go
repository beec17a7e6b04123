// Package pipeline turns one dropped PDF into one ledger row.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/offers-tracker/constants"
	"github.com/joseph-ayodele/offers-tracker/internal/common"
	"github.com/joseph-ayodele/offers-tracker/internal/extract"
	"github.com/joseph-ayodele/offers-tracker/internal/ingest"
	"github.com/joseph-ayodele/offers-tracker/internal/insurer"
	"github.com/joseph-ayodele/offers-tracker/internal/ledger"
	"github.com/joseph-ayodele/offers-tracker/internal/record"
	"github.com/joseph-ayodele/offers-tracker/internal/repository"
)

// Mover routes a finished document out of the watch folder.
type Mover interface {
	MoveToDone(path string) (string, error)
	MoveToError(path string) (string, error)
}

// Journal stores one entry per processed document.
type Journal interface {
	Insert(ctx context.Context, e repository.Entry) error
}

// Metrics receives per-document observations.
type Metrics interface {
	ObserveDocument(insurer, status string, start time.Time)
	IncrementApproximate(insurer, field string)
	IncrementLedgerRows()
}

// Outcome describes what happened to one document.
type Outcome struct {
	DocumentID  uuid.UUID
	Path        string
	FileName    string
	SHA256      string
	Insurer     insurer.Insurer
	Status      constants.DocumentStatus
	Method      string
	Record      record.Record
	Approximate []record.Field
	MovedTo     string
	Err         error
	Duration    time.Duration

	extracted bool
}

// Processor coordinates text extraction, field extraction, the ledger and the file move.
type Processor struct {
	logger  *slog.Logger
	text    extract.TextExtractor
	fields  extract.FieldExtractor
	sink    ledger.Ledger
	mover   Mover
	journal Journal
	metrics Metrics
	policy  constants.UnsupportedPolicy
}

type Option func(*Processor)

func WithJournal(j Journal) Option {
	return func(p *Processor) { p.journal = j }
}

func WithMetrics(m Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithUnsupportedPolicy decides whether unsupported documents stay in place
// (the default) or go to the error folder.
func WithUnsupportedPolicy(policy constants.UnsupportedPolicy) Option {
	return func(p *Processor) {
		if policy != "" {
			p.policy = policy
		}
	}
}

func NewProcessor(
	logger *slog.Logger,
	text extract.TextExtractor,
	fields extract.FieldExtractor,
	sink ledger.Ledger,
	mover Mover,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger: logger,
		text:   text,
		fields: fields,
		sink:   sink,
		mover:  mover,
		policy: constants.UnsupportedLeave,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessFile runs one document end to end. A document that is gone or
// unsupported is SKIPPED with a nil error. Any other failure routes the file
// to the error folder and is returned.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Outcome, error) {
	start := time.Now()
	out := Outcome{
		DocumentID: uuid.New(),
		Path:       path,
		FileName:   filepath.Base(path),
		Insurer:    insurer.Unsupported,
	}
	ctx = common.WithDocumentID(ctx, out.DocumentID)
	log := p.logger.With("document_id", out.DocumentID, "file", out.FileName)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		log.Debug("pipeline.document.gone")
		out.Status = constants.StatusSkipped
		return out, nil
	}
	if err != nil {
		return p.fail(ctx, log, out, start, fmt.Errorf("stat: %w", err))
	}

	sum, _, err := ingest.HashFile(path)
	if err != nil {
		return p.fail(ctx, log, out, start, err)
	}
	out.SHA256 = sum

	if err := sniffPDF(path); err != nil {
		return p.fail(ctx, log, out, start, err)
	}

	text, err := p.runText(ctx, log, &out)
	if err != nil {
		return p.fail(ctx, log, out, start, fmt.Errorf("extract text: %w", err))
	}
	if strings.TrimSpace(text) == "" {
		return p.skip(ctx, log, out, start, common.ErrEmptyText)
	}

	if err := p.runFields(ctx, log, &out, text); err != nil {
		if errors.Is(err, insurer.ErrUnsupported) {
			return p.skip(ctx, log, out, start, err)
		}
		return p.fail(ctx, log, out, start, err)
	}

	if err := p.sink.Append(ctx, out.Record); err != nil {
		return p.fail(ctx, log, out, start, fmt.Errorf("append to ledger: %w", err))
	}
	if p.metrics != nil {
		p.metrics.IncrementLedgerRows()
	}

	out.Status = constants.StatusProcessed
	dest, err := p.mover.MoveToDone(path)
	if err != nil {
		// The row is already in the ledger; leave the file where it is.
		out.Err = fmt.Errorf("move to done: %w", err)
		log.Error("pipeline.move.failed", "err", err)
		p.finish(ctx, log, &out, start)
		return out, out.Err
	}
	out.MovedTo = dest
	p.finish(ctx, log, &out, start)

	log.Info("pipeline.document.ok",
		"insurer", out.Insurer.String(),
		"method", out.Method,
		"moved_to", dest,
		"elapsed_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

// runText is stage 1: PDF to text.
func (p *Processor) runText(ctx context.Context, log *slog.Logger, out *Outcome) (string, error) {
	res, err := p.text.Extract(ctx, out.Path)
	if err != nil {
		return "", err
	}
	out.Method = res.Method
	for _, w := range res.Warnings {
		log.Warn("pipeline.text.warning", "warning", w)
	}
	log.Debug("pipeline.text.ok",
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
	)
	return res.Text, nil
}

// runFields is stage 2: text to a validated record.
func (p *Processor) runFields(ctx context.Context, log *slog.Logger, out *Outcome, text string) error {
	res, err := p.fields.ExtractFields(ctx, text, out.FileName)
	out.Insurer = res.Insurer
	if err != nil {
		if errors.Is(err, insurer.ErrUnsupported) {
			return err
		}
		return fmt.Errorf("extract fields: %w", err)
	}
	out.Record = res.Record
	out.Approximate = res.Approximate
	out.extracted = true

	for _, f := range res.Approximate {
		log.Warn("pipeline.field.approximate",
			"insurer", res.Insurer.String(),
			"field", f.Header(),
			"value", res.Record.Get(f),
		)
		if p.metrics != nil {
			p.metrics.IncrementApproximate(res.Insurer.String(), f.Header())
		}
	}

	if err := record.Validate(res.Record); err != nil {
		return common.NewAppError(common.CodeRecord, "record failed schema check", err)
	}
	log.Debug("pipeline.fields.ok", "insurer", res.Insurer.String())
	return nil
}

// skip handles an unsupported or empty document according to the policy.
func (p *Processor) skip(ctx context.Context, log *slog.Logger, out Outcome, start time.Time, reason error) (Outcome, error) {
	out.Status = constants.StatusSkipped
	out.Err = reason
	if p.policy == constants.UnsupportedError {
		dest, err := p.mover.MoveToError(out.Path)
		if err != nil {
			log.Error("pipeline.move.failed", "err", err)
		}
		out.MovedTo = dest
	}
	p.finish(ctx, log, &out, start)
	log.Info("pipeline.document.skipped",
		"reason", reason.Error(),
		"policy", string(p.policy),
		"moved_to", out.MovedTo,
	)
	return out, nil
}

// fail routes the document to the error folder. An interrupted run leaves
// the file in place so it is picked up again on the next start.
func (p *Processor) fail(ctx context.Context, log *slog.Logger, out Outcome, start time.Time, cause error) (Outcome, error) {
	out.Status = constants.StatusFailed
	out.Err = cause
	if errors.Is(cause, context.Canceled) {
		log.Warn("pipeline.document.interrupted", "err", cause)
		return out, cause
	}

	dest, err := p.mover.MoveToError(out.Path)
	if err != nil {
		log.Error("pipeline.move.failed", "err", err)
	}
	out.MovedTo = dest
	p.finish(context.WithoutCancel(ctx), log, &out, start)
	log.Error("pipeline.document.failed",
		"insurer", out.Insurer.String(),
		"moved_to", dest,
		"err", cause,
	)
	return out, cause
}

// finish journals the outcome and records metrics. Journal errors are logged only.
func (p *Processor) finish(ctx context.Context, log *slog.Logger, out *Outcome, start time.Time) {
	out.Duration = time.Since(start)
	if p.metrics != nil {
		p.metrics.ObserveDocument(out.Insurer.String(), string(out.Status), start)
	}
	if p.journal == nil {
		return
	}

	entry := repository.Entry{
		ID:          out.DocumentID,
		FileName:    out.FileName,
		SHA256:      out.SHA256,
		Insurer:     out.Insurer.String(),
		Status:      string(out.Status),
		Method:      out.Method,
		MovedTo:     out.MovedTo,
		ProcessedAt: time.Now(),
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
	}
	if out.extracted {
		if b, err := json.Marshal(out.Record); err == nil {
			entry.RecordJSON = string(b)
		}
	}
	if err := p.journal.Insert(ctx, entry); err != nil {
		log.Error("pipeline.journal.failed", "err", err)
	}
}

// sniffPDF checks the file content, not its name.
func sniffPDF(path string) error {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect content type: %w", err)
	}
	if !mt.Is(constants.PDFMime) {
		return fmt.Errorf("%w: detected %s", common.ErrNotPDF, mt.String())
	}
	return nil
}
