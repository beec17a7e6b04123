package pipeline_test

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/offers-tracker/constants"
	"github.com/joseph-ayodele/offers-tracker/internal/common"
	"github.com/joseph-ayodele/offers-tracker/internal/extract"
	"github.com/joseph-ayodele/offers-tracker/internal/ingest"
	"github.com/joseph-ayodele/offers-tracker/internal/insurer"
	"github.com/joseph-ayodele/offers-tracker/internal/ledger"
	"github.com/joseph-ayodele/offers-tracker/internal/metrics"
	"github.com/joseph-ayodele/offers-tracker/internal/mocks"
	"github.com/joseph-ayodele/offers-tracker/internal/pipeline"
	"github.com/joseph-ayodele/offers-tracker/internal/record"
	"github.com/joseph-ayodele/offers-tracker/internal/repository"
)

const pdfHeader = "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n"

type env struct {
	inbox, done, failed string
	ledgerPath          string
	text                *mocks.MockTextExtractor
	journal             *mocks.MockJournalRepo
	metrics             *metrics.Metrics
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	e := &env{
		inbox:      filepath.Join(root, "inbox"),
		done:       filepath.Join(root, "done"),
		failed:     filepath.Join(root, "error"),
		ledgerPath: filepath.Join(root, "evidence.csv"),
		text:       new(mocks.MockTextExtractor),
		journal:    new(mocks.MockJournalRepo),
		metrics:    metrics.New(prometheus.NewRegistry()),
	}
	require.NoError(t, os.MkdirAll(e.inbox, 0o755))
	return e
}

func (e *env) processor(t *testing.T, sink ledger.Ledger, opts ...pipeline.Option) *pipeline.Processor {
	t.Helper()
	mover := ingest.NewMover(e.done, e.failed, nil)
	require.NoError(t, mover.EnsureDirs())
	opts = append([]pipeline.Option{pipeline.WithJournal(e.journal), pipeline.WithMetrics(e.metrics)}, opts...)
	return pipeline.NewProcessor(nil, e.text, extract.NewRulesExtractor(nil), sink, mover, opts...)
}

func (e *env) csvLedger(t *testing.T) ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(e.ledgerPath, "", nil)
	require.NoError(t, err)
	return l
}

func (e *env) drop(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(e.inbox, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (e *env) returnsText(path, text string) {
	e.text.On("Extract", mock.Anything, path).
		Return(extract.TextExtractionResult{Text: text, Pages: 1, Method: "pdf-native"}, nil)
}

func (e *env) expectJournal(status constants.DocumentStatus) {
	e.journal.On("Insert", mock.Anything, mock.MatchedBy(func(en repository.Entry) bool {
		return en.Status == string(status)
	})).Return(nil).Once()
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "insurer", "testdata", name))
	require.NoError(t, err)
	return string(b)
}

func readLedger(t *testing.T, path string) [][]string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(b), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestProcessFile_Processed(t *testing.T) {
	e := newEnv(t)
	path := e.drop(t, "nabidka.pdf", pdfHeader)
	e.returnsText(path, fixture(t, "allianz.txt"))
	e.journal.On("Insert", mock.Anything, mock.MatchedBy(func(en repository.Entry) bool {
		return en.Status == "PROCESSED" && en.Insurer == "allianz" &&
			strings.Contains(en.RecordJSON, "Jan Novák") && len(en.SHA256) == 64
	})).Return(nil).Once()

	out, err := e.processor(t, e.csvLedger(t)).ProcessFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, constants.StatusProcessed, out.Status)
	assert.Equal(t, insurer.Allianz, out.Insurer)
	assert.Equal(t, "Jan Novák", out.Record.Get(record.Name))
	assert.Equal(t, filepath.Join(e.done, "nabidka.pdf"), out.MovedTo)
	assert.NoFileExists(t, path)
	assert.FileExists(t, out.MovedTo)

	rows := readLedger(t, e.ledgerPath)
	require.Len(t, rows, 2)
	assert.Equal(t, record.Columns(), rows[0])
	assert.Equal(t, out.Record.Values(), rows[1])

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.Documents.WithLabelValues("allianz", "PROCESSED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.LedgerRows))
	e.journal.AssertExpectations(t)
}

func TestProcessFile_Unsupported(t *testing.T) {
	t.Run("leave_in_place", func(t *testing.T) {
		e := newEnv(t)
		path := e.drop(t, "csob.pdf", pdfHeader)
		e.returnsText(path, "ČSOB Pojišťovna\nNabídka pojištění vozidla")
		e.expectJournal(constants.StatusSkipped)
		sink := new(mocks.MockLedger)

		out, err := e.processor(t, sink).ProcessFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, constants.StatusSkipped, out.Status)
		assert.ErrorIs(t, out.Err, insurer.ErrUnsupported)
		assert.Empty(t, out.MovedTo)
		assert.FileExists(t, path)
		sink.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		e.journal.AssertExpectations(t)
	})

	t.Run("move_to_error", func(t *testing.T) {
		e := newEnv(t)
		path := e.drop(t, "csob.pdf", pdfHeader)
		e.returnsText(path, "ČSOB Pojišťovna")
		e.expectJournal(constants.StatusSkipped)
		sink := new(mocks.MockLedger)

		p := e.processor(t, sink, pipeline.WithUnsupportedPolicy(constants.UnsupportedError))
		out, err := p.ProcessFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, constants.StatusSkipped, out.Status)
		assert.Equal(t, filepath.Join(e.failed, "csob.pdf"), out.MovedTo)
		assert.NoFileExists(t, path)
		sink.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestProcessFile_EmptyTextIsSkipped(t *testing.T) {
	e := newEnv(t)
	path := e.drop(t, "scan.pdf", pdfHeader)
	e.returnsText(path, " \n \n")
	e.expectJournal(constants.StatusSkipped)

	out, err := e.processor(t, new(mocks.MockLedger)).ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSkipped, out.Status)
	assert.ErrorIs(t, out.Err, common.ErrEmptyText)
	assert.FileExists(t, path)
}

func TestProcessFile_NotAPDF(t *testing.T) {
	e := newEnv(t)
	path := e.drop(t, "renamed.pdf", "just some text, not a pdf\n")
	e.expectJournal(constants.StatusFailed)

	out, err := e.processor(t, new(mocks.MockLedger)).ProcessFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotPDF)
	assert.Equal(t, constants.StatusFailed, out.Status)
	assert.Equal(t, filepath.Join(e.failed, "renamed.pdf"), out.MovedTo)
	e.text.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestProcessFile_TextExtractionFails(t *testing.T) {
	e := newEnv(t)
	path := e.drop(t, "broken.pdf", pdfHeader)
	e.text.On("Extract", mock.Anything, path).
		Return(extract.TextExtractionResult{}, errors.New("pdftoppm: exit status 1"))
	e.expectJournal(constants.StatusFailed)

	out, err := e.processor(t, new(mocks.MockLedger)).ProcessFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract text")
	assert.Equal(t, constants.StatusFailed, out.Status)
	assert.FileExists(t, filepath.Join(e.failed, "broken.pdf"))
}

func TestProcessFile_LedgerFailure(t *testing.T) {
	e := newEnv(t)
	path := e.drop(t, "nabidka.pdf", pdfHeader)
	e.returnsText(path, fixture(t, "kooperativa.txt"))
	e.expectJournal(constants.StatusFailed)
	sink := new(mocks.MockLedger)
	sink.On("Append", mock.Anything, mock.Anything).Return(errors.New("evidence.xlsx is locked"))

	out, err := e.processor(t, sink).ProcessFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append to ledger")
	assert.Equal(t, insurer.Kooperativa, out.Insurer)
	assert.Equal(t, constants.StatusFailed, out.Status)
	assert.FileExists(t, filepath.Join(e.failed, "nabidka.pdf"))
	sink.AssertExpectations(t)
}

func TestProcessFile_JournalFailureIsNotFatal(t *testing.T) {
	e := newEnv(t)
	path := e.drop(t, "nabidka.pdf", pdfHeader)
	e.returnsText(path, fixture(t, "generali.txt"))
	e.journal.On("Insert", mock.Anything, mock.Anything).Return(errors.New("database is locked"))

	out, err := e.processor(t, e.csvLedger(t)).ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusProcessed, out.Status)
	assert.Equal(t, insurer.Generali, out.Insurer)
	assert.Equal(t, []record.Field{record.Comprehensive}, out.Approximate)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		e.metrics.ApproximateField.WithLabelValues("generali", record.Comprehensive.Header())))
}

func TestProcessFile_GoneIsSkipped(t *testing.T) {
	e := newEnv(t)
	out, err := e.processor(t, new(mocks.MockLedger)).ProcessFile(context.Background(), filepath.Join(e.inbox, "missing.pdf"))
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSkipped, out.Status)
	e.journal.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestProcessFile_InterruptedLeavesFile(t *testing.T) {
	e := newEnv(t)
	path := e.drop(t, "nabidka.pdf", pdfHeader)
	e.text.On("Extract", mock.Anything, path).Return(extract.TextExtractionResult{}, context.Canceled)

	out, err := e.processor(t, new(mocks.MockLedger)).ProcessFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.MovedTo)
	assert.FileExists(t, path)
	e.journal.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestProcessDirectory(t *testing.T) {
	e := newEnv(t)
	allianz := e.drop(t, "a_allianz.pdf", pdfHeader)
	other := e.drop(t, "b_other.pdf", pdfHeader)
	e.drop(t, "notes.txt", "ignored")
	e.returnsText(allianz, fixture(t, "allianz.txt"))
	e.returnsText(other, "Direct pojišťovna")
	e.journal.On("Insert", mock.Anything, mock.Anything).Return(nil)

	sum, err := e.processor(t, e.csvLedger(t)).ProcessDirectory(context.Background(), e.inbox)
	require.NoError(t, err)
	assert.EqualValues(t, 3, sum.Scanned)
	assert.EqualValues(t, 2, sum.Matched)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, sum.Failed)
	require.Len(t, sum.Outcomes, 2)
	assert.Equal(t, "a_allianz.pdf", sum.Outcomes[0].FileName)

	assert.Len(t, readLedger(t, e.ledgerPath), 2)
}
