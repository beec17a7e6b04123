package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/offers-tracker/internal/common"
)

// timeLayout is fixed-width so processed_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const journalSchema = `
CREATE TABLE IF NOT EXISTS processing_journal (
	id           TEXT PRIMARY KEY,
	file_name    TEXT NOT NULL,
	sha256       TEXT NOT NULL DEFAULT '',
	insurer      TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	method       TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	moved_to     TEXT NOT NULL DEFAULT '',
	record_json  TEXT NOT NULL DEFAULT '',
	processed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS processing_journal_processed_at ON processing_journal (processed_at);
CREATE INDEX IF NOT EXISTS processing_journal_sha256 ON processing_journal (sha256);
`

// Entry is one journaled processing outcome.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	SHA256      string    `json:"sha256"`
	Insurer     string    `json:"insurer"`
	Status      string    `json:"status"`
	Method      string    `json:"method,omitempty"`
	Error       string    `json:"error,omitempty"`
	MovedTo     string    `json:"moved_to,omitempty"`
	RecordJSON  string    `json:"record,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

type entryRow struct {
	ID          string `db:"id"`
	FileName    string `db:"file_name"`
	SHA256      string `db:"sha256"`
	Insurer     string `db:"insurer"`
	Status      string `db:"status"`
	Method      string `db:"method"`
	Error       string `db:"error"`
	MovedTo     string `db:"moved_to"`
	RecordJSON  string `db:"record_json"`
	ProcessedAt string `db:"processed_at"`
}

func toRow(e Entry) entryRow {
	return entryRow{
		ID:          e.ID.String(),
		FileName:    e.FileName,
		SHA256:      e.SHA256,
		Insurer:     e.Insurer,
		Status:      e.Status,
		Method:      e.Method,
		Error:       e.Error,
		MovedTo:     e.MovedTo,
		RecordJSON:  e.RecordJSON,
		ProcessedAt: e.ProcessedAt.UTC().Format(timeLayout),
	}
}

func (r entryRow) entry() (Entry, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("parse id %q: %w", r.ID, err)
	}
	at, err := time.Parse(timeLayout, r.ProcessedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse processed_at %q: %w", r.ProcessedAt, err)
	}
	return Entry{
		ID:          id,
		FileName:    r.FileName,
		SHA256:      r.SHA256,
		Insurer:     r.Insurer,
		Status:      r.Status,
		Method:      r.Method,
		Error:       r.Error,
		MovedTo:     r.MovedTo,
		RecordJSON:  r.RecordJSON,
		ProcessedAt: at,
	}, nil
}

// JournalRepository records every processing outcome.
type JournalRepository interface {
	Insert(ctx context.Context, e Entry) error
	Get(ctx context.Context, id uuid.UUID) (Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type journalRepo struct {
	db     *DB
	logger *slog.Logger
}

// NewJournalRepository creates the journal table when missing.
func NewJournalRepository(ctx context.Context, db *DB, logger *slog.Logger) (JournalRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := db.ExecContext(ctx, journalSchema); err != nil {
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &journalRepo{db: db, logger: logger}, nil
}

func (r *journalRepo) Insert(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO processing_journal
			(id, file_name, sha256, insurer, status, method, error, moved_to, record_json, processed_at)
		VALUES
			(:id, :file_name, :sha256, :insurer, :status, :method, :error, :moved_to, :record_json, :processed_at)`,
		toRow(e))
	if err != nil {
		r.logger.Error("journal.insert.failed", "document_id", e.ID, "err", err)
		return fmt.Errorf("insert journal entry: %w", err)
	}
	r.logger.Debug("journal.insert.ok", "document_id", e.ID, "status", e.Status)
	return nil
}

func (r *journalRepo) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	var row entryRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT * FROM processing_journal WHERE id = ?`), id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("journal entry %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get journal entry: %w", err)
	}
	return row.entry()
}

func (r *journalRepo) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []entryRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT * FROM processing_journal
		ORDER BY processed_at DESC, id DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *journalRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS n FROM processing_journal GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count journal entries: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
