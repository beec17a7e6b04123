// Package ledger appends extracted records to the persistent evidence table.
// The table is read, extended and written back whole; it assumes one writer.
package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

// DefaultSheet is the worksheet used for new XLSX ledgers.
const DefaultSheet = "Evidence"

type Ledger interface {
	// Append adds rec as the last row, creating the ledger when missing.
	Append(ctx context.Context, rec record.Record) error
	Path() string
}

// Open picks the ledger format from the file extension (.xlsx or .csv).
func Open(path, sheet string, logger *slog.Logger) (Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		if sheet == "" {
			sheet = DefaultSheet
		}
		return &XLSX{path: path, sheet: sheet, logger: logger}, nil
	case ".csv":
		return &CSV{path: path, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported ledger extension %q (want .xlsx or .csv)", filepath.Ext(path))
	}
}

// table is the in-memory ledger: a header plus rows aligned to it.
type table struct {
	header []string
	rows   [][]string
}

// appendRecord adds rec as the last row. Header columns the record does not
// know stay blank; schema columns missing from the header are appended to it
// and left blank for the existing rows.
func (t *table) appendRecord(rec record.Record) {
	index := make(map[string]int, len(t.header))
	for i, h := range t.header {
		index[h] = i
	}
	for _, col := range record.Columns() {
		if _, ok := index[col]; !ok {
			index[col] = len(t.header)
			t.header = append(t.header, col)
		}
	}
	for i, row := range t.rows {
		t.rows[i] = pad(row, len(t.header))
	}
	row := make([]string, len(t.header))
	for col, v := range rec.Map() {
		row[index[col]] = v
	}
	t.rows = append(t.rows, row)
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

// writeAtomic writes to a temp file next to path and renames it over path,
// so a crash mid-write never leaves a truncated ledger.
func writeAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// exists reports whether path holds a non-empty file.
func exists(path string) (bool, error) {
	st, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat ledger: %w", err)
	}
	return st.Size() > 0, nil
}
