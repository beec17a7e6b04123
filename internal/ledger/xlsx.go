package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

// XLSX is an Excel ledger. Existing cells are kept untouched: only the header
// row is extended and one row is added below the last used one.
type XLSX struct {
	mu     sync.Mutex
	path   string
	sheet  string
	logger *slog.Logger
}

func NewXLSX(path, sheet string, logger *slog.Logger) *XLSX {
	if logger == nil {
		logger = slog.Default()
	}
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &XLSX{path: path, sheet: sheet, logger: logger}
}

func (x *XLSX) Path() string { return x.path }

func (x *XLSX) Append(ctx context.Context, rec record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	start := time.Now()

	f, sheet, created, err := x.open()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	t := &table{}
	if len(rows) > 0 {
		t.header = rows[0]
		// Only the row count matters: existing data rows are not rewritten.
		t.rows = make([][]string, len(rows)-1)
	}
	t.appendRecord(rec)

	for i, h := range t.header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	rowNum := len(t.rows) + 1
	last := t.rows[len(t.rows)-1]
	for i, v := range last {
		if v == "" {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
		if err := f.SetCellStr(sheet, cell, v); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if created {
		styleNew(f, sheet, len(t.header))
	}

	err = writeAtomic(x.path, func(w io.Writer) error {
		if _, err := f.WriteTo(w); err != nil {
			return fmt.Errorf("xlsx write: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	x.logger.Info("ledger.xlsx.append.ok",
		"path", x.path,
		"sheet", sheet,
		"row", rowNum,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// open loads the workbook and picks the sheet to append to. A new workbook
// gets x.sheet as its only sheet. An existing one uses x.sheet when present,
// else its first sheet, so ledgers saved under "Sheet1" keep growing.
func (x *XLSX) open() (*excelize.File, string, bool, error) {
	ok, err := exists(x.path)
	if err != nil {
		return nil, "", false, err
	}
	if !ok {
		f := excelize.NewFile()
		if err := f.SetSheetName("Sheet1", x.sheet); err != nil {
			_ = f.Close()
			return nil, "", false, fmt.Errorf("name sheet: %w", err)
		}
		return f, x.sheet, true, nil
	}

	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, "", false, fmt.Errorf("open ledger: %w", err)
	}
	if index, _ := f.GetSheetIndex(x.sheet); index != -1 {
		return f, x.sheet, false, nil
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, "", false, fmt.Errorf("open ledger: %s has no sheets", x.path)
	}
	x.logger.Warn("ledger.xlsx.sheet.fallback",
		"path", x.path,
		"configured", x.sheet,
		"using", sheets[0],
	)
	return f, sheets[0], false, nil
}

// styleNew widens the columns and freezes the header of a fresh ledger.
func styleNew(f *excelize.File, sheet string, cols int) {
	last, _ := excelize.ColumnNumberToName(cols)
	_ = f.SetColWidth(sheet, "A", last, 18)
	_ = f.SetColWidth(sheet, "A", "A", 24) // name
	_ = f.SetColWidth(sheet, "D", "D", 36) // address
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
