package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/offers-tracker/internal/repository"
)

// Service produces XLSX bytes from the processing journal.
type Service struct {
	journal repository.JournalRepository
	logger  *slog.Logger
}

func NewService(journal repository.JournalRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{journal: journal, logger: logger}
}

// ExportJournalXLSX returns the most recent journal entries (newest first) as a workbook.
func (s *Service) ExportJournalXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	entries, err := s.journal.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	const sheet = "Journal"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{
		"Processed At",
		"File",
		"Insurer",
		"Status",
		"Method",
		"Moved To",
		"Error",
		"SHA-256",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, e := range entries {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, e.ProcessedAt.Local().Format("2006-01-02 15:04:05"))
		write(2, e.FileName)
		write(3, e.Insurer)
		write(4, e.Status)
		write(5, e.Method)
		write(6, e.MovedTo)
		write(7, truncate(e.Error, 140))
		write(8, e.SHA256)
	}

	_ = f.SetColWidth(sheet, "A", "A", 20) // timestamp
	_ = f.SetColWidth(sheet, "B", "B", 36) // file
	_ = f.SetColWidth(sheet, "C", "E", 14)
	_ = f.SetColWidth(sheet, "F", "F", 48) // moved to
	_ = f.SetColWidth(sheet, "G", "G", 60) // error
	_ = f.SetColWidth(sheet, "H", "H", 66) // hash

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
