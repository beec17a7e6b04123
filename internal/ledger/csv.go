package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV is a comma separated ledger written with a UTF-8 BOM so spreadsheet
// apps detect the Czech headers correctly.
type CSV struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

func NewCSV(path string, logger *slog.Logger) *CSV {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSV{path: path, logger: logger}
}

func (c *CSV) Path() string { return c.path }

func (c *CSV) Append(ctx context.Context, rec record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	start := time.Now()

	t, err := c.read()
	if err != nil {
		return err
	}
	t.appendRecord(rec)

	err = writeAtomic(c.path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		if _, err := bw.Write(utf8BOM); err != nil {
			return err
		}
		cw := csv.NewWriter(bw)
		if err := cw.Write(t.header); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		if err := cw.WriteAll(t.rows); err != nil {
			return fmt.Errorf("write csv rows: %w", err)
		}
		return bw.Flush()
	})
	if err != nil {
		return err
	}

	c.logger.Info("ledger.csv.append.ok",
		"path", c.path,
		"rows", len(t.rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (c *CSV) read() (*table, error) {
	ok, err := exists(c.path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &table{}, nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse ledger csv: %w", err)
	}
	if len(rows) == 0 {
		return &table{}, nil
	}
	return &table{header: rows[0], rows: rows[1:]}, nil
}
