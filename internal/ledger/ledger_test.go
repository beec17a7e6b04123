package ledger_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/offers-tracker/internal/ledger"
	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

func sampleRecord(file, name string) record.Record {
	return record.NewBuilder(file).
		Set(record.Name, name).
		Set(record.Plate, "1AB2345").
		Set(record.Premium, "12345").
		Build()
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "\ufeff"), "missing BOM")
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\ufeff")))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestOpen(t *testing.T) {
	l, err := ledger.Open("evidence.xlsx", "", nil)
	require.NoError(t, err)
	assert.IsType(t, &ledger.XLSX{}, l)

	l, err = ledger.Open("EVIDENCE.CSV", "", nil)
	require.NoError(t, err)
	assert.IsType(t, &ledger.CSV{}, l)

	_, err = ledger.Open("evidence.ods", "", nil)
	assert.Error(t, err)
}

func TestCSV_CreateThenAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "evidence.csv")
	l := ledger.NewCSV(path, nil)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, sampleRecord("a.pdf", "Jan Novák")))
	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, record.Columns(), rows[0])
	assert.Equal(t, "Jan Novák", rows[1][record.Name])

	require.NoError(t, l.Append(ctx, sampleRecord("b.pdf", "Petr Svoboda")))
	rows = readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, "Jan Novák", rows[1][record.Name])
	assert.Equal(t, "Petr Svoboda", rows[2][record.Name])
	assert.Equal(t, "b.pdf", rows[2][record.SourceFile])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")
}

func TestCSV_AlignsToExistingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.csv")
	// An older ledger: fewer columns, a custom one and no BOM.
	old := "Poznámka,Jméno a příjmení,SPZ\nvolat zpět,Eva Malá,5AC1234\n"
	require.NoError(t, os.WriteFile(path, []byte(old), 0o644))

	l := ledger.NewCSV(path, nil)
	require.NoError(t, l.Append(context.Background(), sampleRecord("c.pdf", "Jan Novák")))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	header := rows[0]
	assert.Equal(t, []string{"Poznámka", "Jméno a příjmení", "SPZ"}, header[:3])
	assert.Len(t, header, 3+len(record.Columns())-2)

	// old row keeps its values, padded with blanks
	assert.Equal(t, []string{"volat zpět", "Eva Malá", "5AC1234"}, rows[1][:3])
	assert.Len(t, rows[1], len(header))
	assert.Empty(t, rows[1][len(header)-1])

	// new row: unknown column blank, schema values under their headers
	assert.Empty(t, rows[2][0])
	assert.Equal(t, "Jan Novák", rows[2][1])
	assert.Equal(t, "1AB2345", rows[2][2])
	assert.Equal(t, "c.pdf", rows[2][len(header)-1])
}

func TestXLSX_CreateThenAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.xlsx")
	l := ledger.NewXLSX(path, "", nil)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, sampleRecord("a.pdf", "Jan Novák")))
	require.NoError(t, l.Append(ctx, sampleRecord("b.pdf", "Petr Svoboda")))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ledger.DefaultSheet}, f.GetSheetList())
	rows, err := f.GetRows(ledger.DefaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, record.Columns(), rows[0])
	assert.Equal(t, "Jan Novák", rows[1][record.Name])
	assert.Equal(t, "Petr Svoboda", rows[2][record.Name])
	assert.Equal(t, "12345", rows[2][record.Premium])
	assert.Equal(t, "b.pdf", rows[2][record.SourceFile])
}

func TestXLSX_KeepsExistingRowsAndSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Evidence"))
	require.NoError(t, f.SetSheetRow("Evidence", "A1", &[]any{"Jméno a příjmení", "Rodné číslo"}))
	require.NoError(t, f.SetSheetRow("Evidence", "A2", &[]any{"Eva Malá", "7851011234"}))
	_, err := f.NewSheet("Poznámky")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Poznámky", "A1", "nemazat"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	l := ledger.NewXLSX(path, "Evidence", nil)
	require.NoError(t, l.Append(context.Background(), sampleRecord("d.pdf", "Jan Novák")))

	g, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer g.Close()

	rows, err := g.GetRows("Evidence")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, record.Columns(), rows[0])
	assert.Equal(t, []string{"Eva Malá", "7851011234"}, rows[1])
	assert.Equal(t, "Jan Novák", rows[2][0])

	note, err := g.GetCellValue("Poznámky", "A1")
	require.NoError(t, err)
	assert.Equal(t, "nemazat", note)
}

func TestXLSX_FallsBackToFirstSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Jméno a příjmení", "Rodné číslo"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Eva Malá", "7851011234"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	l, err := ledger.Open(path, "Evidence", nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(context.Background(), sampleRecord("e.pdf", "Jan Novák")))

	g, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, []string{"Sheet1"}, g.GetSheetList())
	rows, err := g.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Eva Malá", "7851011234"}, rows[1])
	assert.Equal(t, "Jan Novák", rows[2][record.Name])
	assert.Equal(t, "e.pdf", rows[2][record.SourceFile])
}

func TestAppend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "evidence.csv")
	err := ledger.NewCSV(path, nil).Append(ctx, sampleRecord("a.pdf", "x"))
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
