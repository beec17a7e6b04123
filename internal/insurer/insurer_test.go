package insurer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/offers-tracker/internal/insurer"
	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func TestExtractDocument_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   \n\t\n"} {
		rec, ins, err := insurer.ExtractDocument(text, "x.pdf")
		assert.ErrorIs(t, err, insurer.ErrUnsupported)
		assert.Equal(t, insurer.Unsupported, ins)
		assert.Equal(t, record.Record{}, rec)
	}
}

func TestExtractDocument_UnknownInsurer(t *testing.T) {
	_, ins, err := insurer.ExtractDocument("Pojistná smlouva ČSOB Pojišťovna", "x.pdf")
	assert.ErrorIs(t, err, insurer.ErrUnsupported)
	assert.Equal(t, insurer.Unsupported, ins)
}

func TestExtractDocument_FullSchema(t *testing.T) {
	for _, name := range []string{"allianz.txt", "kooperativa.txt", "generali.txt"} {
		t.Run(name, func(t *testing.T) {
			rec, _, err := insurer.ExtractDocument(fixture(t, name), "offer.pdf")
			require.NoError(t, err)
			m := rec.Map()
			assert.Len(t, m, len(record.Columns()))
			for _, col := range record.Columns() {
				_, ok := m[col]
				assert.True(t, ok, col)
			}
			assert.Equal(t, "offer.pdf", rec.Get(record.SourceFile))
			assert.NoError(t, record.Validate(rec))
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	for _, name := range []string{"allianz.txt", "kooperativa.txt", "generali.txt"} {
		text := fixture(t, name)
		first, ins, err := insurer.ExtractDocument(text, name)
		require.NoError(t, err)
		second, ins2, err := insurer.ExtractDocument(text, name)
		require.NoError(t, err)
		assert.Equal(t, ins, ins2)
		assert.Equal(t, first, second, name)
	}
}
