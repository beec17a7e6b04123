package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner answers pdftotext/pdftoppm/tesseract calls without the binaries.
type stubRunner struct {
	pdftotext string
	pages     int
	ocrText   string
	fail      map[string]error
	calls     []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, name)
	if err := s.fail[name]; err != nil {
		return nil, []byte(name + " failed"), err
	}
	switch name {
	case "pdftotext":
		return []byte(s.pdftotext), nil, nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= s.pages; i++ {
			p := prefix + "-" + string(rune('0'+i)) + ".png"
			if err := os.WriteFile(p, []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		return []byte(s.ocrText + "\n-----\n"), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func pdfPath(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "offer.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4\n"), 0o644))
	return p
}

func TestExtract_NativeTextLayer(t *testing.T) {
	r := &stubRunner{}
	e := NewExtractor(Config{}, nil, WithRunner(r), WithNativeReader(func(string) (string, int, error) {
		return "Allianz\tpojišťovna\r\nKlient (Vy):   \nJan Novák\f", 1, nil
	}))

	res, err := e.Extract(context.Background(), pdfPath(t))
	require.NoError(t, err)
	assert.Equal(t, "pdf-native", res.Method)
	assert.Equal(t, "Allianz pojišťovna\nKlient (Vy):\nJan Novák", res.Text)
	assert.Equal(t, 1, res.Pages)
	assert.Empty(t, r.calls)
}

func TestExtract_PdftotextEngine(t *testing.T) {
	r := &stubRunner{pdftotext: "strana 1\fstrana 2\f"}
	e := NewExtractor(Config{Engine: EnginePdftotext}, nil, WithRunner(r))

	res, err := e.Extract(context.Background(), pdfPath(t))
	require.NoError(t, err)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "strana 1\nstrana 2", res.Text)
}

func TestExtract_OCRFallbackOnEmptyText(t *testing.T) {
	r := &stubRunner{pages: 2, ocrText: "Kooperativa"}
	e := NewExtractor(Config{}, nil, WithRunner(r), WithNativeReader(func(string) (string, int, error) {
		return " \n\f", 2, nil
	}))

	res, err := e.Extract(context.Background(), pdfPath(t))
	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, "ces", res.Language)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "Kooperativa\n\nKooperativa", res.Text)
	assert.Equal(t, []string{"pdftoppm", "tesseract", "tesseract"}, r.calls)
}

func TestExtract_OCRFallbackOnNativeError(t *testing.T) {
	r := &stubRunner{pages: 1, ocrText: "Generali"}
	e := NewExtractor(Config{MaxPages: 1}, nil, WithRunner(r), WithNativeReader(func(string) (string, int, error) {
		return "", 0, errors.New("broken xref")
	}))

	res, err := e.Extract(context.Background(), pdfPath(t))
	require.NoError(t, err)
	assert.Equal(t, "Generali", res.Text)
	assert.Contains(t, res.Warnings, "broken xref")
}

func TestExtract_OCRFailure(t *testing.T) {
	r := &stubRunner{fail: map[string]error{"pdftoppm": errors.New("exit status 1")}}
	e := NewExtractor(Config{}, nil, WithRunner(r), WithNativeReader(func(string) (string, int, error) {
		return "", 0, nil
	}))

	_, err := e.Extract(context.Background(), pdfPath(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftoppm")
}

func TestExtract_RejectsNonPDFExtension(t *testing.T) {
	e := NewExtractor(Config{}, nil, WithRunner(&stubRunner{}))
	_, err := e.Extract(context.Background(), "scan.png")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	// "c" followed by a combining caron composes to one rune
	in := "Rodn\u00e9 c\u030c\u00edslo:  9055128899   \r\n\r\n\r\nDal\u0161\u00ed"
	out := Normalize(in)
	assert.Equal(t, "Rodn\u00e9 \u010d\u00edslo: 9055128899\n\n\nDal\u0161\u00ed", out)
	assert.False(t, strings.ContainsRune(out, '\u030c'))
	assert.Empty(t, Normalize(""))
}

func TestHeuristicConfidence(t *testing.T) {
	assert.Zero(t, heuristicConfidence("  "))
	low := heuristicConfidence("abc")
	high := heuristicConfidence("Počátek pojištění 1. 7. 2025, pojistné 12 345 Kč ročně")
	assert.Greater(t, high, low)
}
