package common_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/offers-tracker/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := common.Load("")
	require.NoError(t, err)

	assert.Equal(t, "./inbox", cfg.Watch.Dir)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.True(t, cfg.Watch.InitialScan)
	assert.Equal(t, "Evidence", cfg.Ledger.Sheet)
	assert.Equal(t, "leave", cfg.Folders.UnsupportedPolicy)
	assert.Equal(t, "ces", cfg.OCR.Lang)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 3*time.Minute, cfg.Queue.ProcessTimeout)
	assert.Equal(t, "sqlite", cfg.Journal.Driver)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OFFERS_LEDGER_PATH", "/data/evidence.csv")
	t.Setenv("OFFERS_FOLDERS_UNSUPPORTED_POLICY", "error")
	t.Setenv("OFFERS_JOURNAL_ENABLED", "false")
	t.Setenv("OFFERS_WATCH_DEBOUNCE", "250ms")

	cfg, err := common.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/evidence.csv", cfg.Ledger.Path)
	assert.Equal(t, "error", cfg.Folders.UnsupportedPolicy)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offers.yaml")
	body := "watch:\n  dir: /srv/offers/in\nocr:\n  engine: pdftotext\n  max_pages: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := common.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/offers/in", cfg.Watch.Dir)
	assert.Equal(t, "pdftotext", cfg.OCR.Engine)
	assert.Equal(t, 4, cfg.OCR.MaxPages)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := common.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeConfig))
}

func TestConfig_Validate(t *testing.T) {
	t.Run("bad_values", func(t *testing.T) {
		t.Setenv("OFFERS_LEDGER_PATH", "/data/evidence.ods")
		t.Setenv("OFFERS_FOLDERS_UNSUPPORTED_POLICY", "delete")

		_, err := common.Load("")
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.CodeConfig))
		assert.True(t, errors.Is(err, common.ErrInvalidInput))
		assert.Contains(t, err.Error(), "ledger.path")
		assert.Contains(t, err.Error(), "folders.unsupported_policy")
	})

	t.Run("journal_checked_only_when_enabled", func(t *testing.T) {
		cfg, err := common.Load("")
		require.NoError(t, err)
		cfg.Journal.DSN = ""
		assert.Error(t, cfg.Validate())
		cfg.Journal.Enabled = false
		assert.NoError(t, cfg.Validate())
	})
}

func TestDocumentIDContext(t *testing.T) {
	assert.Equal(t, uuid.Nil, common.DocumentIDFromContext(context.Background()))
	id := uuid.New()
	ctx := common.WithDocumentID(context.Background(), id)
	assert.Equal(t, id, common.DocumentIDFromContext(ctx))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := common.NewLogger(common.LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Equal(t, slog.LevelDebug, common.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, common.ParseLevel("bogus"))
}
