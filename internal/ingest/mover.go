package ingest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Mover relocates processed documents into the done or error folder.
type Mover struct {
	DoneDir  string
	ErrorDir string
	logger   *slog.Logger
}

func NewMover(doneDir, errorDir string, logger *slog.Logger) *Mover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mover{DoneDir: doneDir, ErrorDir: errorDir, logger: logger}
}

// EnsureDirs creates both target folders.
func (m *Mover) EnsureDirs() error {
	for _, d := range []string{m.DoneDir, m.ErrorDir} {
		if d == "" {
			return errors.New("mover: target folder not configured")
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

func (m *Mover) MoveToDone(path string) (string, error) { return m.move(path, m.DoneDir) }

func (m *Mover) MoveToError(path string) (string, error) { return m.move(path, m.ErrorDir) }

// move never overwrites: a clash gets a " (n)" suffix before the extension.
func (m *Mover) move(path, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	dest, err := uniqueDest(dir, filepath.Base(path))
	if err != nil {
		return "", err
	}
	if err := os.Rename(path, dest); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return "", fmt.Errorf("move %s: %w", filepath.Base(path), err)
		}
		if err := copyThenRemove(path, dest); err != nil {
			return "", err
		}
	}
	m.logger.Info("ingest.move.ok", "from", path, "to", dest)
	return dest, nil
}

func uniqueDest(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for n := 1; n < 10000; n++ {
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, stem+" ("+strconv.Itoa(n)+")"+ext)
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

// copyThenRemove moves across filesystems, where rename is not possible.
func copyThenRemove(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("close: %w", err)
	}
	_ = in.Close()
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}
	return nil
}
