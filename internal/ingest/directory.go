package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type DirStats struct {
	Scanned uint32
	Matched uint32
}

// ScanDirectory lists the matching files directly inside dir, sorted by
// name. Hidden files and sub-folders (the done/error folders may live
// there) are skipped.
func ScanDirectory(dir string, exts map[string]struct{}) ([]string, DirStats, error) {
	if exts == nil {
		exts = defaultExts()
	}
	var stats DirStats
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("read dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		stats.Scanned++
		if e.IsDir() || IsHidden(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !allowed(path, exts) {
			continue
		}
		stats.Matched++
		out = append(out, path)
	}
	sort.Strings(out)
	return out, stats, nil
}
