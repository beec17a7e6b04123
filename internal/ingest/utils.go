package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/offers-tracker/constants"
)

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

func defaultExts() map[string]struct{} {
	out := make(map[string]struct{}, len(constants.AllowedExtensions))
	for k := range constants.AllowedExtensions {
		out[k] = struct{}{}
	}
	return out
}
