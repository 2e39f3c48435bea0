// Package ingest discovers report files on disk, either by walking a
// directory once or by watching it for new arrivals.
package ingest

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/joseph-ayodele/medreport/constants"
)

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Hidden  uint32
}

// Filter decides which paths are reports worth processing.
type Filter struct {
	// AllowedExts restricts matches further; empty accepts every known type.
	AllowedExts []string
	SkipHidden  bool
}

// Match reports whether path has a known report extension that is allowed.
func (f Filter) Match(path string) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if constants.MapExtToFormat(ext) == "" {
		return false
	}
	return len(f.AllowedExts) == 0 || slices.Contains(f.AllowedExts, ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
