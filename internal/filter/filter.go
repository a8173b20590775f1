package filter

import (
	"os"
	"path/filepath"
	"strings"
)

// MaxFileBytes is the replication size ceiling. Files strictly larger than
// this are skipped and reported; files exactly at the ceiling are included.
const MaxFileBytes int64 = 100 * 1024 * 1024

// SongDirNames are the large-media category roots. They are excluded from
// replication unconditionally: configuration may add further exclusions but
// can never re-include these.
var SongDirNames = []string{"Songs", "AdditionalSongs"}

// Decision is the outcome of filtering a single file.
type Decision int

const (
	// Include means the file should be replicated.
	Include Decision = iota
	// ExcludeByDirectory means a path segment matched an excluded directory
	// name. Not reported.
	ExcludeByDirectory
	// ExcludeBySize means the file exceeds the size ceiling. Reported as a
	// skip record.
	ExcludeBySize
	// ExcludeVanished means the file disappeared between discovery and the
	// size check. Skipped silently.
	ExcludeVanished
)

func (d Decision) String() string {
	switch d {
	case Include:
		return "include"
	case ExcludeByDirectory:
		return "exclude-directory"
	case ExcludeBySize:
		return "exclude-size"
	case ExcludeVanished:
		return "exclude-vanished"
	default:
		return "unknown"
	}
}

// Decide filters a single file. relPath is the path relative to the source
// root; absPath is used only to stat the file when size is unknown.
// excludeDirs is the caller's exclusion list; the song directory names are
// always checked in addition to it.
func Decide(relPath, absPath string, excludeDirs []string, maxBytes int64) Decision {
	if ExcludedByDirectory(relPath, excludeDirs) {
		return ExcludeByDirectory
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		// Discovered but gone by the time we stat it. Not worth failing a run.
		return ExcludeVanished
	}
	return DecideWithSize(relPath, info.Size(), excludeDirs, maxBytes)
}

// DecideWithSize is Decide for callers that already hold the file size.
func DecideWithSize(relPath string, size int64, excludeDirs []string, maxBytes int64) Decision {
	if ExcludedByDirectory(relPath, excludeDirs) {
		return ExcludeByDirectory
	}
	if size > maxBytes {
		return ExcludeBySize
	}
	return Include
}

// ExcludedByDirectory reports whether any segment of relPath equals one of
// the excluded names or one of the song directory names. Matching is
// case-sensitive and applies at any depth, not just the first segment.
func ExcludedByDirectory(relPath string, excludeDirs []string) bool {
	normalized := filepath.ToSlash(relPath)
	for _, segment := range strings.Split(normalized, "/") {
		if segment == "" {
			continue
		}
		for _, name := range SongDirNames {
			if segment == name {
				return true
			}
		}
		for _, name := range excludeDirs {
			if name != "" && segment == name {
				return true
			}
		}
	}
	return false
}
