// Package replicate mirrors a filtered source tree into a destination root.
package replicate

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"smbak/internal/common"
	"smbak/internal/filter"
)

// SkipRecord identifies a file that was dropped for exceeding the size
// ceiling, or that could not be copied. Directory-rule exclusions are silent
// and never produce a record.
type SkipRecord struct {
	Path string // path relative to the source root
	Size int64
}

// Replicator copies files from source roots into a destination, applying the
// directory and size filters.
type Replicator struct {
	ExcludeDirs []string
	MaxBytes    int64
	Log         common.Logger
}

// New creates a Replicator. A zero MaxBytes means the default ceiling.
func New(excludeDirs []string, maxBytes int64, log common.Logger) *Replicator {
	if maxBytes <= 0 {
		maxBytes = filter.MaxFileBytes
	}
	if log == nil {
		log = common.NewNopLogger()
	}
	return &Replicator{ExcludeDirs: excludeDirs, MaxBytes: maxBytes, Log: log}
}

// Replicate walks sourceRoot and copies surviving files under destRoot,
// recreating the relative directory structure and overwriting existing
// destination files. It returns the skip records and the number of files
// copied. Individual file failures are recorded and logged but do not abort
// the traversal; an inaccessible destination root does.
func (r *Replicator) Replicate(sourceRoot, destRoot string) (copied int, skipped []SkipRecord, err error) {
	if err := os.MkdirAll(destRoot, 0755); err != nil {
		return 0, nil, fmt.Errorf("creating destination root %s: %w", destRoot, err)
	}

	walkErr := filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A directory that vanished or turned unreadable mid-walk.
			r.Log.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(sourceRoot, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if rel != "." && filter.ExcludedByDirectory(rel, r.ExcludeDirs) {
				return fs.SkipDir
			}
			return nil
		}
		// Symlinks and other irregular entries are leaves: never followed,
		// never copied.
		if !d.Type().IsRegular() {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil // vanished between listing and stat
		}

		switch filter.DecideWithSize(rel, info.Size(), r.ExcludeDirs, r.MaxBytes) {
		case filter.ExcludeByDirectory:
			return nil
		case filter.ExcludeBySize:
			skipped = append(skipped, SkipRecord{Path: rel, Size: info.Size()})
			return nil
		}

		dest := filepath.Join(destRoot, rel)
		if copyErr := copyFile(path, dest); copyErr != nil {
			r.Log.Warn("file copy failed", "path", rel, "error", copyErr)
			skipped = append(skipped, SkipRecord{Path: rel, Size: info.Size()})
			return nil
		}
		copied++
		return nil
	})
	if walkErr != nil {
		return copied, skipped, fmt.Errorf("walking %s: %w", sourceRoot, walkErr)
	}
	return copied, skipped, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying content: %w", err)
	}
	return out.Close()
}
