package digest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirName is the digest collection's directory inside the staging tree.
const DirName = "digests"

// DefaultWindowSize caps the rolling digest window.
const DefaultWindowSize = 30

// Window is the rolling collection of dated digest files.
type Window struct {
	Dir  string
	Size int
}

func NewWindow(dir string) *Window {
	return &Window{Dir: dir, Size: DefaultWindowSize}
}

// Write renders d into its dated file, creating the collection directory as
// needed. When a digest for the same date already exists, the new run's
// events are merged into it so earlier runs of the day are kept.
func (w *Window) Write(d *Digest) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating digest directory: %w", err)
	}
	path := filepath.Join(w.Dir, d.Date.Format(dateLayout)+".md")
	content := d.Render()
	if data, err := os.ReadFile(path); err == nil {
		merged := ParseRendered(string(data))
		merged.Merge(ParseRendered(content))
		merged.Date = d.Date.Format(dateLayout)
		content = merged.Render()
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing digest: %w", err)
	}
	return path, nil
}

// Files returns the digest file paths sorted oldest first. Dated names sort
// chronologically.
func (w *Window) Files() ([]string, error) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading digest directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		files = append(files, filepath.Join(w.Dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Prune deletes digests beyond the window cap, oldest first, and returns
// the removed paths so their deletion can be staged in the same commit.
func (w *Window) Prune() ([]string, error) {
	files, err := w.Files()
	if err != nil {
		return nil, err
	}
	if len(files) <= w.Size {
		return nil, nil
	}
	excess := files[:len(files)-w.Size]
	for _, path := range excess {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("pruning digest %s: %w", path, err)
		}
	}
	return excess, nil
}

// Entries parses every digest in the window, oldest first. Unreadable files
// are skipped: a partially written digest must not poison the aggregate.
func (w *Window) Entries() ([]*Rendered, error) {
	files, err := w.Files()
	if err != nil {
		return nil, err
	}
	var entries []*Rendered
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		entries = append(entries, ParseRendered(string(data)))
	}
	return entries, nil
}
