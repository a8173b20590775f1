// Package manifest renders a filenames-only listing of the song library.
// The listing gives the operator visibility into the excluded media category
// without ever backing up its content.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"smbak/internal/common"
)

// FileName is the manifest document's name inside the staging target subpath.
const FileName = "song-manifest.md"

// GeneratedPrefix starts the timestamp line. The diff-mining engine uses it
// to recognize timestamp-only manifest changes.
const GeneratedPrefix = "Generated on "

// NotPresent is rendered for a root that does not exist on disk.
const NotPresent = "*(not present)*"

// Builder renders the manifest document.
type Builder struct {
	Clock common.Clock
}

func New(clock common.Clock) *Builder {
	if clock == nil {
		clock = common.RealClock{}
	}
	return &Builder{Clock: clock}
}

// Build renders the manifest for the primary and additional song roots.
// The output is deterministic for a fixed tree: folders sort before files and
// each group is lexicographic, regardless of filesystem enumeration order.
func (b *Builder) Build(primaryRoot, additionalRoot string) (string, error) {
	var sb strings.Builder
	sb.WriteString("# Song Manifest\n\n")
	sb.WriteString(GeneratedPrefix + b.Clock.Now().Format("2006-01-02 15:04:05") + "\n")

	for _, section := range []struct {
		title string
		root  string
	}{
		{"Songs", primaryRoot},
		{"AdditionalSongs", additionalRoot},
	} {
		sb.WriteString("\n## " + section.title + "\n\n")
		if section.root == "" {
			sb.WriteString(NotPresent + "\n")
			continue
		}
		if _, err := os.Stat(section.root); err != nil {
			sb.WriteString(NotPresent + "\n")
			continue
		}
		if err := renderDir(&sb, section.root, 0); err != nil {
			return "", fmt.Errorf("listing %s: %w", section.root, err)
		}
	}

	return sb.String(), nil
}

// renderDir writes one directory level: folders first (bold, recursed into),
// then files, each group lexicographically sorted.
func renderDir(sb *strings.Builder, dir string, depth int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var folders, files []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		} else {
			files = append(files, e.Name())
		}
	}
	sort.Strings(folders)
	sort.Strings(files)

	indent := strings.Repeat("  ", depth)
	for _, name := range folders {
		fmt.Fprintf(sb, "%s**%s**\n", indent, name)
		if err := renderDir(sb, filepath.Join(dir, name), depth+1); err != nil {
			return err
		}
	}
	for _, name := range files {
		fmt.Fprintf(sb, "%s%s\n", indent, name)
	}
	return nil
}
