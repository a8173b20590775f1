package digest

import (
	"sort"
	"strings"

	"smbak/internal/manifest"
)

// PackChangeSet maps pack names to the song items added or removed under
// them, as derived from the manifest diff.
type PackChangeSet struct {
	Added   map[string]map[string]bool
	Removed map[string]map[string]bool
}

func NewPackChangeSet() *PackChangeSet {
	return &PackChangeSet{
		Added:   make(map[string]map[string]bool),
		Removed: make(map[string]map[string]bool),
	}
}

func (c *PackChangeSet) Add(pack, item string) {
	addTo(c.Added, pack, item)
}

func (c *PackChangeSet) Remove(pack, item string) {
	addTo(c.Removed, pack, item)
}

func addTo(m map[string]map[string]bool, pack, item string) {
	if m[pack] == nil {
		m[pack] = make(map[string]bool)
	}
	if item != "" {
		m[pack][item] = true
	}
}

// Empty reports whether no packs changed in either direction.
func (c *PackChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Merge unions another change set into this one. Merging is commutative over
// run order: the result does not depend on which set came first.
func (c *PackChangeSet) Merge(other *PackChangeSet) {
	for pack, items := range other.Added {
		for item := range items {
			c.Add(pack, item)
		}
		if len(items) == 0 {
			addTo(c.Added, pack, "")
		}
	}
	for pack, items := range other.Removed {
		for item := range items {
			c.Remove(pack, item)
		}
		if len(items) == 0 {
			addTo(c.Removed, pack, "")
		}
	}
}

// Net returns the aggregated view: an item present in both the added and
// removed sets of the same pack cancels out and is dropped from both.
func (c *PackChangeSet) Net() *PackChangeSet {
	net := NewPackChangeSet()
	for pack, items := range c.Added {
		for item := range items {
			if !c.Removed[pack][item] {
				net.Add(pack, item)
			}
		}
	}
	for pack, items := range c.Removed {
		for item := range items {
			if !c.Added[pack][item] {
				net.Remove(pack, item)
			}
		}
	}
	return net
}

// Packs returns the sorted pack names of one polarity map.
func Packs(m map[string]map[string]bool) []string {
	names := make([]string, 0, len(m))
	for name, items := range m {
		if len(items) == 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Items returns the sorted items of one pack.
func Items(m map[string]map[string]bool, pack string) []string {
	items := make([]string, 0, len(m[pack]))
	for item := range m[pack] {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// ExtractPackChanges walks a manifest diff's added and removed lines,
// tracking the most recently seen top-level pack label per polarity and
// attributing nested item lines to it. Structural lines (headers, the
// timestamp line, placeholders) are ignored.
func ExtractPackChanges(diffText string) *PackChangeSet {
	set := NewPackChangeSet()
	var addPack, removePack string

	for _, raw := range strings.Split(diffText, "\n") {
		if line, ok := addedLine(raw); ok {
			handleManifestLine(line, &addPack, func(pack, item string) { set.Add(pack, item) })
			continue
		}
		if line, ok := removedLine(raw); ok {
			handleManifestLine(line, &removePack, func(pack, item string) { set.Remove(pack, item) })
		}
	}
	return set
}

// handleManifestLine classifies one polarity-stripped manifest line.
// Top-level bold labels are packs; depth-one bold labels are song items
// under the current pack. Files and deeper levels carry no pack semantics.
func handleManifestLine(line string, currentPack *string, record func(pack, item string)) {
	if isStructuralLine(line) {
		return
	}
	if name, ok := boldLabel(line, 0); ok {
		*currentPack = name
		record(name, "")
		return
	}
	if name, ok := boldLabel(line, 1); ok && *currentPack != "" {
		record(*currentPack, name)
	}
}

func isStructuralLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed == manifest.NotPresent {
		return true
	}
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	return strings.HasPrefix(trimmed, manifest.GeneratedPrefix)
}

// boldLabel extracts the name of a "**name**" line at the given depth
// (two spaces of indent per level).
func boldLabel(line string, depth int) (string, bool) {
	indent := strings.Repeat("  ", depth)
	if !strings.HasPrefix(line, indent) {
		return "", false
	}
	rest := line[len(indent):]
	if strings.HasPrefix(rest, " ") {
		return "", false
	}
	if !strings.HasPrefix(rest, "**") || !strings.HasSuffix(rest, "**") || len(rest) <= 4 {
		return "", false
	}
	return rest[2 : len(rest)-2], true
}

// TimestampOnly reports whether a manifest diff's only content changes are
// its "Generated on" timestamp lines. Such a diff means no real manifest
// change and is suppressed entirely. The comparison is textual; a future
// manifest format change would need this heuristic revisited.
func TimestampOnly(diffText string) bool {
	changes := 0
	for _, raw := range strings.Split(diffText, "\n") {
		line, ok := addedLine(raw)
		if !ok {
			line, ok = removedLine(raw)
		}
		if !ok {
			continue
		}
		changes++
		if !strings.HasPrefix(strings.TrimSpace(line), manifest.GeneratedPrefix) {
			return false
		}
	}
	return changes > 0
}
