package digest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Repair re-derives the structured add/remove sets from previously rendered
// digest files and regroups items under corrected pack labels using the
// given item-to-pack lookup. Items absent from the lookup keep their current
// pack. Repair is idempotent: applying it to already-correct files rewrites
// nothing.
func Repair(dir string, lookup map[string]string) (changed []string, err error) {
	w := NewWindow(dir)
	files, err := w.Files()
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return changed, fmt.Errorf("reading digest %s: %w", path, readErr)
		}

		r := ParseRendered(string(data))
		r.Packs = regroup(r.Packs, lookup)

		rendered := r.Render()
		if rendered == string(data) {
			continue
		}
		if writeErr := os.WriteFile(path, []byte(rendered), 0644); writeErr != nil {
			return changed, fmt.Errorf("rewriting digest %s: %w", path, writeErr)
		}
		changed = append(changed, path)
	}
	return changed, nil
}

func regroup(set *PackChangeSet, lookup map[string]string) *PackChangeSet {
	out := NewPackChangeSet()
	for pack, items := range set.Added {
		for item := range items {
			out.Add(resolvePack(lookup, pack, item), item)
		}
	}
	for pack, items := range set.Removed {
		for item := range items {
			out.Remove(resolvePack(lookup, pack, item), item)
		}
	}
	return out
}

func resolvePack(lookup map[string]string, current, item string) string {
	if corrected, ok := lookup[item]; ok {
		return corrected
	}
	return current
}

// BuildLookup derives an authoritative item-to-pack mapping from the song
// library roots on disk: each pack directory's immediate subdirectories are
// its items. Later roots never override earlier ones.
func BuildLookup(roots ...string) map[string]string {
	lookup := make(map[string]string)
	for _, root := range roots {
		packs, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		sort.Slice(packs, func(i, j int) bool { return packs[i].Name() < packs[j].Name() })
		for _, pack := range packs {
			if !pack.IsDir() || strings.HasPrefix(pack.Name(), ".") {
				continue
			}
			items, err := os.ReadDir(filepath.Join(root, pack.Name()))
			if err != nil {
				continue
			}
			for _, item := range items {
				if !item.IsDir() {
					continue
				}
				if _, seen := lookup[item.Name()]; !seen {
					lookup[item.Name()] = pack.Name()
				}
			}
		}
	}
	return lookup
}
