package digest

import (
	"path"
	"path/filepath"
	"strings"
)

// FileNote attaches a one-line human explanation to a changed path.
type FileNote struct {
	Path string
	Note string
}

func (n FileNote) Line() string { return "- " + n.Path + ": " + n.Note }

// narrationRule pairs a glob-like pattern with its explanation. Patterns
// without a '/' match against the basename; patterns with one match against
// the full slash-separated path. First match wins.
type narrationRule struct {
	pattern string
	note    string
}

var narrationRules = []narrationRule{
	{"Stats.xml", "play statistics updated"},
	{"*.ini", "settings changed"},
	{"song-manifest.md", "song list updated"},
	{"digests/*", "backup digest updated"},
	{"README.md", "summary regenerated"},
	{"skipped-files.txt", "skip report updated"},
	{".gitignore", "ignore rules updated"},
	{"*.lua", "theme script changed"},
	{"*/Save/*", "save data changed"},
	{"*.xml", "profile data updated"},
}

const genericNote = "file updated"

// Narrate attaches the first matching explanation to a changed path.
func Narrate(filePath string) FileNote {
	normalized := filepath.ToSlash(filePath)
	base := path.Base(normalized)

	for _, rule := range narrationRules {
		var matched bool
		var err error
		if strings.Contains(rule.pattern, "/") {
			matched, err = path.Match(rule.pattern, normalized)
		} else {
			matched, err = path.Match(rule.pattern, base)
		}
		if err != nil {
			continue
		}
		if matched {
			return FileNote{Path: filePath, Note: rule.note}
		}
	}
	return FileNote{Path: filePath, Note: genericNote}
}
