package digest

import (
	"regexp"
	"strings"
)

const (
	titlePrefix     = "# Backup digest "
	scoresHeader    = "## New scores"
	playTimeHeader  = "## Play time"
	addedHeader     = "## Songs added"
	removedHeader   = "## Songs removed"
	changedHeader   = "## Changed files"
	dateLayout      = "2006-01-02"
)

// Render produces the digest file content for one run.
func (d *Digest) Render() string {
	r := &Rendered{
		Date:  d.Date.Format(dateLayout),
		Packs: d.Packs,
	}
	for _, s := range d.Scores {
		r.ScoreLines = append(r.ScoreLines, s.Sentence())
	}
	for _, p := range d.PlayTimes {
		r.PlayLines = append(r.PlayLines, p.Sentence())
	}
	for _, n := range d.Notes {
		r.NoteLines = append(r.NoteLines, n.Line())
	}
	return r.Render()
}

// Rendered is the parseable model of a digest file. Score, play-time and
// changed-file lines are kept verbatim so that reprocessing never rewrites
// what it does not understand; the pack sections are fully structured.
type Rendered struct {
	Date       string
	ScoreLines []string
	PlayLines  []string
	Packs      *PackChangeSet
	NoteLines  []string
}

// Render writes the digest back out. Pack sections are sorted, so rendering
// a parsed digest reproduces it byte for byte.
func (r *Rendered) Render() string {
	var sb strings.Builder
	sb.WriteString(titlePrefix + r.Date + "\n")

	writeLineSection(&sb, scoresHeader, r.ScoreLines)
	writeLineSection(&sb, playTimeHeader, r.PlayLines)
	writePackSection(&sb, addedHeader, r.Packs.Added)
	writePackSection(&sb, removedHeader, r.Packs.Removed)
	writeLineSection(&sb, changedHeader, r.NoteLines)

	return sb.String()
}

func writeLineSection(sb *strings.Builder, header string, lines []string) {
	if len(lines) == 0 {
		return
	}
	sb.WriteString("\n" + header + "\n\n")
	for _, line := range lines {
		sb.WriteString(line + "\n")
	}
}

func writePackSection(sb *strings.Builder, header string, m map[string]map[string]bool) {
	packs := Packs(m)
	if len(packs) == 0 {
		return
	}
	sb.WriteString("\n" + header + "\n\n")
	for _, pack := range packs {
		sb.WriteString("**" + pack + "**\n")
		for _, item := range Items(m, pack) {
			sb.WriteString("- " + item + "\n")
		}
	}
}

// ParseRendered reads a rendered digest back into its model. Unrecognized
// lines are dropped; an unparseable document yields an empty model, never an
// error.
func ParseRendered(text string) *Rendered {
	r := &Rendered{Packs: NewPackChangeSet()}
	section := ""
	currentPack := ""

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, titlePrefix):
			r.Date = strings.TrimSpace(strings.TrimPrefix(line, titlePrefix))
		case strings.HasPrefix(line, "## "):
			section = line
			currentPack = ""
		case strings.TrimSpace(line) == "":
			// blank separators
		case section == scoresHeader && strings.HasPrefix(line, "- "):
			r.ScoreLines = append(r.ScoreLines, line)
		case section == playTimeHeader && strings.HasPrefix(line, "- "):
			r.PlayLines = append(r.PlayLines, line)
		case section == changedHeader && strings.HasPrefix(line, "- "):
			r.NoteLines = append(r.NoteLines, line)
		case section == addedHeader || section == removedHeader:
			if name, ok := boldLabel(line, 0); ok {
				currentPack = name
				continue
			}
			if !strings.HasPrefix(line, "- ") || currentPack == "" {
				continue
			}
			item := strings.TrimPrefix(line, "- ")
			if section == addedHeader {
				r.Packs.Add(currentPack, item)
			} else {
				r.Packs.Remove(currentPack, item)
			}
		}
	}
	return r
}

// Merge folds another same-date digest into this one. Score and changed-file
// lines accumulate without exact duplicates, play-time deltas for the same
// player are summed, and pack changes union.
func (r *Rendered) Merge(other *Rendered) {
	r.ScoreLines = appendMissing(r.ScoreLines, other.ScoreLines)
	r.PlayLines = mergePlayLines(r.PlayLines, other.PlayLines)
	r.NoteLines = appendMissing(r.NoteLines, other.NoteLines)
	r.Packs.Merge(other.Packs)
}

func appendMissing(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, line := range dst {
		seen[line] = true
	}
	for _, line := range src {
		if !seen[line] {
			dst = append(dst, line)
			seen[line] = true
		}
	}
	return dst
}

// mergePlayLines sums per-player deltas across both line sets, preserving
// first-seen player order. Lines that do not parse as play-time sentences are
// carried through verbatim.
func mergePlayLines(dst, src []string) []string {
	totals := make(map[string]int64)
	var order, verbatim []string
	for _, line := range append(append([]string{}, dst...), src...) {
		m := playLineRe.FindStringSubmatch(line)
		if m == nil {
			verbatim = append(verbatim, line)
			continue
		}
		if _, ok := totals[m[1]]; !ok {
			order = append(order, m[1])
		}
		totals[m[1]] += ParseSeconds(m[2])
	}
	merged := make([]string, 0, len(order)+len(verbatim))
	for _, player := range order {
		merged = append(merged, PlayTimeDelta{Player: player, DeltaSeconds: totals[player]}.Sentence())
	}
	return append(merged, verbatim...)
}

var playLineRe = regexp.MustCompile(`^- (.+) played for (.+)$`)

// PlayTimes parses the play-time lines back into structured deltas.
func (r *Rendered) PlayTimes() []PlayTimeDelta {
	var deltas []PlayTimeDelta
	for _, line := range r.PlayLines {
		m := playLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		deltas = append(deltas, PlayTimeDelta{Player: m[1], DeltaSeconds: ParseSeconds(m[2])})
	}
	return deltas
}
