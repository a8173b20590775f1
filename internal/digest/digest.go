// Package digest mines structured domain events out of the staged diff and
// renders them as per-run digests plus a rolling aggregated summary. Every
// sub-parser is tolerant: unmatched input yields an empty result, never an
// error.
package digest

import (
	"path"
	"path/filepath"
	"time"

	"smbak/internal/common"
	"smbak/internal/manifest"
)

// FileDiff is the unified diff text of one staged file.
type FileDiff struct {
	Path string
	Text string
}

// Digest holds the domain events observed in a single run's diff.
type Digest struct {
	Date      time.Time
	Scores    []ScoreEvent
	PlayTimes []PlayTimeDelta
	Packs     *PackChangeSet
	Notes     []FileNote
}

// Empty reports whether the digest carries no events and no narration.
func (d *Digest) Empty() bool {
	return len(d.Scores) == 0 && len(d.PlayTimes) == 0 && d.Packs.Empty() && len(d.Notes) == 0
}

// Engine runs the sub-parsers over a run's file diffs.
type Engine struct {
	Clock common.Clock
	Log   common.Logger
}

func NewEngine(clock common.Clock, log common.Logger) *Engine {
	if clock == nil {
		clock = common.RealClock{}
	}
	if log == nil {
		log = common.NewNopLogger()
	}
	return &Engine{Clock: clock, Log: log}
}

// Mine extracts all domain events from the staged diffs. A manifest diff
// whose only change is the timestamp line is suppressed entirely: it feeds
// neither the pack change set nor the per-file narration.
func (e *Engine) Mine(diffs []FileDiff) *Digest {
	d := &Digest{
		Date:  e.Clock.Now(),
		Packs: NewPackChangeSet(),
	}

	for _, fd := range diffs {
		if isManifest(fd.Path) {
			if TimestampOnly(fd.Text) {
				continue
			}
			d.Packs.Merge(ExtractPackChanges(fd.Text))
			d.Notes = append(d.Notes, Narrate(fd.Path))
			continue
		}

		scores := ExtractScores(fd.Text)
		d.Scores = append(d.Scores, scores...)
		if delta, ok := ExtractPlayTimeDelta(fd.Path, fd.Text); ok {
			d.PlayTimes = append(d.PlayTimes, delta)
		}
		d.Notes = append(d.Notes, Narrate(fd.Path))
	}

	if len(d.Scores) > 0 || len(d.PlayTimes) > 0 || !d.Packs.Empty() {
		e.Log.Info("digest mined",
			"scores", len(d.Scores),
			"playtime-deltas", len(d.PlayTimes),
			"packs-added", len(d.Packs.Added),
			"packs-removed", len(d.Packs.Removed))
	}
	return d
}

func isManifest(p string) bool {
	return path.Base(filepath.ToSlash(p)) == manifest.FileName
}
