package digest

import (
	"testing"
	"time"

	"smbak/internal/testutil"
)

func TestNarrate(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"stepmania/Save/MachineProfile/Stats.xml", "play statistics updated"},
		{"stepmania/Themes/default/metrics.ini", "settings changed"},
		{"stepmania/song-manifest.md", "song list updated"},
		{"digests/2026-08-30.md", "backup digest updated"},
		{"README.md", "summary regenerated"},
		{"stepmania/Save/Editor.xml", "profile data updated"},
		{"stepmania/Announcers/readme.txt", "file updated"},
	}
	for _, tc := range cases {
		if got := Narrate(tc.path).Note; got != tc.want {
			t.Errorf("Narrate(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestNarrate_FirstMatchWins(t *testing.T) {
	// Stats.xml matches both the stats rule and the *.xml rule; the stats
	// rule is listed first.
	if got := Narrate("a/b/Stats.xml").Note; got != "play statistics updated" {
		t.Errorf("Narrate() = %q, want the earlier rule", got)
	}
}

func TestEngine_Mine(t *testing.T) {
	clock := testutil.NewStubClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	t.Run("timestamp-only manifest diff is suppressed everywhere", func(t *testing.T) {
		e := NewEngine(clock, nil)
		d := e.Mine([]FileDiff{{
			Path: "stepmania/song-manifest.md",
			Text: "-Generated on 2026-08-29 12:00:00\n+Generated on 2026-08-30 12:00:00\n",
		}})

		if !d.Packs.Empty() {
			t.Errorf("packs = %+v, want empty", d.Packs)
		}
		if len(d.Notes) != 0 {
			t.Errorf("notes = %v, want none", d.Notes)
		}
		if !d.Empty() {
			t.Error("digest not empty for timestamp-only run")
		}
	})

	t.Run("real manifest change feeds packs and narration", func(t *testing.T) {
		e := NewEngine(clock, nil)
		d := e.Mine([]FileDiff{{
			Path: "stepmania/song-manifest.md",
			Text: "+**Pack1**\n+  **Song1**\n",
		}})

		if d.Packs.Empty() {
			t.Error("packs empty, want Pack1/Song1 added")
		}
		if len(d.Notes) != 1 || d.Notes[0].Note != "song list updated" {
			t.Errorf("notes = %v", d.Notes)
		}
	})

	t.Run("stats diff produces scores and play time", func(t *testing.T) {
		e := NewEngine(clock, nil)
		diff := scoreDiff +
			"-	<TotalGameplaySeconds>1000</TotalGameplaySeconds>\n" +
			"+	<TotalGameplaySeconds>1090</TotalGameplaySeconds>\n"
		d := e.Mine([]FileDiff{{Path: "stepmania/Save/MachineProfile/Stats.xml", Text: diff}})

		if len(d.Scores) != 1 {
			t.Errorf("scores = %d, want 1", len(d.Scores))
		}
		if len(d.PlayTimes) != 1 || d.PlayTimes[0].Player != "Ann" || d.PlayTimes[0].DeltaSeconds != 90 {
			t.Errorf("play times = %v, want Ann/90", d.PlayTimes)
		}
		if d.Date != clock.Now() {
			t.Errorf("Date = %v, want clock time", d.Date)
		}
	})
}
