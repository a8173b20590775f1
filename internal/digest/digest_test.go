package digest

import (
	"testing"

	"smbak/internal/testutil"
)

const minedStatsDiff = `--- a/stepmania/Save/Stats.xml
+++ b/stepmania/Save/Stats.xml
@@ -1,4 +1,14 @@
-<TotalGameplaySeconds>1000</TotalGameplaySeconds>
+<TotalGameplaySeconds>1090</TotalGameplaySeconds>
+<HighScoreForASongAndSteps>
+<Song Dir='Songs/Pack1/Song1/'/>
+<Steps Difficulty='Hard' StepsType='dance-single'>
+<HighScore>
+<Name>Ann</Name>
+<PercentDP>0.984700</PercentDP>
+<DateTime>2026-08-30 13:55:02</DateTime>
+</HighScore>
+</Steps>
+</HighScoreForASongAndSteps>
`

func TestEngineMine(t *testing.T) {
	t.Run("stats diff yields scores, play time and narration", func(t *testing.T) {
		e := NewEngine(testutil.FixedClock(), testutil.NewRecordingLogger())
		d := e.Mine([]FileDiff{{Path: "stepmania/Save/Stats.xml", Text: minedStatsDiff}})

		if len(d.Scores) != 1 {
			t.Fatalf("Scores = %d, want 1", len(d.Scores))
		}
		if d.Scores[0].Player != "Ann" || d.Scores[0].Song != "Pack1/Song1" {
			t.Errorf("score = %+v", d.Scores[0])
		}
		if len(d.PlayTimes) != 1 || d.PlayTimes[0].DeltaSeconds != 90 {
			t.Errorf("PlayTimes = %+v, want one 90s delta", d.PlayTimes)
		}
		if len(d.Notes) != 1 || d.Notes[0].Note != "play statistics updated" {
			t.Errorf("Notes = %+v", d.Notes)
		}
		if d.Empty() {
			t.Error("Empty() = true for a digest with events")
		}
	})

	t.Run("timestamp-only manifest diff is suppressed entirely", func(t *testing.T) {
		diff := "--- a/stepmania/song-manifest.md\n+++ b/stepmania/song-manifest.md\n" +
			"-Generated on 2026-08-29 12:00:00\n+Generated on 2026-08-30 12:00:00\n"
		e := NewEngine(testutil.FixedClock(), testutil.NewRecordingLogger())
		d := e.Mine([]FileDiff{{Path: "stepmania/song-manifest.md", Text: diff}})

		if !d.Empty() {
			t.Errorf("timestamp-only manifest produced a digest: %+v", d)
		}
	})

	t.Run("manifest content diff feeds the pack change set", func(t *testing.T) {
		e := NewEngine(testutil.FixedClock(), testutil.NewRecordingLogger())
		d := e.Mine([]FileDiff{{Path: "stepmania/song-manifest.md", Text: manifestDiff}})

		if d.Packs.Empty() {
			t.Fatal("Packs is empty, want changes")
		}
		if got := Items(d.Packs.Added, "Pack1"); len(got) != 1 || got[0] != "Song1" {
			t.Errorf("added = %v, want [Song1]", got)
		}
		if len(d.Notes) != 1 || d.Notes[0].Note != "song list updated" {
			t.Errorf("Notes = %+v", d.Notes)
		}
	})

	t.Run("digest date comes from the clock", func(t *testing.T) {
		clock := testutil.FixedClock()
		e := NewEngine(clock, nil)
		d := e.Mine(nil)
		if !d.Date.Equal(clock.Now()) {
			t.Errorf("Date = %v, want %v", d.Date, clock.Now())
		}
	})
}
