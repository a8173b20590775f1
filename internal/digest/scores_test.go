package digest

import (
	"strings"
	"testing"
)

const scoreDiff = `diff --git a/Save/MachineProfile/Stats.xml b/Save/MachineProfile/Stats.xml
--- a/Save/MachineProfile/Stats.xml
+++ b/Save/MachineProfile/Stats.xml
@@ -10,6 +10,20 @@
 	<SongScores>
+		<HighScoreForASongAndSteps>
+			<Song Dir='Songs/Pack1/Song1/'/>
+			<Steps Difficulty='Hard' StepsType='dance-single'/>
+			<HighScoreList>
+				<HighScore>
+					<Name>Ann</Name>
+					<PercentDP>0.984700</PercentDP>
+					<DateTime>2026-08-30 13:55:02</DateTime>
+				</HighScore>
+			</HighScoreList>
+		</HighScoreForASongAndSteps>
 	</SongScores>
`

func TestExtractScores(t *testing.T) {
	t.Run("extracts one event per qualifying record", func(t *testing.T) {
		events := ExtractScores(scoreDiff)
		if len(events) != 1 {
			t.Fatalf("got %d events, want 1", len(events))
		}
		e := events[0]
		if e.Song != "Pack1/Song1" {
			t.Errorf("Song = %q, want Pack1/Song1", e.Song)
		}
		if e.Player != "Ann" || e.Difficulty != "Hard" || e.StepsType != "dance-single" {
			t.Errorf("fields = %+v", e)
		}
		want := "- Ann scored 98.47% on Pack1/Song1 [dance-single Hard] at 2026-08-30 13:55:02"
		if got := e.Sentence(); got != want {
			t.Errorf("Sentence() = %q, want %q", got, want)
		}
	})

	t.Run("missing player name defaults to the placeholder", func(t *testing.T) {
		diff := strings.Replace(scoreDiff, "+					<Name>Ann</Name>\n", "", 1)
		events := ExtractScores(diff)
		if len(events) != 1 {
			t.Fatalf("got %d events, want 1", len(events))
		}
		if events[0].Player != PlaceholderPlayer {
			t.Errorf("Player = %q, want %q", events[0].Player, PlaceholderPlayer)
		}
	})

	t.Run("record without a percentage is dropped", func(t *testing.T) {
		diff := strings.Replace(scoreDiff, "+					<PercentDP>0.984700</PercentDP>\n", "", 1)
		if events := ExtractScores(diff); len(events) != 0 {
			t.Errorf("got %d events, want 0", len(events))
		}
	})

	t.Run("removed-only records are ignored", func(t *testing.T) {
		diff := strings.ReplaceAll(scoreDiff, "\n+", "\n-")
		if events := ExtractScores(diff); len(events) != 0 {
			t.Errorf("got %d events, want 0", len(events))
		}
	})

	t.Run("unmatched input yields no events", func(t *testing.T) {
		if events := ExtractScores("+just some text\n-other text\n"); len(events) != 0 {
			t.Errorf("got %d events, want 0", len(events))
		}
	})
}
