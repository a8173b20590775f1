package digest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PlaceholderPlayer labels a score whose record carries no player name.
const PlaceholderPlayer = "Anonymous"

// ScoreEvent is one scored attempt extracted from a stats file diff.
type ScoreEvent struct {
	Song       string // pack/song path, trimmed of the library root
	StepsType  string
	Difficulty string
	Player     string
	Percent    float64 // 0-100
	When       string  // timestamp as recorded in the file
}

// Sentence renders the event as one digest line.
func (e ScoreEvent) Sentence() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- %s scored %.2f%% on %s", e.Player, e.Percent, e.Song)
	if e.StepsType != "" || e.Difficulty != "" {
		sb.WriteString(" [" + strings.TrimSpace(e.StepsType+" "+e.Difficulty) + "]")
	}
	if e.When != "" {
		sb.WriteString(" at " + e.When)
	}
	return sb.String()
}

var (
	songDirRe    = regexp.MustCompile(`<Song\s+Dir='([^']*)'`)
	difficultyRe = regexp.MustCompile(`Difficulty='([^']*)'`)
	stepsTypeRe  = regexp.MustCompile(`StepsType='([^']*)'`)
	nameRe       = regexp.MustCompile(`<Name>([^<]*)</Name>`)
	percentRe    = regexp.MustCompile(`<PercentDP>([0-9.]+)</PercentDP>`)
	dateTimeRe   = regexp.MustCompile(`<DateTime>([^<]*)</DateTime>`)
)

type scoreState int

const (
	scoreSeeking scoreState = iota
	scoreInRecord
	scoreInHighScore
)

// ExtractScores scans the added lines of a stats file diff for nested score
// records. Records missing a song or a completion percentage are dropped; a
// missing player name defaults to the placeholder. No match means no events.
func ExtractScores(diffText string) []ScoreEvent {
	var events []ScoreEvent
	var cur ScoreEvent
	var havePercent bool
	state := scoreSeeking

	for _, raw := range strings.Split(diffText, "\n") {
		line, ok := addedLine(raw)
		if !ok {
			continue
		}

		switch {
		case strings.Contains(line, "<HighScoreForASongAndSteps>"):
			cur = ScoreEvent{}
			havePercent = false
			state = scoreInRecord
		case strings.Contains(line, "</HighScoreForASongAndSteps>"):
			if state != scoreSeeking && cur.Song != "" && havePercent {
				if cur.Player == "" {
					cur.Player = PlaceholderPlayer
				}
				events = append(events, cur)
			}
			state = scoreSeeking
		case state == scoreSeeking:
			// Ignore everything outside a record.
		case strings.Contains(line, "<HighScore>"):
			state = scoreInHighScore
		case strings.Contains(line, "</HighScore>"):
			state = scoreInRecord
		default:
			collectScoreField(line, state, &cur, &havePercent)
		}
	}
	return events
}

func collectScoreField(line string, state scoreState, cur *ScoreEvent, havePercent *bool) {
	if m := songDirRe.FindStringSubmatch(line); m != nil {
		cur.Song = trimSongDir(m[1])
		return
	}
	if strings.Contains(line, "<Steps") {
		if m := difficultyRe.FindStringSubmatch(line); m != nil {
			cur.Difficulty = m[1]
		}
		if m := stepsTypeRe.FindStringSubmatch(line); m != nil {
			cur.StepsType = m[1]
		}
		return
	}
	if state != scoreInHighScore {
		return
	}
	if m := nameRe.FindStringSubmatch(line); m != nil && cur.Player == "" {
		cur.Player = strings.TrimSpace(m[1])
		return
	}
	if m := percentRe.FindStringSubmatch(line); m != nil && !*havePercent {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			cur.Percent = v * 100
			*havePercent = true
		}
		return
	}
	if m := dateTimeRe.FindStringSubmatch(line); m != nil && cur.When == "" {
		cur.When = m[1]
	}
}

// trimSongDir turns "Songs/Pack1/Song1/" into "Pack1/Song1".
func trimSongDir(dir string) string {
	dir = strings.Trim(dir, "/")
	for _, root := range []string{"Songs/", "AdditionalSongs/"} {
		if strings.HasPrefix(dir, root) {
			return strings.TrimPrefix(dir, root)
		}
	}
	return dir
}

// addedLine returns the content of a '+' diff line, excluding file headers.
func addedLine(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "+++") {
		return "", false
	}
	return raw[1:], true
}

// removedLine returns the content of a '-' diff line, excluding file headers.
func removedLine(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "-") || strings.HasPrefix(raw, "---") {
		return "", false
	}
	return raw[1:], true
}
