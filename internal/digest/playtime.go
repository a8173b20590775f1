package digest

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// PlayTimeDelta is the growth of a profile's cumulative play-time counter
// within one run's diff.
type PlayTimeDelta struct {
	Player       string
	DeltaSeconds int64
}

func (d PlayTimeDelta) Sentence() string {
	return fmt.Sprintf("- %s played for %s", d.Player, FormatSeconds(d.DeltaSeconds))
}

var gameplaySecondsRe = regexp.MustCompile(`<TotalGameplaySeconds>(\d+)</TotalGameplaySeconds>`)

// ExtractPlayTimeDelta finds the single old and single new value of the
// cumulative gameplay-seconds counter in one file's diff. A delta is emitted
// only when both values are present and the new one is larger. The player
// name comes from an added Name line, or failing that from the file's parent
// directory.
func ExtractPlayTimeDelta(filePath, diffText string) (PlayTimeDelta, bool) {
	var oldVal, newVal int64 = -1, -1
	player := ""

	for _, raw := range strings.Split(diffText, "\n") {
		if line, ok := removedLine(raw); ok {
			if m := gameplaySecondsRe.FindStringSubmatch(line); m != nil && oldVal < 0 {
				oldVal, _ = strconv.ParseInt(m[1], 10, 64)
			}
			continue
		}
		line, ok := addedLine(raw)
		if !ok {
			continue
		}
		if m := gameplaySecondsRe.FindStringSubmatch(line); m != nil && newVal < 0 {
			newVal, _ = strconv.ParseInt(m[1], 10, 64)
			continue
		}
		if m := nameRe.FindStringSubmatch(line); m != nil && player == "" {
			player = strings.TrimSpace(m[1])
		}
	}

	if oldVal < 0 || newVal < 0 || newVal <= oldVal {
		return PlayTimeDelta{}, false
	}
	if player == "" {
		player = playerFromPath(filePath)
	}
	return PlayTimeDelta{Player: player, DeltaSeconds: newVal - oldVal}, true
}

// playerFromPath falls back to the stats file's parent directory name.
func playerFromPath(filePath string) string {
	dir := path.Dir(filepath.ToSlash(filePath))
	if dir == "." || dir == "/" {
		return PlaceholderPlayer
	}
	return path.Base(dir)
}

// FormatSeconds renders a second count as words, e.g. "1 minute 30 seconds".
func FormatSeconds(total int64) string {
	if total <= 0 {
		return "0 seconds"
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 {
		parts = append(parts, plural(seconds, "second"))
	}
	return strings.Join(parts, " ")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

var durationPartRe = regexp.MustCompile(`(\d+) (hour|minute|second)s?`)

// ParseSeconds is the inverse of FormatSeconds, used when re-reading
// rendered digests for aggregation.
func ParseSeconds(s string) int64 {
	var total int64
	for _, m := range durationPartRe.FindAllStringSubmatch(s, -1) {
		n, _ := strconv.ParseInt(m[1], 10, 64)
		switch m[2] {
		case "hour":
			total += n * 3600
		case "minute":
			total += n * 60
		case "second":
			total += n
		}
	}
	return total
}
