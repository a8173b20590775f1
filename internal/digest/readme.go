package digest

import (
	"fmt"
	"sort"
	"strings"
)

// RenderReadme recomputes the rolling summary from the current digest
// window: total play time per player, the net pack change set with add and
// remove cancellation, and each window member's content in chronological
// order. The output depends only on the window, so an unchanged window
// renders an unchanged README.
func RenderReadme(entries []*Rendered) string {
	var sb strings.Builder
	sb.WriteString("# Backup summary\n\n")
	fmt.Fprintf(&sb, "Aggregated from the %d most recent backup digests.\n", len(entries))

	writePlayTimeTotals(&sb, entries)

	net := NewPackChangeSet()
	for _, e := range entries {
		net.Merge(e.Packs)
	}
	net = net.Net()
	writePackSection(&sb, addedHeader, net.Added)
	writePackSection(&sb, removedHeader, net.Removed)

	if len(entries) > 0 {
		sb.WriteString("\n## Backups\n")
		for _, e := range entries {
			sb.WriteString("\n### " + e.Date + "\n")
			writeBody(&sb, e)
		}
	}
	return sb.String()
}

func writePlayTimeTotals(sb *strings.Builder, entries []*Rendered) {
	totals := make(map[string]int64)
	for _, e := range entries {
		for _, d := range e.PlayTimes() {
			totals[d.Player] += d.DeltaSeconds
		}
	}
	if len(totals) == 0 {
		return
	}

	players := make([]string, 0, len(totals))
	for p := range totals {
		players = append(players, p)
	}
	sort.Strings(players)

	sb.WriteString("\n" + playTimeHeader + "\n\n")
	for _, p := range players {
		fmt.Fprintf(sb, "- %s: %s\n", p, FormatSeconds(totals[p]))
	}
}

// writeBody re-renders one digest without its title line.
func writeBody(sb *strings.Builder, e *Rendered) {
	body := e.Render()
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	}
	sb.WriteString(body)
}
