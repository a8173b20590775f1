package digest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDigestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRepair(t *testing.T) {
	misgrouped := "# Backup digest 2026-08-30\n\n" +
		"## Songs added\n\n**WrongPack**\n- Song1\n- SongUnknown\n"

	t.Run("regroups items under corrected packs", func(t *testing.T) {
		dir := t.TempDir()
		path := writeDigestFile(t, dir, "2026-08-30.md", misgrouped)

		changed, err := Repair(dir, map[string]string{"Song1": "Pack1"})
		if err != nil {
			t.Fatalf("Repair() error = %v", err)
		}
		if len(changed) != 1 || changed[0] != path {
			t.Errorf("changed = %v, want [itself]", changed)
		}

		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), "**Pack1**\n- Song1") {
			t.Errorf("item not regrouped:\n%s", data)
		}
		// Items missing from the lookup keep their current pack.
		if !strings.Contains(string(data), "**WrongPack**\n- SongUnknown") {
			t.Errorf("unknown item lost its pack:\n%s", data)
		}
	})

	t.Run("idempotent on already-correct files", func(t *testing.T) {
		dir := t.TempDir()
		writeDigestFile(t, dir, "2026-08-30.md", misgrouped)
		lookup := map[string]string{"Song1": "Pack1"}

		if _, err := Repair(dir, lookup); err != nil {
			t.Fatalf("first Repair() error = %v", err)
		}
		after, _ := os.ReadFile(filepath.Join(dir, "2026-08-30.md"))

		changed, err := Repair(dir, lookup)
		if err != nil {
			t.Fatalf("second Repair() error = %v", err)
		}
		if len(changed) != 0 {
			t.Errorf("second Repair() changed %v, want nothing", changed)
		}
		final, _ := os.ReadFile(filepath.Join(dir, "2026-08-30.md"))
		if string(final) != string(after) {
			t.Error("second Repair() altered file content")
		}
	})

	t.Run("preserves verbatim sections", func(t *testing.T) {
		dir := t.TempDir()
		content := "# Backup digest 2026-08-30\n\n" +
			"## New scores\n\n- Ann scored 98.47% on Pack1/Song1 [dance-single Hard] at 2026-08-30 13:55:02\n\n" +
			"## Songs added\n\n**WrongPack**\n- Song1\n"
		writeDigestFile(t, dir, "2026-08-30.md", content)

		if _, err := Repair(dir, map[string]string{"Song1": "Pack1"}); err != nil {
			t.Fatalf("Repair() error = %v", err)
		}
		data, _ := os.ReadFile(filepath.Join(dir, "2026-08-30.md"))
		if !strings.Contains(string(data), "- Ann scored 98.47%") {
			t.Errorf("score line lost during repair:\n%s", data)
		}
	})
}

func TestBuildLookup(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"Pack1/Song1", "Pack1/Song2", "Pack2/Song3"} {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(p)), 0755); err != nil {
			t.Fatal(err)
		}
	}
	// Files at pack level are not items.
	if err := os.WriteFile(filepath.Join(root, "Pack1", "banner.png"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	lookup := BuildLookup(root, filepath.Join(root, "missing"))
	want := map[string]string{"Song1": "Pack1", "Song2": "Pack1", "Song3": "Pack2"}
	for item, pack := range want {
		if lookup[item] != pack {
			t.Errorf("lookup[%s] = %q, want %q", item, lookup[item], pack)
		}
	}
	if _, ok := lookup["banner.png"]; ok {
		t.Error("file treated as an item")
	}
}
