package staging_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"smbak/internal/common"
	"smbak/internal/staging"
)

// stubStrategy clears (or refuses to clear) on demand.
type stubStrategy struct {
	name    string
	succeed bool
	calls   int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Clear(root string) error {
	s.calls++
	if s.succeed {
		return os.RemoveAll(root)
	}
	return errors.New("refused")
}

func mkStaging(t *testing.T) staging.Tree {
	t.Helper()
	root := filepath.Join(t.TempDir(), "staging")
	if err := os.MkdirAll(filepath.Join(root, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	return staging.NewTree(root)
}

func TestClear(t *testing.T) {
	t.Run("first strategy wins", func(t *testing.T) {
		tree := mkStaging(t)
		first := &stubStrategy{name: "a", succeed: true}
		second := &stubStrategy{name: "b", succeed: true}

		if err := staging.Clear(tree, []staging.ClearStrategy{first, second}, common.NewNopLogger()); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if first.calls != 1 || second.calls != 0 {
			t.Errorf("calls = (%d, %d), want (1, 0)", first.calls, second.calls)
		}
		if tree.Exists() {
			t.Error("staging still present after Clear()")
		}
	})

	t.Run("escalates to the second strategy", func(t *testing.T) {
		tree := mkStaging(t)
		first := &stubStrategy{name: "a", succeed: false}
		second := &stubStrategy{name: "b", succeed: true}

		if err := staging.Clear(tree, []staging.ClearStrategy{first, second}, common.NewNopLogger()); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if second.calls != 1 {
			t.Errorf("second strategy calls = %d, want 1", second.calls)
		}
	})

	t.Run("exhaustion is ErrUnclearable", func(t *testing.T) {
		tree := mkStaging(t)
		first := &stubStrategy{name: "a", succeed: false}
		second := &stubStrategy{name: "b", succeed: false}

		err := staging.Clear(tree, []staging.ClearStrategy{first, second}, common.NewNopLogger())
		if !errors.Is(err, staging.ErrUnclearable) {
			t.Fatalf("Clear() error = %v, want ErrUnclearable", err)
		}
	})

	t.Run("absent tree is a no-op", func(t *testing.T) {
		tree := staging.NewTree(filepath.Join(t.TempDir(), "never-created"))
		first := &stubStrategy{name: "a", succeed: true}

		if err := staging.Clear(tree, []staging.ClearStrategy{first}, common.NewNopLogger()); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if first.calls != 0 {
			t.Errorf("strategy called %d times for absent tree, want 0", first.calls)
		}
	})
}

func TestMirrorStrategy(t *testing.T) {
	tree := mkStaging(t)
	var gotSrc, gotDst string
	m := &staging.MirrorStrategy{Mirror: func(src, dst string) error {
		gotSrc, gotDst = src, dst
		// Emulate the utility by emptying dst.
		entries, err := os.ReadDir(dst)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(dst, e.Name())); err != nil {
				return err
			}
		}
		return nil
	}}

	if err := m.Clear(tree.Root); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if gotDst != tree.Root {
		t.Errorf("mirror dst = %q, want %q", gotDst, tree.Root)
	}
	if gotSrc == "" {
		t.Error("mirror src was empty, want a temp directory")
	}
	if tree.Exists() {
		t.Error("staging still present after mirror clear")
	}
}
