// Package staging owns the working directory used to assemble one backup
// run before publishing. The tree is exclusively owned by the in-flight run:
// it is cleared at run start, populated, committed, and removed on success.
// On failure it is left in place for diagnosis.
package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"smbak/internal/common"
)

// ErrUnclearable means the staging directory survived every clear strategy.
// Usually an open handle or a reparse point inside it; the run must abort
// before the remote is touched.
var ErrUnclearable = errors.New("staging directory cannot be cleared")

// Tree is the staging working directory.
type Tree struct {
	Root string
}

func NewTree(root string) Tree { return Tree{Root: root} }

// Path joins parts under the tree root.
func (t Tree) Path(parts ...string) string {
	return filepath.Join(append([]string{t.Root}, parts...)...)
}

// Exists reports whether the tree root is present on disk.
func (t Tree) Exists() bool {
	_, err := os.Stat(t.Root)
	return err == nil
}

// Remove deletes the tree. Called only on overall run success.
func (t Tree) Remove() error {
	return os.RemoveAll(t.Root)
}

// ClearStrategy is one way of emptying a stuck staging directory.
type ClearStrategy interface {
	Name() string
	Clear(root string) error
}

// Clear removes a leftover staging directory, escalating through the given
// strategies in order. First success wins; exhaustion is ErrUnclearable.
func Clear(t Tree, strategies []ClearStrategy, log common.Logger) error {
	if log == nil {
		log = common.NewNopLogger()
	}
	if !t.Exists() {
		return nil
	}

	for _, s := range strategies {
		log.Info("clearing staging directory", "strategy", s.Name(), "path", t.Root)
		if err := s.Clear(t.Root); err != nil {
			log.Warn("clear strategy failed", "strategy", s.Name(), "error", err)
		}
		if !t.Exists() {
			return nil
		}
	}
	return fmt.Errorf("%w: %s still present after %d strategies", ErrUnclearable, t.Root, len(strategies))
}

// DefaultStrategies is the production escalation order: a direct recursive
// delete, then a mirror-based clear for trees that resist it.
func DefaultStrategies() []ClearStrategy {
	return []ClearStrategy{RemoveAllStrategy{}, NewMirrorStrategy()}
}

// RemoveAllStrategy deletes the tree directly.
type RemoveAllStrategy struct{}

func (RemoveAllStrategy) Name() string { return "remove-all" }

func (RemoveAllStrategy) Clear(root string) error {
	return os.RemoveAll(root)
}
