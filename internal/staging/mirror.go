package staging

import (
	"fmt"
	"os"
	"os/exec"
)

// MirrorStrategy forcibly empties a stuck staging directory by mirroring an
// empty directory onto it with an external utility, then deleting the
// emptied tree. Used only when the direct delete leaves the tree behind.
type MirrorStrategy struct {
	// Mirror mirrors src (an empty directory) onto dst. Replaced in tests.
	Mirror func(src, dst string) error
}

func NewMirrorStrategy() *MirrorStrategy {
	return &MirrorStrategy{Mirror: rsyncMirror}
}

func (*MirrorStrategy) Name() string { return "mirror-empty" }

func (m *MirrorStrategy) Clear(root string) error {
	empty, err := os.MkdirTemp("", "smbak-empty-*")
	if err != nil {
		return fmt.Errorf("creating empty mirror source: %w", err)
	}
	defer os.RemoveAll(empty)

	if err := m.Mirror(empty, root); err != nil {
		return fmt.Errorf("mirroring empty directory onto %s: %w", root, err)
	}
	return os.RemoveAll(root)
}

func rsyncMirror(src, dst string) error {
	cmd := exec.Command("rsync", "-a", "--delete", src+string(os.PathSeparator), dst)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rsync --delete: %w: %s", err, out)
	}
	return nil
}
