// Package sync drives one backup run end to end: clear the staging tree,
// acquire the remote repository, replicate the watched directories, mine
// the staged diff into a daily digest, then commit and force-push.
package sync

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"smbak/internal/common"
	"smbak/internal/config"
	"smbak/internal/digest"
	"smbak/internal/gitcmd"
	"smbak/internal/manifest"
	"smbak/internal/replicate"
	"smbak/internal/staging"
)

// SkipReportName is the per-target file listing what the size and directory
// filters dropped.
const SkipReportName = "skipped-files.txt"

// ReadmeName sits at the repository root and aggregates the digest window.
const ReadmeName = "README.md"

// Outcome summarizes one completed run.
type Outcome struct {
	Copied     int
	Skipped    int
	Changed    int
	Committed  bool
	Pushed     bool
	DigestPath string
}

// Synchronizer owns the staging tree and the git pipeline for one
// configuration. It is not safe for concurrent runs; the scheduler is
// expected to serialize invocations.
type Synchronizer struct {
	cfg        *config.Config
	runner     gitcmd.Runner
	clock      common.Clock
	log        common.Logger
	strategies []staging.ClearStrategy
}

func New(cfg *config.Config, runner gitcmd.Runner, clock common.Clock, log common.Logger) *Synchronizer {
	if clock == nil {
		clock = common.RealClock{}
	}
	if log == nil {
		log = common.NewNopLogger()
	}
	return &Synchronizer{
		cfg:        cfg,
		runner:     runner,
		clock:      clock,
		log:        log,
		strategies: staging.DefaultStrategies(),
	}
}

// Run executes the full pipeline and reports what happened. A run that
// stages no changes is a success with Committed false.
func (s *Synchronizer) Run() (*Outcome, error) {
	tree := staging.NewTree(s.cfg.StagingDir)
	if err := staging.Clear(tree, s.strategies, s.log); err != nil {
		return nil, err
	}

	repo, err := s.acquire()
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	if err := s.stage(tree, out); err != nil {
		return nil, err
	}

	if err := s.addAll(repo); err != nil {
		return nil, err
	}

	if err := s.mine(repo, out); err != nil {
		return nil, err
	}

	committed, err := repo.Commit(s.commitMessage())
	if err != nil {
		return nil, err
	}
	out.Committed = committed
	if !committed {
		s.log.Info("nothing to commit, backup is current")
		s.cleanup(tree)
		return out, nil
	}

	if err := repo.PushForce(); err != nil {
		return nil, err
	}
	out.Pushed = true
	s.cleanup(tree)
	return out, nil
}

// cleanup removes the staging tree after a successful run. Failed runs
// return before reaching here, leaving the tree in place for diagnosis.
func (s *Synchronizer) cleanup(tree staging.Tree) {
	if err := tree.Remove(); err != nil {
		s.log.Warn("could not remove staging tree, next run will clear it", "error", err)
	}
}

// acquire produces a working repository at the staging root: a shallow
// clone of the remote when it is reachable, a fresh init pointed at it
// otherwise.
func (s *Synchronizer) acquire() (*gitcmd.Repo, error) {
	repo := gitcmd.NewRepo(s.cfg.StagingDir, s.runner, s.log)
	url := s.cfg.AuthenticatedURL()

	if err := os.MkdirAll(filepath.Dir(s.cfg.StagingDir), 0755); err != nil {
		return nil, fmt.Errorf("creating staging parent: %w", err)
	}

	if err := repo.CloneShallow(url); err != nil {
		s.log.Warn("clone failed, initializing fresh repository", "error", err)
		if rmErr := os.RemoveAll(s.cfg.StagingDir); rmErr != nil {
			return nil, fmt.Errorf("removing partial clone: %w", rmErr)
		}
		if mkErr := os.MkdirAll(s.cfg.StagingDir, 0755); mkErr != nil {
			return nil, fmt.Errorf("creating staging root: %w", mkErr)
		}
		if initErr := repo.Init(); initErr != nil {
			return nil, initErr
		}
		if remErr := repo.RemoteAdd("origin", url); remErr != nil {
			return nil, remErr
		}
	}

	if err := repo.ApplyDefaults(); err != nil {
		return nil, err
	}
	return repo, nil
}

// stage replicates the watched directories into the target subpath and
// writes the manifest, skip report, and ignore file.
func (s *Synchronizer) stage(tree staging.Tree, out *Outcome) error {
	target := tree.Path(s.cfg.TargetName)
	rep := replicate.New(s.cfg.EffectiveExcludes(), 0, s.log)

	var skips []replicate.SkipRecord
	for _, dir := range s.cfg.IncludeDirs {
		src := filepath.Join(s.cfg.InstallPath, dir)
		if _, err := os.Stat(src); err != nil {
			s.log.Warn("include directory not present, skipping", "dir", dir)
			continue
		}
		copied, skipped, err := rep.Replicate(src, filepath.Join(target, dir))
		if err != nil {
			return fmt.Errorf("replicating %s: %w", dir, err)
		}
		out.Copied += copied
		skips = append(skips, prefixSkips(dir, skipped)...)
	}

	for _, task := range s.cfg.Tasks {
		src := s.cfg.SourceRoot(task)
		if src == "" {
			continue
		}
		if _, err := os.Stat(src); err != nil {
			s.log.Warn("task source not present, skipping", "task", task.Name)
			continue
		}
		copied, skipped, err := rep.Replicate(src, filepath.Join(target, task.Target))
		if err != nil {
			return fmt.Errorf("replicating task %s: %w", task.Name, err)
		}
		out.Copied += copied
		skips = append(skips, prefixSkips(task.Target, skipped)...)
	}
	out.Skipped = len(skips)

	if err := s.writeManifest(target); err != nil {
		return err
	}
	if err := writeSkipReport(filepath.Join(target, SkipReportName), skips); err != nil {
		return err
	}
	return s.copyIgnoreFile(tree)
}

// writeManifest builds the song manifest and stages it. When the staged
// copy differs only in its generation timestamp the write is skipped, so
// an unchanged library produces no diff.
func (s *Synchronizer) writeManifest(target string) error {
	primary, additional := s.cfg.SongRoots()
	text, err := manifest.New(s.clock).Build(primary, additional)
	if err != nil {
		return fmt.Errorf("building manifest: %w", err)
	}

	dest := filepath.Join(target, manifest.FileName)
	if old, readErr := os.ReadFile(dest); readErr == nil {
		if manifestUnchanged(string(old), text) {
			s.log.Debug("manifest unchanged, keeping staged copy")
			return nil
		}
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("creating target dir: %w", err)
	}
	return os.WriteFile(dest, []byte(text), 0644)
}

// manifestUnchanged reports whether two manifests are equal once the
// generation timestamp lines are ignored.
func manifestUnchanged(prev, next string) bool {
	return stripGenerated(prev) == stripGenerated(next)
}

func stripGenerated(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, manifest.GeneratedPrefix) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func prefixSkips(prefix string, skips []replicate.SkipRecord) []replicate.SkipRecord {
	out := make([]replicate.SkipRecord, len(skips))
	for i, sk := range skips {
		out[i] = replicate.SkipRecord{Path: path.Join(prefix, filepath.ToSlash(sk.Path)), Size: sk.Size}
	}
	return out
}

// writeSkipReport records the dropped files, one per line with the size in
// bytes. With nothing skipped any stale report is removed.
func writeSkipReport(dest string, skips []replicate.SkipRecord) error {
	if len(skips) == 0 {
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing skip report: %w", err)
		}
		return nil
	}
	sort.Slice(skips, func(i, j int) bool { return skips[i].Path < skips[j].Path })
	var sb strings.Builder
	for _, sk := range skips {
		fmt.Fprintf(&sb, "%s (%d bytes)\n", sk.Path, sk.Size)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating target dir: %w", err)
	}
	return os.WriteFile(dest, []byte(sb.String()), 0644)
}

func (s *Synchronizer) copyIgnoreFile(tree staging.Tree) error {
	if s.cfg.IgnoreFile == "" {
		return nil
	}
	data, err := os.ReadFile(s.cfg.IgnoreFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading ignore file: %w", err)
	}
	return os.WriteFile(tree.Path(".gitignore"), data, 0644)
}

// addAll stages everything, retrying once with per-path adds after a reset
// when the bulk add fails on an individual file.
func (s *Synchronizer) addAll(repo *gitcmd.Repo) error {
	err := repo.AddAll()
	if err == nil {
		return nil
	}
	s.log.Warn("bulk add failed, retrying path by path", "error", err)
	if err := repo.ResetIndex(); err != nil {
		return err
	}

	entries, err := os.ReadDir(s.cfg.StagingDir)
	if err != nil {
		return fmt.Errorf("listing staging root: %w", err)
	}
	candidates, added := 0, 0
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		candidates++
		if err := repo.AddPath(e.Name()); err != nil {
			s.log.Warn("add failed, leaving path out of this backup", "path", e.Name(), "error", err)
			continue
		}
		added++
	}
	if candidates > 0 && added == 0 {
		return fmt.Errorf("could not stage any path")
	}
	return nil
}

// mine turns the staged diff into a dated digest, maintains the rolling
// digest window, and regenerates the repository README from it.
func (s *Synchronizer) mine(repo *gitcmd.Repo, out *Outcome) error {
	names, err := repo.DiffCachedNames()
	if err != nil {
		return err
	}
	out.Changed = len(names)
	if len(names) == 0 {
		return nil
	}

	if stat, statErr := repo.DiffCachedStat(); statErr == nil {
		s.log.Info("staged changes", "files", len(names), "summary", statSummary(stat))
	} else {
		s.log.Warn("could not read diffstat", "error", statErr)
	}

	diffs := make([]digest.FileDiff, 0, len(names))
	for _, name := range names {
		text, err := repo.DiffCachedFile(name)
		if err != nil {
			return err
		}
		diffs = append(diffs, digest.FileDiff{Path: name, Text: text})
	}

	engine := digest.NewEngine(s.clock, s.log)
	d := engine.Mine(diffs)

	window := digest.NewWindow(filepath.Join(s.cfg.StagingDir, digest.DirName))
	if !d.Empty() {
		written, err := window.Write(d)
		if err != nil {
			return err
		}
		out.DigestPath = written
		if err := repo.AddPath(path.Join(digest.DirName, filepath.Base(written))); err != nil {
			return err
		}
	}

	pruned, err := window.Prune()
	if err != nil {
		return err
	}
	for _, p := range pruned {
		rel := path.Join(digest.DirName, filepath.Base(p))
		if err := repo.RmCached(rel); err != nil {
			return err
		}
	}

	entries, err := window.Entries()
	if err != nil {
		return err
	}
	readme := digest.RenderReadme(entries)
	if err := os.WriteFile(filepath.Join(s.cfg.StagingDir, ReadmeName), []byte(readme), 0644); err != nil {
		return fmt.Errorf("writing readme: %w", err)
	}
	return repo.AddPath(ReadmeName)
}

// statSummary returns the trailing totals line of a diffstat, e.g.
// "3 files changed, 12 insertions(+)".
func statSummary(stat string) string {
	lines := strings.Split(strings.TrimSpace(stat), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func (s *Synchronizer) commitMessage() string {
	return "Backup " + s.clock.Now().Format("2006-01-02 15:04:05")
}
