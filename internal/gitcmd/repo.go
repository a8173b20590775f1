package gitcmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"smbak/internal/common"
)

// Repo wraps git operations on one working directory. Every invocation's
// output lines are logged verbatim, except line-ending normalization notices,
// which are counted and summarized to keep the log readable.
type Repo struct {
	Dir    string
	runner Runner
	log    common.Logger
}

func NewRepo(dir string, runner Runner, log common.Logger) *Repo {
	if runner == nil {
		runner = NewExecRunner()
	}
	if log == nil {
		log = common.NewNopLogger()
	}
	return &Repo{Dir: dir, runner: runner, log: log}
}

// run executes git in the repo directory, logs its output, and returns an
// error for any non-zero exit.
func (r *Repo) run(args ...string) (Result, error) {
	return r.runIn(r.Dir, args...)
}

func (r *Repo) runIn(dir string, args ...string) (Result, error) {
	res, err := r.runner.Run(dir, args...)
	if err != nil {
		return res, err
	}
	r.logOutput(args, res)
	if res.ExitCode != 0 {
		return res, fmt.Errorf("git %s: exit %d: %s", strings.Join(args, " "), res.ExitCode, firstLine(res.Stderr))
	}
	return res, nil
}

func (r *Repo) logOutput(args []string, res Result) {
	notices := 0
	for _, line := range res.Lines() {
		if isLineEndingNotice(line) {
			notices++
			continue
		}
		r.log.Debug("git output", "cmd", args[0], "line", line)
	}
	if notices > 0 {
		r.log.Debug("git output", "cmd", args[0], "line-ending-notices", notices)
	}
}

// isLineEndingNotice matches git's per-file CRLF/LF normalization warnings.
func isLineEndingNotice(line string) bool {
	if !strings.HasPrefix(line, "warning:") {
		return false
	}
	return strings.Contains(line, "CRLF") || strings.Contains(line, "LF will be replaced")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// CloneShallow clones url into the repo directory with depth 1.
func (r *Repo) CloneShallow(url string) error {
	parent := filepath.Dir(r.Dir)
	_, err := r.runIn(parent, "clone", "--depth", "1", url, r.Dir)
	return err
}

// Init initializes an empty repository in the repo directory.
func (r *Repo) Init() error {
	_, err := r.run("init")
	return err
}

// RemoteAdd registers url as the named push target.
func (r *Repo) RemoteAdd(name, url string) error {
	_, err := r.run("remote", "add", name, url)
	return err
}

// SetConfig sets one repository-local configuration value.
func (r *Repo) SetConfig(key, value string) error {
	_, err := r.run("config", key, value)
	return err
}

// ApplyDefaults sets the identity and normalization settings every staging
// repository needs before committing.
func (r *Repo) ApplyDefaults() error {
	for _, kv := range [][2]string{
		{"user.name", "smbak"},
		{"user.email", "smbak@localhost"},
		{"core.autocrlf", "false"},
		{"core.longpaths", "true"},
	} {
		if err := r.SetConfig(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// AddAll stages every change in the working tree.
func (r *Repo) AddAll() error {
	_, err := r.run("add", "-A")
	return err
}

// AddPath stages a single path.
func (r *Repo) AddPath(path string) error {
	_, err := r.run("add", path)
	return err
}

// ResetIndex unstages everything, leaving the working tree untouched.
func (r *Repo) ResetIndex() error {
	_, err := r.run("reset")
	return err
}

// Head returns the current commit hash. ok is false when the repository has
// no commits yet, which is not an error.
func (r *Repo) Head() (hash string, ok bool, err error) {
	res, runErr := r.runner.Run(r.Dir, "rev-parse", "HEAD")
	if runErr != nil {
		return "", false, runErr
	}
	if res.ExitCode != 0 {
		// No commits yet.
		return "", false, nil
	}
	return strings.TrimSpace(res.Stdout), true, nil
}

// DiffCachedNames lists the staged changed paths relative to HEAD, or
// relative to the empty tree on a repository with no commits.
func (r *Repo) DiffCachedNames() ([]string, error) {
	res, err := r.run("diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// DiffCachedFile returns the unified diff text of one staged path.
func (r *Repo) DiffCachedFile(path string) (string, error) {
	res, err := r.run("diff", "--cached", "--", path)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// DiffCachedStat returns the staged diffstat summary.
func (r *Repo) DiffCachedStat() (string, error) {
	res, err := r.run("diff", "--cached", "--stat")
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Commit records the staged changes. committed is false when there was
// nothing to commit, which is not an error.
func (r *Repo) Commit(message string) (committed bool, err error) {
	res, runErr := r.runner.Run(r.Dir, "commit", "-m", message)
	if runErr != nil {
		return false, runErr
	}
	r.logOutput([]string{"commit"}, res)
	if res.ExitCode != 0 {
		combined := res.Stdout + res.Stderr
		if strings.Contains(combined, "nothing to commit") || strings.Contains(combined, "nothing added to commit") {
			return false, nil
		}
		return false, fmt.Errorf("git commit: exit %d: %s", res.ExitCode, firstLine(res.Stderr))
	}
	return true, nil
}

// PushForce overwrites the remote branch head with the local one.
func (r *Repo) PushForce() error {
	_, err := r.run("push", "--force", "origin", "HEAD")
	return err
}

// RmCached removes a path from the index without touching the working tree.
// Unmatched paths are ignored.
func (r *Repo) RmCached(path string) error {
	_, err := r.run("rm", "--cached", "--ignore-unmatch", path)
	return err
}
