package testutil

import (
	"strings"
	"sync"

	"smbak/internal/gitcmd"
)

type gitStub struct {
	prefix string
	result gitcmd.Result
	err    error
	once   bool
	used   bool
}

// StubGitRunner records every git invocation and answers from scripted
// stubs. Unscripted invocations succeed with empty output, so tests only
// script the commands whose behavior they care about.
type StubGitRunner struct {
	mu    sync.Mutex
	stubs []*gitStub

	// Calls holds the argument list of each invocation, in order.
	Calls [][]string
	// Dirs holds the working directory of each invocation, in order.
	Dirs []string
}

func NewStubGitRunner() *StubGitRunner {
	return &StubGitRunner{}
}

// Stub answers any invocation whose space-joined arguments start with prefix.
// Earlier stubs win.
func (r *StubGitRunner) Stub(prefix string, result gitcmd.Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stubs = append(r.stubs, &gitStub{prefix: prefix, result: result, err: err})
}

// StubOnce is Stub for a single invocation; later matches fall through to
// the next stub or the default success.
func (r *StubGitRunner) StubOnce(prefix string, result gitcmd.Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stubs = append(r.stubs, &gitStub{prefix: prefix, result: result, err: err, once: true})
}

func (r *StubGitRunner) Run(dir string, args ...string) (gitcmd.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, args)
	r.Dirs = append(r.Dirs, dir)

	joined := strings.Join(args, " ")
	for _, s := range r.stubs {
		if s.once && s.used {
			continue
		}
		if strings.HasPrefix(joined, s.prefix) {
			s.used = true
			return s.result, s.err
		}
	}
	return gitcmd.Result{}, nil
}

// CallStrings returns each recorded invocation as a space-joined string.
func (r *StubGitRunner) CallStrings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.Calls))
	for i, args := range r.Calls {
		out[i] = strings.Join(args, " ")
	}
	return out
}

// Called reports whether any invocation's space-joined arguments start with
// prefix.
func (r *StubGitRunner) Called(prefix string) bool {
	for _, call := range r.CallStrings() {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}
