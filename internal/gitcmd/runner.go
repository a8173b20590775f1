// Package gitcmd shells out to the git tool. Parsed stdout and exit codes
// are the result contract; nothing here interprets repository semantics
// beyond that.
package gitcmd

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result captures one git invocation's output and exit code.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Lines returns the non-empty output lines, stdout first.
func (r Result) Lines() []string {
	var lines []string
	for _, chunk := range []string{r.Stdout, r.Stderr} {
		for _, line := range strings.Split(chunk, "\n") {
			if strings.TrimRight(line, "\r") != "" {
				lines = append(lines, strings.TrimRight(line, "\r"))
			}
		}
	}
	return lines
}

// Runner executes git with the given arguments in the given directory.
// A non-nil error means the process could not be started at all; a non-zero
// exit is reported through Result.ExitCode.
type Runner interface {
	Run(dir string, args ...string) (Result, error)
}

// ExecRunner is the default Runner backed by os/exec.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner { return &ExecRunner{} }

func (ExecRunner) Run(dir string, args ...string) (Result, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("starting git %s: %w", strings.Join(args, " "), err)
	}
	return res, nil
}
