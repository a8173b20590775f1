package run

import (
	"fmt"
	"os/exec"
)

// Notifier surfaces run failures to the operator of an otherwise unattended
// machine.
type Notifier interface {
	Notify(title, message string) error
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(title, message string) error { return nil }

// ExecNotifier invokes an external command with the title and message
// appended as the final two arguments. Typically notify-send on Linux or a
// small dialog script elsewhere.
type ExecNotifier struct {
	Command string
	Args    []string
}

func NewExecNotifier(command string, args ...string) *ExecNotifier {
	return &ExecNotifier{Command: command, Args: args}
}

func (n *ExecNotifier) Notify(title, message string) error {
	args := append(append([]string{}, n.Args...), title, message)
	if err := exec.Command(n.Command, args...).Run(); err != nil {
		return fmt.Errorf("notify command %s: %w", n.Command, err)
	}
	return nil
}
