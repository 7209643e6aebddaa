package firewall

import (
	"fmt"
	"os/exec"
	"strings"
)

// Runner is the narrow capability the manager needs from the rule engine:
// run iptables with arguments and report stdout, plus a PATH probe for a
// clear error before anything is mutated. Tests bind FakeRunner.
type Runner interface {
	Run(args ...string) (string, error)
	LookPath(name string) (string, error)
}

// ExecRunner executes the real iptables binary.
type ExecRunner struct{}

// Run invokes iptables and returns stdout. On a non-zero exit the error
// carries the command line and captured stderr.
func (ExecRunner) Run(args ...string) (string, error) {
	out, err := exec.Command("iptables", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("iptables %s: %s", strings.Join(args, " "),
				strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("iptables %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// LookPath resolves a binary on the search path.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
