package firewall

import (
	"fmt"
	"strings"
)

// FakeRunner is a scripted Runner for tests. Query commands answer from
// Outputs (keyed by the space-joined argument list); everything executed is
// recorded in Calls for sequence assertions.
type FakeRunner struct {
	Calls [][]string

	Outputs map[string]string
	Errs    map[string]error

	// MissingBinary makes LookPath fail, simulating a host without
	// iptables installed.
	MissingBinary bool
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Outputs: make(map[string]string),
		Errs:    make(map[string]error),
	}
}

func (f *FakeRunner) Run(args ...string) (string, error) {
	f.Calls = append(f.Calls, args)
	key := strings.Join(args, " ")
	if err, ok := f.Errs[key]; ok {
		return "", err
	}
	return f.Outputs[key], nil
}

func (f *FakeRunner) LookPath(name string) (string, error) {
	if f.MissingBinary {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return "/usr/sbin/" + name, nil
}

// Ran reports whether an exact command was executed.
func (f *FakeRunner) Ran(args ...string) bool {
	want := strings.Join(args, " ")
	for _, call := range f.Calls {
		if strings.Join(call, " ") == want {
			return true
		}
	}
	return false
}

// CountRuns returns how many times an exact command was executed.
func (f *FakeRunner) CountRuns(args ...string) int {
	want := strings.Join(args, " ")
	n := 0
	for _, call := range f.Calls {
		if strings.Join(call, " ") == want {
			n++
		}
	}
	return n
}
