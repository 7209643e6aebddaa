package cmd

import (
	"fmt"

	"grimm.is/wgfleet/internal/doctor"
	"grimm.is/wgfleet/internal/fleet"
	"grimm.is/wgfleet/internal/state"
	"grimm.is/wgfleet/internal/wgctl"
)

// RunDoctor runs host diagnostics and prints each result. State-dependent
// checks are skipped when no state file exists yet.
func RunDoctor(statePath, configDir string) error {
	var st *fleet.State
	if state.Exists(statePath) {
		loaded, err := state.Load(statePath)
		if err != nil {
			fmt.Printf("[FAIL] state:parse  %v\n", err)
		} else {
			st = loaded
		}
	}

	env := doctor.NewEnv(statePath, configDir, wgctl.New())
	checks := env.Run(st)

	for _, c := range checks {
		mark := "[ ok ]"
		if !c.OK {
			mark = "[FAIL]"
		}
		fmt.Printf("%s %-18s %s\n", mark, c.Name, c.Details)
		if c.Fix != "" {
			fmt.Printf("       fix: %s\n", c.Fix)
		}
	}

	passed, failed := doctor.Summarize(checks)
	fmt.Printf("\n%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}
