package cmd

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/wgfleet/internal/deploy"
	"grimm.is/wgfleet/internal/state"
	"grimm.is/wgfleet/internal/wgctl"
)

// RunApply validates, backs up, and installs the server config, printing a
// unified diff against what was previously installed. Unless the caller opts
// out, the interface is bounced onto the new config.
func RunApply(statePath, configDir string, restart bool) error {
	st, err := state.Load(statePath)
	if err != nil {
		return err
	}

	pipeline := deploy.NewPipeline(configDir, wgctl.New())
	report, err := pipeline.Apply(st, restart)
	if err != nil {
		return err
	}

	if report.Previous == report.Rendered {
		fmt.Printf("No changes; %s already current.\n", report.Path)
	} else {
		diff, derr := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(report.Previous),
			B:        difflib.SplitLines(report.Rendered),
			FromFile: "installed",
			ToFile:   "rendered",
			Context:  3,
		})
		if derr == nil && diff != "" {
			fmt.Print(diff)
		}
		fmt.Printf("Installed %s\n", report.Path)
	}

	if report.BackupPath != "" {
		fmt.Printf("Backup: %s\n", report.BackupPath)
	}
	if report.Restarted {
		fmt.Printf("Restarted %s\n", st.Server.Interface)
	} else if report.Previous != report.Rendered {
		fmt.Println("Interface not restarted; run 'enable' to pick up changes.")
	}
	return nil
}
