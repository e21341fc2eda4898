package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EffortlessMetrics/ratchetgate/internal/drift"
	"github.com/EffortlessMetrics/ratchetgate/internal/report"
)

var driftWrite bool

var driftCmd = &cobra.Command{
	Use:     "drift <artifact>",
	GroupID: "checks",
	Short:   "Verify a generated artifact matches fresh regeneration",
	Long: `Regenerate a derived artifact from its structured source, normalize
volatile lines (timestamps, commit hashes) on both sides, and compare exactly.

Exit codes: 0 in sync, 1 drift detected, 2 missing source.

Artifacts: ` + strings.Join(drift.IDs(), ", ") + `

Examples:
  rgate drift feature-comparison
  rgate drift feature-comparison --write`,
	Args: cobra.ExactArgs(1),
	RunE: runDrift,
}

func init() {
	driftCmd.Flags().BoolVar(&driftWrite, "write", false, "Regenerate the committed artifact in place")
	rootCmd.AddCommand(driftCmd)
}

func runDrift(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	artifact, err := drift.Lookup(args[0])
	if err != nil {
		return err
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	if driftWrite {
		if err := drift.Write(root, artifact); err != nil {
			return asExitError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "regenerated %s from %s\n", artifact.Path, artifact.Source)
		return nil
	}

	res, err := drift.Check(root, artifact)
	if err != nil {
		return asExitError(err)
	}

	w := cmd.OutOrStdout()
	if GetOutput(cfg) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		r := report.New(w, cmd.ErrOrStderr(), true)
		r.Drift(res)
	}

	if !res.InSync {
		return &ExitError{Code: ExitRegression, Err: fmt.Errorf("%s drifted from %s", artifact.Path, artifact.Source)}
	}
	return nil
}
