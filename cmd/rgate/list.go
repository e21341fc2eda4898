package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/EffortlessMetrics/ratchetgate/internal/config"
	"github.com/EffortlessMetrics/ratchetgate/internal/metric"
	"github.com/EffortlessMetrics/ratchetgate/internal/report"
)

var listCmd = &cobra.Command{
	Use:     "list <metric>",
	Aliases: []string{"l"},
	GroupID: "checks",
	Short:   "Print the offender listing for a metric",
	Long: `Scan and print the offender listing without consulting the baseline.
Always exits 0; a debugging aid for marker-style metrics.

Examples:
  rgate list todo-unlinked
  rgate list unwrap -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := metric.NewRegistry(cfg.Metrics)
		if err != nil {
			return err
		}
		return runList(cmd, cfg, reg, args[0])
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// runList scans one metric and prints offenders only. Shared with
// `check --list`.
func runList(cmd *cobra.Command, cfg *config.Config, reg *metric.Registry, id string) error {
	m, err := reg.Lookup(id)
	if err != nil {
		return err
	}

	root, err := os.Getwd()
	if err != nil {
		return err
	}

	res, err := scanMetric(cfg, m, root)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if GetOutput(cfg) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	r := report.New(w, cmd.ErrOrStderr(), true)
	r.Offenders(res)
	return nil
}
