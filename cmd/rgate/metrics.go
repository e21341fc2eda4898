package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/EffortlessMetrics/ratchetgate/internal/baseline"
	"github.com/EffortlessMetrics/ratchetgate/internal/metric"
	"github.com/EffortlessMetrics/ratchetgate/internal/report"
)

var metricsCmd = &cobra.Command{
	Use:     "metrics",
	GroupID: "management",
	Short:   "Show the registered metric table",
	Long: `List every registered metric: built-ins plus any declared in
.ratchet/config.yaml. The BASELINE column reads the persisted value; "-"
means the metric has not bootstrapped yet.`,
	Args: cobra.NoArgs,
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := metric.NewRegistry(cfg.Metrics)
	if err != nil {
		return err
	}
	store := baseline.NewFileStore(cfg.Store.Dir)

	w := cmd.OutOrStdout()
	if GetOutput(cfg) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reg.All())
	}

	t := report.NewTable(w, "METRIC", "MODE", "TARGET", "BASELINE", "DESCRIPTION")
	t.SetMaxWidth(4, 60)
	for _, m := range reg.All() {
		target := "-"
		if m.Target != nil {
			target = strconv.Itoa(*m.Target)
		}
		base := "-"
		if v, ok, err := store.Get(m.ID); err == nil && ok {
			base = strconv.Itoa(v)
		}
		t.AddRow(m.ID, string(m.Mode), target, base, m.Description)
	}
	if err := t.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}
