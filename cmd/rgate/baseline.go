package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/EffortlessMetrics/ratchetgate/internal/baseline"
	"github.com/EffortlessMetrics/ratchetgate/internal/metric"
)

var baselineCmd = &cobra.Command{
	Use:     "baseline",
	GroupID: "management",
	Short:   "Show or explicitly update a metric's baseline",
	Long: `Baselines record the last accepted value for each metric.

A passing check never writes them; the only automatic write is the one-time
bootstrap on a metric's first run. "baseline set" is the deliberate,
auditable acceptance path shown in regression output.`,
}

var baselineShowCmd = &cobra.Command{
	Use:   "show <metric>",
	Short: "Show the persisted baseline",
	Args:  cobra.ExactArgs(1),
	RunE:  runBaselineShow,
}

var baselineSetCmd = &cobra.Command{
	Use:   "set <metric> <value>",
	Short: "Explicitly accept a new baseline value",
	Args:  cobra.ExactArgs(2),
	RunE:  runBaselineSet,
}

func init() {
	baselineCmd.AddCommand(baselineShowCmd)
	baselineCmd.AddCommand(baselineSetCmd)
	rootCmd.AddCommand(baselineCmd)
}

func runBaselineShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := metric.NewRegistry(cfg.Metrics)
	if err != nil {
		return err
	}
	m, err := reg.Lookup(args[0])
	if err != nil {
		return err
	}

	store := baseline.NewFileStore(cfg.Store.Dir)
	v, ok, err := store.Get(m.ID)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: no baseline yet (will bootstrap on first check)\n", m.ID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d (%s)\n", m.ID, v, store.Path(m.ID))
	return nil
}

func runBaselineSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := metric.NewRegistry(cfg.Metrics)
	if err != nil {
		return err
	}
	m, err := reg.Lookup(args[0])
	if err != nil {
		return err
	}

	value, err := strconv.Atoi(args[1])
	if err != nil || value < 0 {
		return fmt.Errorf("baseline value must be a non-negative integer, got %q", args[1])
	}

	store := baseline.NewFileStore(cfg.Store.Dir)
	prev, had, err := store.Get(m.ID)
	if err != nil {
		return err
	}
	if err := store.Set(m.ID, value); err != nil {
		return asExitError(err)
	}

	if had {
		fmt.Fprintf(cmd.OutOrStdout(), "%s baseline: %d -> %d (%s)\n", m.ID, prev, value, store.Path(m.ID))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s baseline set to %d (%s)\n", m.ID, value, store.Path(m.ID))
	}
	return nil
}
