package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EffortlessMetrics/ratchetgate/internal/config"
)

var (
	// Global flags
	verbose bool
	output  string
	cfgFile string
	jobs    int
	noRg    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rgate",
	Short: "One-directional CI quality gates",
	Long: `rgate is a ratchet gate runner: it counts occurrences of an
undesirable pattern across the source tree, compares the count against a
persisted baseline, and fails the build only when the count regresses.
Improvement is always free; sliding back requires a deliberate baseline bump.

Checks:
  check (c)    Run a ratchet check for one metric, or --all
  list (l)     Print the offender listing for a metric
  drift        Verify a generated artifact matches fresh regeneration

Management:
  metrics      Show the registered metric table
  baseline     Show or explicitly update a metric's baseline
  version      Show version information

Baselines live in ci/<metric>_baseline.txt; the only automatic write is the
one-time bootstrap on a metric's very first run. Run from the repository root.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *ExitError
		if errors.As(err, &ee) {
			os.Exit(ee.Code)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .ratchet/config.yaml)")
	rootCmd.PersistentFlags().IntVarP(&jobs, "jobs", "j", 0, "Scan worker count (default: all CPUs)")
	rootCmd.PersistentFlags().BoolVar(&noRg, "no-rg", false, "Disable the ripgrep pre-filter")

	rootCmd.AddGroup(
		&cobra.Group{ID: "checks", Title: "Checks:"},
		&cobra.Group{ID: "management", Title: "Management:"},
	)
}

// loadConfig resolves configuration with flag overrides applied.
func loadConfig() (*config.Config, error) {
	overrides := &config.Config{
		Output:  output,
		Verbose: verbose,
		Jobs:    jobs,
	}
	if noRg {
		overrides.Scan.Engine = "internal"
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// GetOutput returns the effective output format for use by subcommands.
func GetOutput(cfg *config.Config) string {
	if cfg != nil && cfg.Output != "" {
		return cfg.Output
	}
	return "table"
}

// VerbosePrintf prints only when verbose mode is enabled.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// Warnf prints a warning to stderr.
func Warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(cfgFile)
	if path == "" {
		return
	}
	_ = os.Setenv("RGATE_CONFIG", path)
}
