package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/EffortlessMetrics/ratchetgate/internal/baseline"
	"github.com/EffortlessMetrics/ratchetgate/internal/config"
	"github.com/EffortlessMetrics/ratchetgate/internal/drift"
	"github.com/EffortlessMetrics/ratchetgate/internal/fileset"
	"github.com/EffortlessMetrics/ratchetgate/internal/metric"
	"github.com/EffortlessMetrics/ratchetgate/internal/ratchet"
	"github.com/EffortlessMetrics/ratchetgate/internal/report"
	"github.com/EffortlessMetrics/ratchetgate/internal/scan"
)

// checkConcurrency bounds how many metrics run at once in --all mode; each
// metric already fans out across the file worker pool.
const checkConcurrency = 2

var (
	checkAll  bool
	checkList bool
)

var checkCmd = &cobra.Command{
	Use:     "check [metric]",
	Aliases: []string{"c"},
	GroupID: "checks",
	Short:   "Run a ratchet check",
	Long: `Count the metric's pattern across its file set, compare against the
persisted baseline, and fail only on regression.

Exit codes: 0 maintained/improved, 1 regressed, 2 precondition failure.
On a metric's very first run the baseline is bootstrapped to the current
count; that is the only automatic baseline write.

Examples:
  rgate check unwrap
  rgate check --all
  rgate check todo-unlinked --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkAll, "all", false, "Run every registered metric")
	checkCmd.Flags().BoolVar(&checkList, "list", false, "Print the offender listing only and exit 0")
	rootCmd.AddCommand(checkCmd)
}

// checkOutcome bundles everything one metric check produced.
type checkOutcome struct {
	Metric       string             `json:"metric"`
	Scan         *scan.Result       `json:"scan"`
	Evaluation   ratchet.Evaluation `json:"evaluation"`
	BaselinePath string             `json:"baseline_path"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := metric.NewRegistry(cfg.Metrics)
	if err != nil {
		return err
	}

	if checkAll {
		if len(args) > 0 {
			return errors.New("--all takes no metric argument")
		}
		return runCheckAll(cmd, cfg, reg)
	}
	if len(args) != 1 {
		return errors.New("metric name required (or --all)")
	}

	if checkList {
		return runList(cmd, cfg, reg, args[0])
	}

	outcome, err := runMetricCheck(cfg, reg, args[0])
	if err != nil {
		return asExitError(err)
	}

	w := cmd.OutOrStdout()
	if GetOutput(cfg) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return err
		}
	} else {
		m, _ := reg.Lookup(outcome.Metric)
		r := report.New(w, cmd.ErrOrStderr(), true)
		r.Metric(m, outcome.Scan, outcome.Evaluation, outcome.BaselinePath)
	}

	if code := outcome.Evaluation.ExitCode(); code != 0 {
		return &ExitError{Code: code, Err: fmt.Errorf("%s %s", outcome.Metric, outcome.Evaluation.Verdict.String())}
	}
	return nil
}

// runCheckAll checks every registered metric, fanning out with a bounded
// errgroup, then reports in registry order for deterministic output.
func runCheckAll(cmd *cobra.Command, cfg *config.Config, reg *metric.Registry) error {
	ids := reg.IDs()
	outcomes := make([]*checkOutcome, len(ids))
	errs := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(checkConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			outcomes[i], errs[i] = runMetricCheck(cfg, reg, id)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // per-metric errors collected in errs

	for _, err := range errs {
		if err != nil {
			return asExitError(err)
		}
	}

	w := cmd.OutOrStdout()
	if GetOutput(cfg) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcomes); err != nil {
			return err
		}
	} else {
		r := report.New(w, cmd.ErrOrStderr(), true)
		passed, failed := 0, 0
		for i, o := range outcomes {
			if i > 0 {
				fmt.Fprintln(w)
			}
			m, _ := reg.Lookup(o.Metric)
			r.Metric(m, o.Scan, o.Evaluation, o.BaselinePath)
			if o.Evaluation.Kind.Passing() {
				passed++
			} else {
				failed++
			}
		}
		r.Summary(passed, failed)
	}

	regressed := 0
	for _, o := range outcomes {
		if !o.Evaluation.Kind.Passing() {
			regressed++
		}
	}
	if regressed > 0 {
		return &ExitError{Code: ExitRegression, Err: fmt.Errorf("%d metric(s) regressed", regressed)}
	}
	return nil
}

// runMetricCheck is the single-metric pipeline: resolve files, count,
// read-or-bootstrap the baseline, evaluate.
func runMetricCheck(cfg *config.Config, reg *metric.Registry, id string) (*checkOutcome, error) {
	m, err := reg.Lookup(id)
	if err != nil {
		return nil, err
	}

	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	res, err := scanMetric(cfg, m, root)
	if err != nil {
		return nil, err
	}

	store := baseline.NewFileStore(cfg.Store.Dir)
	base, ok, err := store.Get(m.ID)
	if err != nil {
		return nil, err
	}

	bootstrapped := false
	if !ok {
		base, err = store.Bootstrap(m.ID, res.Count)
		if err != nil {
			return nil, err
		}
		bootstrapped = true
	}

	eval := ratchet.Evaluate(res.Count, base, m.Target)
	eval.Bootstrapped = bootstrapped

	return &checkOutcome{
		Metric:       m.ID,
		Scan:         res,
		Evaluation:   eval,
		BaselinePath: store.Path(m.ID),
	}, nil
}

// scanMetric resolves the metric's file set and counts matches.
func scanMetric(cfg *config.Config, m metric.Metric, root string) (*scan.Result, error) {
	resolver := fileset.NewResolver(root, cfg.Scan.ExcludeDirs)
	resolver.Warn = Warnf

	paths, err := resolver.Resolve(m.FileSet)
	if err != nil {
		return nil, err
	}
	VerbosePrintf("%s: resolved %d candidate files", m.ID, len(paths))

	engine, err := scan.DetectEngine(cfg.Scan.Engine)
	if err != nil {
		return nil, err
	}

	counter := scan.Counter{
		Engine:        engine,
		Jobs:          cfg.Jobs,
		OffenderLimit: cfg.Scan.OffenderLimit,
		Verbose:       VerbosePrintf,
	}
	res, err := counter.Run(m, paths)
	if err != nil {
		return nil, err
	}

	// Report offender paths relative to the repository root.
	for i := range res.Offenders {
		if rel, relErr := filepath.Rel(root, res.Offenders[i].Path); relErr == nil {
			res.Offenders[i].Path = rel
		}
	}
	return res, nil
}

// asExitError upgrades precondition failures to exit code 2.
func asExitError(err error) error {
	if errors.Is(err, baseline.ErrStoreDirMissing) || errors.Is(err, drift.ErrSourceMissing) {
		return &ExitError{Code: ExitPrecondition, Err: err}
	}
	return err
}
