// Package report renders ratchet verdicts, offender listings, and drift
// results for humans. CI-consumable JSON output lives in the command layer;
// this package owns the terminal rendering only.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/EffortlessMetrics/ratchetgate/internal/drift"
	"github.com/EffortlessMetrics/ratchetgate/internal/metric"
	"github.com/EffortlessMetrics/ratchetgate/internal/ratchet"
	"github.com/EffortlessMetrics/ratchetgate/internal/scan"
)

// Reporter renders check results to a writer.
type Reporter struct {
	w    io.Writer
	errW io.Writer

	green  func(a ...interface{}) string
	red    func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
}

// New creates a reporter. When colored is false all sprint funcs degrade to
// plain text (piped output, --output json runs).
func New(w, errW io.Writer, colored bool) *Reporter {
	r := &Reporter{w: w, errW: errW}
	if colored {
		r.green = color.New(color.FgGreen).SprintFunc()
		r.red = color.New(color.FgRed, color.Bold).SprintFunc()
		r.yellow = color.New(color.FgYellow).SprintFunc()
		r.cyan = color.New(color.FgCyan, color.Bold).SprintFunc()
		r.gray = color.New(color.FgHiBlack).SprintFunc()
	} else {
		plain := func(a ...interface{}) string { return fmt.Sprint(a...) }
		r.green, r.red, r.yellow, r.cyan, r.gray = plain, plain, plain, plain, plain
	}
	return r
}

// Metric renders the full verdict block for one metric check.
func (r *Reporter) Metric(m metric.Metric, res *scan.Result, eval ratchet.Evaluation, baselinePath string) {
	r.warnings(res.Warnings)

	verdict := r.colorVerdict(eval)
	fmt.Fprintf(r.w, "%s: %d (baseline %d) %s%s\n",
		r.cyan(m.ID), eval.Current, eval.Baseline, verdict, r.deltaPct(eval))

	if eval.Bootstrapped {
		fmt.Fprintf(r.w, "  baseline bootstrapped at %d (%s)\n", eval.Baseline, baselinePath)
	}

	if eval.Target != nil {
		if eval.TargetAchieved {
			fmt.Fprintf(r.w, "  %s target %d reached\n", r.green("✓"), *eval.Target)
		} else {
			fmt.Fprintf(r.w, "  progress toward target %d: %.0f%%\n", *eval.Target, eval.Progress*100)
		}
	}

	switch eval.Kind {
	case ratchet.KindImproved:
		fmt.Fprintf(r.w, "  lock in the win: rgate baseline set %s %d\n", m.ID, eval.Current)
	case ratchet.KindRegressed:
		fmt.Fprintln(r.w)
		r.Offenders(res)
		fmt.Fprintln(r.w)
		fmt.Fprintf(r.w, "To fix, either:\n")
		hint := m.Hint
		if hint == "" {
			hint = "remove the new occurrences"
		}
		fmt.Fprintf(r.w, "  1. %s\n", hint)
		fmt.Fprintf(r.w, "  2. or accept the new level deliberately (auditable in review):\n")
		fmt.Fprintf(r.w, "     rgate baseline set %s %d   # updates %s\n", m.ID, eval.Current, baselinePath)
	}
}

// Offenders renders the offender listing.
func (r *Reporter) Offenders(res *scan.Result) {
	if len(res.Offenders) == 0 {
		fmt.Fprintf(r.w, "no offenders\n")
		return
	}
	fmt.Fprintf(r.w, "Offenders (worst files first):\n")
	for _, o := range res.Offenders {
		fmt.Fprintf(r.w, "  %s:%d  %s\n", o.Path, o.Line, r.gray(o.Snippet))
	}
}

// Drift renders a drift-check result.
func (r *Reporter) Drift(res *drift.Result) {
	if res.InSync {
		fmt.Fprintf(r.w, "%s: %s\n", r.cyan(res.ArtifactID), r.green("in sync"))
		return
	}
	fmt.Fprintf(r.w, "%s: %s — %s has drifted from its source\n",
		r.cyan(res.ArtifactID), r.red("drift detected"), res.Path)
	fmt.Fprintln(r.w)
	fmt.Fprint(r.w, res.Diff)
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "To fix:\n")
	fmt.Fprintf(r.w, "  1. regenerate: rgate drift %s --write\n", res.ArtifactID)
	fmt.Fprintf(r.w, "  2. commit the regenerated %s\n", res.Path)
}

// Summary renders the one-line roll-up for check --all.
func (r *Reporter) Summary(passed, failed int) {
	if failed == 0 {
		fmt.Fprintf(r.w, "\n%s %d metric(s) passed\n", r.green("✓"), passed)
		return
	}
	fmt.Fprintf(r.w, "\n%s %d metric(s) passed, %d regressed\n", r.red("✗"), passed, failed)
}

// warnings prints scan warnings to the error stream.
func (r *Reporter) warnings(ws []string) {
	for _, w := range ws {
		fmt.Fprintf(r.errW, "%s %s\n", r.yellow("warning:"), w)
	}
}

// colorVerdict picks the verdict color.
func (r *Reporter) colorVerdict(eval ratchet.Evaluation) string {
	switch eval.Kind {
	case ratchet.KindImproved:
		return r.green(eval.Verdict.String())
	case ratchet.KindRegressed:
		return r.red(eval.Verdict.String())
	default:
		return r.yellow(eval.Verdict.String())
	}
}

// deltaPct renders the relative change when the baseline is non-zero.
func (r *Reporter) deltaPct(eval ratchet.Evaluation) string {
	if eval.Delta == 0 || eval.Baseline == 0 {
		return ""
	}
	pct := float64(eval.Delta) / float64(eval.Baseline) * 100
	return r.gray(fmt.Sprintf(" [%.1f%%]", pct))
}
