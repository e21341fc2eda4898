// Package ratchet classifies a freshly computed count against the persisted
// baseline. The ratchet is one-directional: any improvement is free, any
// regression past the last accepted value fails the build.
package ratchet

import "fmt"

// Kind is the verdict class. Exactly one applies to any (current, baseline)
// pair.
type Kind string

const (
	// KindImproved means current < baseline.
	KindImproved Kind = "improved"

	// KindMaintained means current == baseline.
	KindMaintained Kind = "maintained"

	// KindRegressed means current > baseline.
	KindRegressed Kind = "regressed"
)

// Passing reports whether the verdict lets the build proceed.
// Maintained is a single always-passing state; there is no stricter
// "must improve" mode.
func (k Kind) Passing() bool {
	return k != KindRegressed
}

// Verdict is the core ratchet outcome.
type Verdict struct {
	// Kind is the verdict class.
	Kind Kind `json:"kind"`

	// Current is the freshly computed count.
	Current int `json:"current"`

	// Baseline is the last accepted value.
	Baseline int `json:"baseline"`

	// Delta is the absolute improvement or regression; zero for Maintained.
	Delta int `json:"delta"`
}

// ExitCode maps the verdict to the process exit convention:
// 0 for Maintained/Improved, 1 for Regressed.
func (v Verdict) ExitCode() int {
	if v.Kind == KindRegressed {
		return 1
	}
	return 0
}

// String renders the verdict in the report style, e.g. "regressed (+2)".
func (v Verdict) String() string {
	switch v.Kind {
	case KindImproved:
		return fmt.Sprintf("improved (-%d)", v.Delta)
	case KindRegressed:
		return fmt.Sprintf("regressed (+%d)", v.Delta)
	default:
		return "maintained"
	}
}

// Evaluation is the verdict plus optional target tracking. Target progress
// is informational only and never alters pass/fail.
type Evaluation struct {
	Verdict

	// Bootstrapped marks a first run that just wrote the baseline.
	Bootstrapped bool `json:"bootstrapped,omitempty"`

	// Target is the absolute goal, when the metric declares one.
	Target *int `json:"target,omitempty"`

	// Progress is (baseline-current)/(baseline-target), clamped to [0, 1].
	Progress float64 `json:"progress,omitempty"`

	// TargetAchieved is true when current <= target.
	TargetAchieved bool `json:"target_achieved,omitempty"`
}

// Evaluate classifies current against baseline and computes target progress.
func Evaluate(current, baseline int, target *int) Evaluation {
	e := Evaluation{
		Verdict: Verdict{Current: current, Baseline: baseline},
	}

	switch {
	case current > baseline:
		e.Kind = KindRegressed
		e.Delta = current - baseline
	case current < baseline:
		e.Kind = KindImproved
		e.Delta = baseline - current
	default:
		e.Kind = KindMaintained
	}

	if target != nil {
		e.Target = target
		e.TargetAchieved = current <= *target
		e.Progress = progress(current, baseline, *target)
	}

	return e
}

// progress measures how far current has moved from baseline toward target,
// clamped to [0, 1]. A baseline at or below the target means the goal was
// already met when the baseline was accepted; progress is 1 iff achieved.
func progress(current, baseline, target int) float64 {
	if baseline <= target {
		if current <= target {
			return 1
		}
		return 0
	}
	p := float64(baseline-current) / float64(baseline-target)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
