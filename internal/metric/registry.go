package metric

import (
	"fmt"
	"sort"
)

// Registry holds the active metric set: the built-in table plus any metrics
// declared or overridden in project configuration.
type Registry struct {
	metrics map[string]Metric
}

// Builtins returns the built-in metric table. Each entry used to be a
// standalone check script; here it is data driving one shared engine.
func Builtins() []Metric {
	return []Metric{
		{
			ID:           "unwrap",
			Description:  "panic-prone unwrap/expect calls in production code",
			Pattern:      `\.unwrap\(\)|\.expect\(`,
			RegionMarker: `#\[cfg\(test\)\]|^mod tests\b`,
			Mode:         ModeOccurrences,
			FileSet: FileSet{
				Roots:       []string{"crates"},
				Include:     []string{"*.rs"},
				ExcludeDirs: []string{"legacy", "target", "tests", "benches"},
			},
			Target: intPtr(0),
			Hint:   "replace with explicit error propagation (? or match)",
		},
		{
			ID:            "missing-docs",
			Description:   "public items without a doc comment",
			Pattern:       `^\s*pub (fn|struct|enum|trait|mod|const|type) `,
			NotPrecededBy: `^\s*(///|//!|#\[)`,
			Mode:          ModeLines,
			FileSet: FileSet{
				Roots:       []string{"crates/perl-parser/src"},
				Include:     []string{"*.rs"},
				ExcludeDirs: []string{"target"},
			},
			Hint: "add /// docs to new public items",
		},
		{
			ID:          "ignored-tests",
			Description: "tests disabled with #[ignore]",
			Pattern:     `#\[ignore`,
			Mode:        ModeLines,
			FileSet: FileSet{
				Roots:       []string{"crates", "tests"},
				Include:     []string{"*.rs"},
				ExcludeDirs: []string{"legacy", "target"},
			},
			Hint: "fix or delete the test instead of ignoring it",
		},
		{
			ID:          "todo-unlinked",
			Description: "TODO/FIXME markers without an issue reference",
			Pattern:     `\b(TODO|FIXME)\b`,
			RefPattern:  `^\(#[0-9]+\)`,
			Grammar:     true,
			Mode:        ModeOccurrences,
			FileSet: FileSet{
				Roots:       []string{"crates", "scripts", "xtask"},
				Include:     []string{"*.rs", "*.pl", "*.pm", "*.py", "*.sh", "*.go"},
				ExcludeDirs: []string{"legacy", "target", "corpus"},
			},
			Target: intPtr(0),
			Hint:   "link the marker to an issue: TODO(#123): ...",
		},
		{
			ID:          "parse-errors",
			Description: "unsupported-syntax ERROR nodes in corpus expectations",
			Pattern:     `\(ERROR`,
			Mode:        ModeOccurrences,
			FileSet: FileSet{
				Roots:   []string{"tree-sitter-perl/test/corpus", "test_corpus"},
				Include: []string{"*.txt", "*.corpus"},
			},
			Hint: "extend the grammar until the construct parses cleanly",
		},
	}
}

// NewRegistry builds a registry from the built-in table plus overrides.
// An override with a known ID replaces non-zero fields of the built-in;
// an override with a new ID registers a new metric.
func NewRegistry(overrides []Metric) (*Registry, error) {
	r := &Registry{metrics: make(map[string]Metric)}

	for _, m := range Builtins() {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		r.metrics[m.ID] = m
	}

	seen := make(map[string]bool)
	for _, o := range overrides {
		if o.ID == "" {
			return nil, ErrMissingID
		}
		if seen[o.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMetric, o.ID)
		}
		seen[o.ID] = true

		merged := o
		if base, ok := r.metrics[o.ID]; ok {
			merged = mergeMetric(base, o)
		}
		if err := merged.Validate(); err != nil {
			return nil, err
		}
		r.metrics[merged.ID] = merged
	}

	return r, nil
}

// Lookup returns the metric for an ID.
func (r *Registry) Lookup(id string) (Metric, error) {
	m, ok := r.metrics[id]
	if !ok {
		return Metric{}, fmt.Errorf("%w: %s", ErrUnknownMetric, id)
	}
	return m, nil
}

// IDs returns all registered metric IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.metrics))
	for id := range r.metrics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns all registered metrics sorted by ID.
func (r *Registry) All() []Metric {
	out := make([]Metric, 0, len(r.metrics))
	for _, id := range r.IDs() {
		out = append(out, r.metrics[id])
	}
	return out
}

// mergeMetric overlays non-zero override fields on a base metric.
func mergeMetric(base, o Metric) Metric {
	m := base
	if o.Description != "" {
		m.Description = o.Description
	}
	if o.Pattern != "" {
		m.Pattern = o.Pattern
	}
	if o.RefPattern != "" {
		m.RefPattern = o.RefPattern
	}
	if o.RegionMarker != "" {
		m.RegionMarker = o.RegionMarker
	}
	if o.NotPrecededBy != "" {
		m.NotPrecededBy = o.NotPrecededBy
	}
	if o.Grammar {
		m.Grammar = true
	}
	if o.Mode != "" {
		m.Mode = o.Mode
	}
	if !o.FileSet.IsZero() {
		m.FileSet = o.FileSet
	}
	if o.Target != nil {
		m.Target = o.Target
	}
	if o.Hint != "" {
		m.Hint = o.Hint
	}
	return m
}

func intPtr(v int) *int { return &v }
