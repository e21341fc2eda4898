// Package metric defines the declarative metric table driving the ratchet
// engine. Each former per-check script is a Metric record: the pattern to
// count, the files to scan, the exclusions to apply, and the counting mode.
package metric

import (
	"fmt"
	"regexp"
)

// Mode selects how matches on a line contribute to the count.
type Mode string

const (
	// ModeLines counts each line with at least one match once.
	ModeLines Mode = "lines"

	// ModeOccurrences counts every match, including repeats on one line.
	ModeOccurrences Mode = "occurrences"
)

// IsValid returns true for a recognized counting mode.
func (m Mode) IsValid() bool {
	return m == ModeLines || m == ModeOccurrences
}

// FileSet describes which files a metric scans.
type FileSet struct {
	// Roots are the directories to walk, relative to the repository root.
	Roots []string `yaml:"roots"`

	// Include are glob patterns matched against file base names (e.g. "*.rs").
	Include []string `yaml:"include"`

	// ExcludeDirs prunes whole subtrees. Entries match either a single path
	// component ("legacy") or a root-relative prefix ("crates/legacy-parser").
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// ExcludeFiles removes individual files even when an include glob matches.
	// Entries match the root-relative path or the base name.
	ExcludeFiles []string `yaml:"exclude_files"`
}

// IsZero reports whether the file set carries no rules at all.
func (f FileSet) IsZero() bool {
	return len(f.Roots) == 0 && len(f.Include) == 0 &&
		len(f.ExcludeDirs) == 0 && len(f.ExcludeFiles) == 0
}

// Metric is one ratchet check, defined at configuration time and immutable
// afterwards.
type Metric struct {
	// ID is the metric identifier, also the baseline file stem.
	ID string `yaml:"id"`

	// Description is a one-line summary shown in listings.
	Description string `yaml:"description"`

	// Pattern is the RE2 pattern whose matches are counted.
	Pattern string `yaml:"pattern"`

	// RefPattern, when set, excludes a match immediately followed by text
	// matching this pattern (e.g. a parenthesized issue reference). Used by
	// unlinked-marker metrics; RE2 has no lookahead, so this is checked
	// against the text after each match.
	RefPattern string `yaml:"ref_pattern"`

	// RegionMarker, when set, excludes matches at or after the first line
	// matching it (e.g. an inline test-section marker). Only the first
	// occurrence matters.
	RegionMarker string `yaml:"region_marker"`

	// NotPrecededBy, when set, excludes a matching line whose nearest
	// preceding non-blank line matches it (e.g. a doc comment above a
	// public item).
	NotPrecededBy string `yaml:"not_preceded_by"`

	// Grammar enables comment-grammar anchoring: the match must sit inside
	// a comment for the file's language, per the grammar registry.
	Grammar bool `yaml:"grammar"`

	// Mode is the counting mode. Defaults to ModeLines.
	Mode Mode `yaml:"mode"`

	// FileSet restricts the scan. Empty fields fall back to the defaults.
	FileSet FileSet `yaml:"fileset"`

	// Target is an optional absolute goal stricter than the baseline.
	// Reaching it is reported but never changes pass/fail.
	Target *int `yaml:"target"`

	// Hint is the remediation hint shown on regression.
	Hint string `yaml:"hint"`
}

// Validate checks that the metric is well-formed and its patterns compile.
func (m *Metric) Validate() error {
	if m.ID == "" {
		return ErrMissingID
	}
	if m.Pattern == "" {
		return fmt.Errorf("metric %s: %w", m.ID, ErrMissingPattern)
	}
	if m.Mode == "" {
		m.Mode = ModeLines
	}
	if !m.Mode.IsValid() {
		return fmt.Errorf("metric %s: invalid mode %q", m.ID, m.Mode)
	}
	for _, p := range []string{m.Pattern, m.RefPattern, m.RegionMarker, m.NotPrecededBy} {
		if p == "" {
			continue
		}
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("metric %s: compile %q: %w", m.ID, p, err)
		}
	}
	return nil
}
