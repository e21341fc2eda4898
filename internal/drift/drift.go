// Package drift verifies that a committed derived artifact still matches
// what fresh regeneration from its structured source would produce. It
// reuses the generation logic of the canonical write path, normalizes
// volatile lines on both sides, and compares exactly.
package drift

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

// Result is the outcome of one drift check.
type Result struct {
	ArtifactID string `json:"artifact_id"`
	Path       string `json:"path"`
	InSync     bool   `json:"in_sync"`
	Diff       string `json:"diff,omitempty"`
}

// Artifact describes a derived file the detector can check: where it lives,
// what it derives from, and how to regenerate it.
type Artifact struct {
	// ID names the artifact on the CLI.
	ID string

	// Path is the committed artifact, relative to the repository root.
	Path string

	// Source is the structured data source, relative to the root. Its
	// absence is a precondition failure, never a drift.
	Source string

	// Generate regenerates the artifact text from the source.
	Generate func(root string) (string, error)
}

// artifacts is the drift registry. New derived files register here.
var artifacts = map[string]Artifact{
	"feature-comparison": {
		ID:       "feature-comparison",
		Path:     FeatureComparisonPath,
		Source:   FeaturesSource,
		Generate: GenerateFeatureComparison,
	},
}

// Lookup returns the artifact for an ID.
func Lookup(id string) (Artifact, error) {
	a, ok := artifacts[id]
	if !ok {
		return Artifact{}, fmt.Errorf("%w: %s", ErrUnknownArtifact, id)
	}
	return a, nil
}

// IDs returns the registered artifact IDs in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(artifacts))
	for id := range artifacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// volatileRules collapse per-line values that legitimately differ between
// regenerations (timestamps, commit hashes) to fixed placeholders.
var volatileRules = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`^Generated: .*$`), "Generated: <timestamp>"},
	{regexp.MustCompile(`^Commit: .*$`), "Commit: <commit>"},
}

// Normalize applies the volatile-line rewrite rules to artifact text.
func Normalize(text string) string {
	lines := difflib.SplitLines(text)
	for i, line := range lines {
		for _, rule := range volatileRules {
			trimmed := trimEOL(line)
			if rule.re.MatchString(trimmed) {
				lines[i] = rule.replacement + line[len(trimmed):]
				break
			}
		}
	}
	out := ""
	for _, l := range lines {
		out += l
	}
	return out
}

// Check regenerates the artifact and compares it to the committed copy.
// A missing committed artifact counts as drift (diff against empty); a
// missing source is a precondition failure surfaced by Generate.
func Check(root string, a Artifact) (*Result, error) {
	fresh, err := a.Generate(root)
	if err != nil {
		return nil, err
	}

	committedPath := filepath.Join(root, a.Path)
	committedBytes, err := os.ReadFile(committedPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", committedPath, err)
	}

	committed := Normalize(string(committedBytes))
	regenerated := Normalize(fresh)

	res := &Result{ArtifactID: a.ID, Path: a.Path}
	if committed == regenerated {
		res.InSync = true
		return res, nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(committed),
		B:        difflib.SplitLines(regenerated),
		FromFile: a.Path + " (committed)",
		ToFile:   a.Path + " (regenerated)",
		Context:  3,
	})
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", a.Path, err)
	}
	res.Diff = diff
	return res, nil
}

// Write regenerates the artifact in place: remediation step one.
func Write(root string, a Artifact) error {
	fresh, err := a.Generate(root)
	if err != nil {
		return err
	}

	path := filepath.Join(root, a.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(fresh), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// trimEOL strips the trailing newline difflib keeps on split lines.
func trimEOL(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
