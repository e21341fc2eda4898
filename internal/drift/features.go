package drift

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// FeaturesSource is the structured audit source at the repository root.
	FeaturesSource = "features.toml"

	// FeatureComparisonPath is the committed derived artifact.
	FeatureComparisonPath = "docs/FEATURE_COMPARISON.md"

	// gitTimeout bounds the commit-hash lookup; the hash is normalized away
	// during comparison, so a slow or absent git never blocks the check.
	gitTimeout = 5 * time.Second
)

// Feature is one entry of the audit source.
type Feature struct {
	// Name is the feature identifier (e.g. an LSP method).
	Name string `toml:"name"`

	// Maturity is one of planned, experimental, beta, stable.
	Maturity string `toml:"maturity"`

	// Advertised marks features that count toward the public metric.
	Advertised bool `toml:"advertised"`

	// CountsInCoverage opts a feature out of the coverage percentage.
	CountsInCoverage *bool `toml:"counts_in_coverage"`

	// Notes is free-form context carried into the table.
	Notes string `toml:"notes"`
}

// featuresFile is the top-level TOML document.
type featuresFile struct {
	Feature []Feature `toml:"feature"`
}

// loadFeatures decodes the audit source.
func loadFeatures(path string) ([]Feature, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s (produced by the feature audit; run the audit first)",
			ErrSourceMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var f featuresFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return f.Feature, nil
}

// GenerateFeatureComparison renders the comparison table from features.toml.
// The output is deterministic apart from the Generated/Commit header lines,
// which the drift comparison normalizes away.
func GenerateFeatureComparison(root string) (string, error) {
	features, err := loadFeatures(filepath.Join(root, FeaturesSource))
	if err != nil {
		return "", err
	}

	sorted := make([]Feature, len(features))
	copy(sorted, features)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	b.WriteString("# Feature Comparison\n")
	b.WriteString("\n")
	b.WriteString("<!-- Derived from features.toml. Do not edit by hand; regenerate instead. -->\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Commit: %s\n", headCommit(root))
	b.WriteString("\n")
	b.WriteString("| Feature | Maturity | Advertised | Notes |\n")
	b.WriteString("|---------|----------|------------|-------|\n")

	covered, total := 0, 0
	for _, f := range sorted {
		adv := "no"
		if f.Advertised {
			adv = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", f.Name, f.Maturity, adv, f.Notes)

		if !f.Advertised || (f.CountsInCoverage != nil && !*f.CountsInCoverage) {
			continue
		}
		total++
		if f.Maturity != "planned" {
			covered++
		}
	}

	b.WriteString("\n")
	pct := 0.0
	if total > 0 {
		pct = float64(covered) / float64(total) * 100
	}
	fmt.Fprintf(&b, "**Coverage**: %d/%d advertised features implemented (%.1f%%).\n", covered, total, pct)

	return b.String(), nil
}

// headCommit returns the short HEAD hash, or "unknown" outside a repo.
func headCommit(root string) string {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--short", "HEAD")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}
