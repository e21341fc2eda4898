package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the CLI with the given args, capturing combined output.
// Global flag state is reset afterward so invocations stay independent.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	checkAll = false
	checkList = false
	driftWrite = false
	verbose, output, cfgFile, jobs, noRg = false, "", "", 0, false
	return out.String(), err
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) }) //nolint:errcheck // test cleanup
}

// seedRepo builds a minimal repository with a ci/ baseline dir and one crate
// file carrying two production unwrap occurrences plus one excluded by the
// test-region marker.
func seedRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeRepoFile(t, root, "crates/core/src/lib.rs",
		"pub fn parse(x: Input) { x.field.unwrap(); }\n"+
			"pub fn render(y: Style) { y.color.unwrap(); }\n"+
			"#[cfg(test)]\n"+
			"mod tests {\n"+
			"    fn check() { fixture.unwrap(); }\n"+
			"}\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ci"), 0755))

	chdir(t, root)
	clearGateEnv(t)
	return root
}

func writeRepoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func clearGateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RGATE_CONFIG", "RGATE_OUTPUT", "RGATE_STORE_DIR",
		"RGATE_ENGINE", "RGATE_VERBOSE",
	} {
		t.Setenv(key, "")
	}
}

func exitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	if err != nil {
		return -1
	}
	return 0
}

func TestCheckBootstrapsOnFirstRun(t *testing.T) {
	root := seedRepo(t)

	out, err := runCommand(t, "check", "unwrap", "--no-rg")
	require.NoError(t, err)
	assert.Contains(t, out, "unwrap: 2 (baseline 2) maintained")
	assert.Contains(t, out, "baseline bootstrapped at 2")

	data, readErr := os.ReadFile(filepath.Join(root, "ci", "unwrap_baseline.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "2\n", string(data))
}

func TestCheckRatchetCycle(t *testing.T) {
	root := seedRepo(t)

	// First run bootstraps.
	_, err := runCommand(t, "check", "unwrap", "--no-rg")
	require.NoError(t, err)

	// A new occurrence regresses the gate.
	writeRepoFile(t, root, "crates/core/src/extra.rs",
		"pub fn broken(z: Thing) { z.inner.unwrap(); }\n")
	out, err := runCommand(t, "check", "unwrap", "--no-rg")
	assert.Equal(t, ExitRegression, exitCode(err))
	assert.Contains(t, out, "regressed (+1)")
	assert.Contains(t, out, "Offenders (worst files first):")
	assert.Contains(t, out, "rgate baseline set unwrap 3")

	// Deliberate acceptance unblocks the build at the new level.
	out, err = runCommand(t, "baseline", "set", "unwrap", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "unwrap baseline: 2 -> 3")

	out, err = runCommand(t, "check", "unwrap", "--no-rg")
	require.NoError(t, err)
	assert.Contains(t, out, "maintained")

	// Cleaning up one occurrence passes without touching the baseline.
	require.NoError(t, os.Remove(filepath.Join(root, "crates", "core", "src", "extra.rs")))
	out, err = runCommand(t, "check", "unwrap", "--no-rg")
	require.NoError(t, err)
	assert.Contains(t, out, "improved (-1)")
	assert.Contains(t, out, "rgate baseline set unwrap 2")

	data, readErr := os.ReadFile(filepath.Join(root, "ci", "unwrap_baseline.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "3\n", string(data), "a passing run must not rewrite the baseline")
}

func TestCheckMissingStoreDirExitsPrecondition(t *testing.T) {
	root := seedRepo(t)
	require.NoError(t, os.Remove(filepath.Join(root, "ci")))

	_, err := runCommand(t, "check", "unwrap", "--no-rg")
	assert.Equal(t, ExitPrecondition, exitCode(err))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mkdir -p")
}

func TestCheckUnknownMetric(t *testing.T) {
	seedRepo(t)

	_, err := runCommand(t, "check", "nope", "--no-rg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestCheckRequiresMetricOrAll(t *testing.T) {
	seedRepo(t)

	_, err := runCommand(t, "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metric name required")
}

func TestCheckAll(t *testing.T) {
	seedRepo(t)

	out, err := runCommand(t, "check", "--all", "--no-rg")
	require.NoError(t, err)
	assert.Contains(t, out, "unwrap:")
	assert.Contains(t, out, "todo-unlinked:")
	assert.Contains(t, out, "5 metric(s) passed")
}

func TestCheckAllReportsRegressions(t *testing.T) {
	root := seedRepo(t)

	_, err := runCommand(t, "check", "--all", "--no-rg")
	require.NoError(t, err)

	writeRepoFile(t, root, "crates/core/src/extra.rs",
		"pub fn broken(z: Thing) { z.inner.unwrap(); }\n")
	out, err := runCommand(t, "check", "--all", "--no-rg")
	assert.Equal(t, ExitRegression, exitCode(err))
	assert.Contains(t, out, "regressed")
}

func TestCheckJSONOutput(t *testing.T) {
	seedRepo(t)

	out, err := runCommand(t, "check", "unwrap", "--no-rg", "-o", "json")
	require.NoError(t, err)

	var outcome checkOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, "unwrap", outcome.Metric)
	assert.Equal(t, 2, outcome.Evaluation.Current)
	assert.True(t, outcome.Evaluation.Bootstrapped)
	assert.Equal(t, filepath.Join("ci", "unwrap_baseline.txt"), outcome.BaselinePath)
}

func TestListAlwaysExitsZero(t *testing.T) {
	seedRepo(t)

	out, err := runCommand(t, "list", "unwrap", "--no-rg")
	require.NoError(t, err)
	assert.Contains(t, out, "Offenders (worst files first):")
	assert.Contains(t, out, filepath.Join("crates", "core", "src", "lib.rs")+":1")
}

func TestMetricsTable(t *testing.T) {
	seedRepo(t)

	out, err := runCommand(t, "metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, "unwrap")
	assert.Contains(t, out, "missing-docs")
}

func TestBaselineShowBeforeAndAfterBootstrap(t *testing.T) {
	seedRepo(t)

	out, err := runCommand(t, "baseline", "show", "unwrap")
	require.NoError(t, err)
	assert.Contains(t, out, "no baseline yet")

	_, err = runCommand(t, "check", "unwrap", "--no-rg")
	require.NoError(t, err)

	out, err = runCommand(t, "baseline", "show", "unwrap")
	require.NoError(t, err)
	assert.Contains(t, out, "unwrap: 2")
}

func TestBaselineSetRejectsNegative(t *testing.T) {
	seedRepo(t)

	_, err := runCommand(t, "baseline", "set", "unwrap", "-5")
	require.Error(t, err)
}

func TestDriftWriteThenCheck(t *testing.T) {
	root := seedRepo(t)
	writeRepoFile(t, root, "features.toml",
		"[[feature]]\nname = \"textDocument/hover\"\nmaturity = \"stable\"\nadvertised = true\n")

	out, err := runCommand(t, "drift", "feature-comparison", "--write")
	require.NoError(t, err)
	assert.Contains(t, out, "regenerated docs/FEATURE_COMPARISON.md")

	out, err = runCommand(t, "drift", "feature-comparison")
	require.NoError(t, err)
	assert.Contains(t, out, "in sync")

	// Hand-editing the artifact trips the gate.
	path := filepath.Join(root, "docs", "FEATURE_COMPARISON.md")
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.NoError(t, os.WriteFile(path, append(data, []byte("| rogue row |\n")...), 0644))

	out, err = runCommand(t, "drift", "feature-comparison")
	assert.Equal(t, ExitRegression, exitCode(err))
	assert.Contains(t, out, "drift detected")
	assert.Contains(t, out, "rgate drift feature-comparison --write")
}

func TestDriftMissingSourceExitsPrecondition(t *testing.T) {
	seedRepo(t)

	_, err := runCommand(t, "drift", "feature-comparison")
	assert.Equal(t, ExitPrecondition, exitCode(err))
	assert.Contains(t, err.Error(), "features.toml")
}
