package scan

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// RipgrepTimeout is the maximum duration to wait for one ripgrep invocation.
const RipgrepTimeout = 30 * time.Second

// ripgrepArgBatch bounds argv length per invocation.
const ripgrepArgBatch = 500

// Engine narrows a candidate file list to files containing at least one raw
// pattern match. It is a pure pre-filter: the in-process counter applies the
// exclusion rules, so an engine may over-report files but never under-report.
type Engine interface {
	// Name identifies the engine in verbose output.
	Name() string

	// FilesWithMatch returns the subset of paths containing a match,
	// preserving the input order.
	FilesWithMatch(paths []string, pattern string) ([]string, error)
}

// Ripgrep shells out to rg for fast file narrowing on large trees.
type Ripgrep struct {
	bin     string
	timeout time.Duration
}

// NewRipgrep locates rg on PATH. Callers treat an error as "engine
// unavailable" and scan without a pre-filter; it is never fatal.
func NewRipgrep() (*Ripgrep, error) {
	bin, err := exec.LookPath("rg")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return &Ripgrep{bin: bin, timeout: RipgrepTimeout}, nil
}

// Name returns the engine name.
func (r *Ripgrep) Name() string { return "ripgrep" }

// FilesWithMatch runs `rg -l` over the paths in batches and returns the
// matching subset in input order.
func (r *Ripgrep) FilesWithMatch(paths []string, pattern string) ([]string, error) {
	matched := make(map[string]bool)

	for start := 0; start < len(paths); start += ripgrepArgBatch {
		end := start + ripgrepArgBatch
		if end > len(paths) {
			end = len(paths)
		}
		if err := r.runBatch(paths[start:end], pattern, matched); err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(matched))
	for _, p := range paths {
		if matched[p] {
			out = append(out, p)
		}
	}
	return out, nil
}

// runBatch invokes rg once and records matching paths.
func (r *Ripgrep) runBatch(paths []string, pattern string, matched map[string]bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	args := []string{"-l", "--no-messages", "-e", pattern}
	args = append(args, paths...)

	out, err := exec.CommandContext(ctx, r.bin, args...).Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("ripgrep timeout after %s", r.timeout)
		}
		// Exit code 1 means no matches, which is a valid result.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil
		}
		return fmt.Errorf("ripgrep: %w", err)
	}

	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line != "" {
			matched[line] = true
		}
	}
	return nil
}

// DetectEngine picks the pre-filter engine. Selection values: "auto" prefers
// ripgrep and falls back to no pre-filter, "rg" requires ripgrep, "internal"
// disables the pre-filter. A nil engine means every candidate file is scanned
// in-process, which is slower but always available.
func DetectEngine(selection string) (Engine, error) {
	switch selection {
	case "", "auto":
		eng, err := NewRipgrep()
		if err != nil {
			return nil, nil // fall back silently; never fail on a missing optional tool
		}
		return eng, nil
	case "rg":
		return NewRipgrep()
	case "internal":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown scan engine %q", selection)
	}
}
