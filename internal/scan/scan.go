// Package scan counts pattern matches across a resolved file list, applying
// the metric's exclusion rules: region exclusion, comment-grammar anchoring,
// reference lookahead, and preceding-line exclusion. Counting is a pure
// function of working-tree content; nothing is cached between runs.
package scan

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/EffortlessMetrics/ratchetgate/internal/metric"
	"github.com/EffortlessMetrics/ratchetgate/internal/worker"
)

const (
	// DefaultOffenderLimit bounds the offender listing in reports.
	DefaultOffenderLimit = 20

	// snippetMaxLength truncates long offender snippets.
	snippetMaxLength = 120

	// binarySniffLength is how many leading bytes are checked for NUL.
	binarySniffLength = 8000
)

// Offender is one counted match, reported as remediation context.
type Offender struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

// Result is the outcome of scanning one metric over one file list.
// Recomputed fresh on every invocation.
type Result struct {
	MetricID  string     `json:"metric_id"`
	Count     int        `json:"count"`
	Files     int        `json:"files_scanned"`
	Offenders []Offender `json:"offenders,omitempty"`
	Warnings  []string   `json:"warnings,omitempty"`
}

// Counter runs metric scans. The zero value scans in-process with default
// concurrency and offender limit.
type Counter struct {
	// Engine pre-filters candidate files. Nil scans everything in-process.
	Engine Engine

	// Jobs is the worker-pool size; <= 0 uses NumCPU.
	Jobs int

	// OffenderLimit caps the reported offender list; <= 0 uses the default.
	OffenderLimit int

	// Verbose receives progress notes. Nil disables them.
	Verbose func(format string, args ...any)
}

// compiledMetric holds the metric's patterns in compiled form.
type compiledMetric struct {
	metric        metric.Metric
	pattern       *regexp.Regexp
	ref           *regexp.Regexp
	region        *regexp.Regexp
	notPrecededBy *regexp.Regexp
}

// fileTally is the per-file partial result merged by simple reduction.
type fileTally struct {
	path      string
	count     int
	offenders []Offender
}

// Run counts matches of the metric's pattern across the given files.
func (c *Counter) Run(m metric.Metric, paths []string) (*Result, error) {
	cm, err := compileMetric(m)
	if err != nil {
		return nil, err
	}

	res := &Result{MetricID: m.ID}

	candidates := paths
	if c.Engine != nil {
		filtered, err := c.Engine.FilesWithMatch(paths, m.Pattern)
		if err != nil {
			// The fast engine is optional; its failure is never fatal.
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s pre-filter failed, scanning all files: %v", c.Engine.Name(), err))
		} else {
			c.verbosef("%s narrowed %d files to %d", c.Engine.Name(), len(paths), len(filtered))
			candidates = filtered
		}
	}

	pool := worker.NewPool[string, fileTally](c.Jobs)
	tallies := pool.Process(candidates, func(path string) (fileTally, error) {
		return scanFile(path, cm)
	})

	perFile := make(map[string]int)
	for _, t := range tallies {
		if t.Err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("skipped %s: %v", candidates[t.Index], t.Err))
			continue
		}
		res.Files++
		res.Count += t.Value.count
		perFile[t.Value.path] = t.Value.count
		res.Offenders = append(res.Offenders, t.Value.offenders...)
	}

	sortOffenders(res.Offenders, perFile)

	limit := c.OffenderLimit
	if limit <= 0 {
		limit = DefaultOffenderLimit
	}
	if len(res.Offenders) > limit {
		res.Offenders = res.Offenders[:limit]
	}

	return res, nil
}

// compileMetric compiles the metric's patterns once per run.
func compileMetric(m metric.Metric) (*compiledMetric, error) {
	cm := &compiledMetric{metric: m}

	var err error
	if cm.pattern, err = regexp.Compile(m.Pattern); err != nil {
		return nil, fmt.Errorf("metric %s: compile pattern: %w", m.ID, err)
	}
	if m.RefPattern != "" {
		if cm.ref, err = regexp.Compile(m.RefPattern); err != nil {
			return nil, fmt.Errorf("metric %s: compile ref pattern: %w", m.ID, err)
		}
	}
	if m.RegionMarker != "" {
		if cm.region, err = regexp.Compile(m.RegionMarker); err != nil {
			return nil, fmt.Errorf("metric %s: compile region marker: %w", m.ID, err)
		}
	}
	if m.NotPrecededBy != "" {
		if cm.notPrecededBy, err = regexp.Compile(m.NotPrecededBy); err != nil {
			return nil, fmt.Errorf("metric %s: compile not-preceded-by: %w", m.ID, err)
		}
	}
	return cm, nil
}

// scanFile counts matches in one file, applying all exclusion rules.
func scanFile(path string, cm *compiledMetric) (fileTally, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileTally{}, err
	}
	if isBinary(data) {
		return fileTally{}, ErrBinaryFile
	}

	lines := strings.Split(string(data), "\n")

	// Region exclusion: matches at or after the first marker line are out.
	limit := len(lines)
	if cm.region != nil {
		for i, line := range lines {
			if cm.region.MatchString(line) {
				limit = i
				break
			}
		}
	}

	var grammar *CommentGrammar
	if cm.metric.Grammar {
		grammar = GrammarForExtension(filepath.Ext(path))
	}

	t := fileTally{path: path}
	for i := 0; i < limit; i++ {
		line := lines[i]
		n := countLineMatches(line, cm, grammar)
		if n == 0 {
			continue
		}
		if cm.notPrecededBy != nil && precededBy(lines, i, cm.notPrecededBy) {
			continue
		}
		if cm.metric.Mode == metric.ModeLines {
			t.count++
		} else {
			t.count += n
		}
		t.offenders = append(t.offenders, Offender{
			Path:    path,
			Line:    i + 1,
			Snippet: snippet(line),
		})
	}
	return t, nil
}

// countLineMatches counts pattern matches on one line after grammar
// anchoring and reference lookahead.
func countLineMatches(line string, cm *compiledMetric, grammar *CommentGrammar) int {
	locs := cm.pattern.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return 0
	}

	n := 0
	for _, loc := range locs {
		if grammar != nil && !grammar.Anchored(line, loc[0]) {
			continue
		}
		// A marker immediately followed by a structured reference is linked
		// and does not count.
		if cm.ref != nil && cm.ref.MatchString(line[loc[1]:]) {
			continue
		}
		n++
	}
	return n
}

// precededBy reports whether the nearest preceding non-blank line matches re.
func precededBy(lines []string, i int, re *regexp.Regexp) bool {
	for j := i - 1; j >= 0; j-- {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}
		return re.MatchString(lines[j])
	}
	return false
}

// sortOffenders orders by descending per-file count, then path, then line.
func sortOffenders(offenders []Offender, perFile map[string]int) {
	sort.Slice(offenders, func(i, j int) bool {
		ci, cj := perFile[offenders[i].Path], perFile[offenders[j].Path]
		if ci != cj {
			return ci > cj
		}
		if offenders[i].Path != offenders[j].Path {
			return offenders[i].Path < offenders[j].Path
		}
		return offenders[i].Line < offenders[j].Line
	})
}

// isBinary sniffs for a NUL byte in the leading bytes.
func isBinary(data []byte) bool {
	n := len(data)
	if n > binarySniffLength {
		n = binarySniffLength
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

// snippet trims and truncates a line for the offender listing.
func snippet(line string) string {
	s := strings.TrimSpace(line)
	if len(s) > snippetMaxLength {
		s = s[:snippetMaxLength-3] + "..."
	}
	return s
}

func (c *Counter) verbosef(format string, args ...any) {
	if c.Verbose != nil {
		c.Verbose(format, args...)
	}
}
