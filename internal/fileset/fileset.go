// Package fileset expands a metric's include/exclude rules into a
// deterministic file list. The walk order is lexical and the result is
// re-sorted, so the list is stable across platforms and filesystems.
package fileset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/EffortlessMetrics/ratchetgate/internal/metric"
)

// Resolver expands a FileSet under a repository root.
type Resolver struct {
	// Root is the repository root all FileSet paths are relative to.
	Root string

	// DefaultExcludeDirs apply to every metric on top of its own denylist
	// (e.g. .git, vendored trees).
	DefaultExcludeDirs []string

	// Warn receives non-fatal resolution problems (unreadable directories).
	// Nil means warnings are dropped.
	Warn func(format string, args ...any)
}

// NewResolver creates a resolver rooted at the given directory.
func NewResolver(root string, defaultExcludeDirs []string) *Resolver {
	return &Resolver{Root: root, DefaultExcludeDirs: defaultExcludeDirs}
}

// Resolve returns the sorted candidate files for a file set. Symlinks are
// never followed. A root that does not exist is skipped with a warning:
// metrics may name optional trees (e.g. a gap corpus that was deleted).
func (r *Resolver) Resolve(spec metric.FileSet) ([]string, error) {
	roots := spec.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}

	excludeDirs := append([]string{}, r.DefaultExcludeDirs...)
	excludeDirs = append(excludeDirs, spec.ExcludeDirs...)

	seen := make(map[string]bool)
	var files []string

	for _, rel := range roots {
		rootDir := filepath.Join(r.Root, rel)
		info, err := os.Lstat(rootDir)
		if err != nil {
			r.warnf("skip missing root %s", rel)
			continue
		}
		if !info.IsDir() {
			// A root may name a single file directly.
			if r.accept(rootDir, spec, excludeDirs) && !seen[rootDir] {
				seen[rootDir] = true
				files = append(files, rootDir)
			}
			continue
		}

		err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				r.warnf("skip unreadable %s: %v", path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				// Do not follow symlinks; they may escape the root.
				return nil
			}
			if d.IsDir() {
				if path != rootDir && r.dirExcluded(path, excludeDirs) {
					return fs.SkipDir
				}
				return nil
			}
			if r.accept(path, spec, excludeDirs) && !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", rel, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// accept decides whether a file belongs to the set.
func (r *Resolver) accept(path string, spec metric.FileSet, excludeDirs []string) bool {
	rel, err := filepath.Rel(r.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)

	if r.dirExcluded(filepath.Dir(path), excludeDirs) {
		return false
	}
	if !matchIncludes(base, spec.Include) {
		return false
	}
	for _, ex := range spec.ExcludeFiles {
		if rel == filepath.ToSlash(ex) || base == ex {
			return false
		}
	}
	return true
}

// dirExcluded reports whether any component of the directory, or its
// root-relative prefix, appears in the denylist.
func (r *Resolver) dirExcluded(dir string, excludeDirs []string) bool {
	rel, err := filepath.Rel(r.Root, dir)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	components := strings.Split(rel, "/")

	for _, ex := range excludeDirs {
		ex = filepath.ToSlash(ex)
		if strings.Contains(ex, "/") {
			if rel == ex || strings.HasPrefix(rel, ex+"/") {
				return true
			}
			continue
		}
		for _, c := range components {
			if c == ex {
				return true
			}
		}
	}
	return false
}

// matchIncludes matches a base name against the include globs.
// An empty include list accepts everything.
func matchIncludes(base string, includes []string) bool {
	if len(includes) == 0 {
		return true
	}
	for _, glob := range includes {
		if ok, err := filepath.Match(glob, base); err == nil && ok {
			return true
		}
	}
	return false
}

func (r *Resolver) warnf(format string, args ...any) {
	if r.Warn != nil {
		r.Warn(format, args...)
	}
}
