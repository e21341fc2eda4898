package fileset

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EffortlessMetrics/ratchetgate/internal/metric"
)

// buildTree creates the given relative files (empty content) under a temp
// root and returns the root.
func buildTree(t *testing.T, rels ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range rels {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x\n"), 0644))
	}
	return root
}

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestResolveIncludeGlobs(t *testing.T) {
	root := buildTree(t,
		"crates/core/src/lib.rs",
		"crates/core/src/main.rs",
		"crates/core/README.md",
		"crates/core/build.py",
	)
	r := NewResolver(root, nil)

	files, err := r.Resolve(metric.FileSet{Roots: []string{"crates"}, Include: []string{"*.rs"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"crates/core/src/lib.rs", "crates/core/src/main.rs"}, relAll(t, root, files))
}

func TestResolveExcludeDirByComponent(t *testing.T) {
	root := buildTree(t,
		"crates/core/src/lib.rs",
		"crates/legacy/old.rs",
		"crates/core/legacy/older.rs",
	)
	r := NewResolver(root, nil)

	files, err := r.Resolve(metric.FileSet{
		Roots:       []string{"crates"},
		Include:     []string{"*.rs"},
		ExcludeDirs: []string{"legacy"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"crates/core/src/lib.rs"}, relAll(t, root, files))
}

func TestResolveExcludeDirByPathPrefix(t *testing.T) {
	root := buildTree(t,
		"crates/core/src/lib.rs",
		"crates/extra/src/lib.rs",
	)
	r := NewResolver(root, nil)

	files, err := r.Resolve(metric.FileSet{
		Roots:       []string{"crates"},
		Include:     []string{"*.rs"},
		ExcludeDirs: []string{"crates/extra"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"crates/core/src/lib.rs"}, relAll(t, root, files))
}

func TestResolveDefaultExcludesStack(t *testing.T) {
	root := buildTree(t,
		"src/lib.rs",
		".git/objects/pack.rs",
		"vendor/dep/lib.rs",
	)
	r := NewResolver(root, []string{".git", "vendor"})

	files, err := r.Resolve(metric.FileSet{Include: []string{"*.rs"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/lib.rs"}, relAll(t, root, files))
}

func TestResolveExcludeFiles(t *testing.T) {
	root := buildTree(t,
		"src/lib.rs",
		"src/generated.rs",
	)
	r := NewResolver(root, nil)

	files, err := r.Resolve(metric.FileSet{
		Roots:        []string{"src"},
		Include:      []string{"*.rs"},
		ExcludeFiles: []string{"src/generated.rs"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/lib.rs"}, relAll(t, root, files))
}

func TestResolveMissingRootWarnsAndContinues(t *testing.T) {
	root := buildTree(t, "crates/core/lib.rs")
	var warnings []string
	r := NewResolver(root, nil)
	r.Warn = func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	files, err := r.Resolve(metric.FileSet{
		Roots:   []string{"crates", "test_corpus"},
		Include: []string{"*.rs"},
	})
	require.NoError(t, err)
	assert.Len(t, files, 1)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "test_corpus")
}

func TestResolveRootMayBeSingleFile(t *testing.T) {
	root := buildTree(t, "scripts/check.pl")
	r := NewResolver(root, nil)

	files, err := r.Resolve(metric.FileSet{Roots: []string{"scripts/check.pl"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"scripts/check.pl"}, relAll(t, root, files))
}

func TestResolveOverlappingRootsDeduplicate(t *testing.T) {
	root := buildTree(t, "crates/core/src/lib.rs")
	r := NewResolver(root, nil)

	files, err := r.Resolve(metric.FileSet{
		Roots:   []string{"crates", "crates/core"},
		Include: []string{"*.rs"},
	})
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestResolveIsSortedAndStable(t *testing.T) {
	root := buildTree(t,
		"src/z.rs",
		"src/a.rs",
		"src/m/inner.rs",
	)
	r := NewResolver(root, nil)

	first, err := r.Resolve(metric.FileSet{Roots: []string{"src"}, Include: []string{"*.rs"}})
	require.NoError(t, err)
	assert.True(t, sort.StringsAreSorted(first))

	for i := 0; i < 5; i++ {
		again, err := r.Resolve(metric.FileSet{Roots: []string{"src"}, Include: []string{"*.rs"}})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolveSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs privileges on windows")
	}
	root := buildTree(t, "src/real.rs")
	require.NoError(t, os.Symlink(
		filepath.Join(root, "src", "real.rs"),
		filepath.Join(root, "src", "link.rs"),
	))
	r := NewResolver(root, nil)

	files, err := r.Resolve(metric.FileSet{Roots: []string{"src"}, Include: []string{"*.rs"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/real.rs"}, relAll(t, root, files))
}

func TestEmptyIncludeAcceptsEverything(t *testing.T) {
	root := buildTree(t, "docs/a.md", "docs/b.txt")
	r := NewResolver(root, nil)

	files, err := r.Resolve(metric.FileSet{Roots: []string{"docs"}})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
