// Package baseline persists the last accepted value for each metric. The
// store is deliberately dumb: one plain integer per metric, mutated only by
// first-run bootstrap or an explicit operator action. It hides behind the
// Store interface so a database or remote store can replace the file layout
// without touching the evaluator.
package baseline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultDir is the conventional baseline directory at the repository root.
const DefaultDir = "ci"

// Store is the baseline key-value contract.
type Store interface {
	// Get returns the baseline for a metric and whether one exists.
	Get(id string) (int, bool, error)

	// Bootstrap records value as the baseline iff none exists yet, and
	// returns the value that ended up persisted. Must be race-safe under
	// concurrent first runs.
	Bootstrap(id string, value int) (int, error)

	// Set overwrites the baseline. Explicit, human-invoked acceptance only;
	// a passing run never calls it.
	Set(id string, value int) error

	// Path returns where a metric's baseline lives, for messages.
	Path(id string) string
}

// FileStore keeps one <metric>_baseline.txt per metric under Dir.
type FileStore struct {
	Dir string
}

// NewFileStore creates a store over the given directory.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileStore{Dir: dir}
}

// Path returns the baseline file path for a metric.
func (s *FileStore) Path(id string) string {
	return filepath.Join(s.Dir, id+"_baseline.txt")
}

// Get reads a metric's baseline. A missing file is (0, false, nil).
func (s *FileStore) Get(id string) (int, bool, error) {
	data, err := os.ReadFile(s.Path(id))
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read baseline %s: %w", s.Path(id), err)
	}
	v, err := parseBaseline(data)
	if err != nil {
		return 0, false, fmt.Errorf("baseline %s: %w", s.Path(id), err)
	}
	return v, true, nil
}

// Bootstrap performs the one-time create-if-absent write. O_EXCL makes it
// atomic: of two concurrent first runs, exactly one creates the file, and
// the loser reads back the winner's value.
func (s *FileStore) Bootstrap(id string, value int) (int, error) {
	if err := s.checkDir(); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(s.Path(id), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if os.IsExist(err) {
		v, ok, getErr := s.Get(id)
		if getErr != nil {
			return 0, getErr
		}
		if !ok {
			return 0, fmt.Errorf("baseline %s: %w", s.Path(id), ErrBootstrapRace)
		}
		return v, nil
	}
	if err != nil {
		return 0, fmt.Errorf("bootstrap baseline %s: %w", s.Path(id), err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", value); err != nil {
		_ = f.Close() //nolint:errcheck // cleanup in error path
		return 0, fmt.Errorf("write baseline %s: %w", s.Path(id), err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close() //nolint:errcheck // cleanup in error path
		return 0, fmt.Errorf("sync baseline %s: %w", s.Path(id), err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close baseline %s: %w", s.Path(id), err)
	}
	return value, nil
}

// Set atomically overwrites a baseline via temp file and rename.
func (s *FileStore) Set(id string, value int) error {
	if err := s.checkDir(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, ".tmp-baseline-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath) //nolint:errcheck // cleanup in error path
		}
	}()

	if _, err := fmt.Fprintf(tmp, "%d\n", value); err != nil {
		_ = tmp.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("write baseline: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("sync baseline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.Path(id)); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}

	success = true
	return nil
}

// checkDir verifies the store directory exists. Its absence is a
// precondition failure: the caller reports the mkdir command, exit 2.
func (s *FileStore) checkDir() error {
	info, err := os.Stat(s.Dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s (create it with: mkdir -p %s)", ErrStoreDirMissing, s.Dir, s.Dir)
	}
	if err != nil {
		return fmt.Errorf("stat baseline dir %s: %w", s.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("baseline dir %s is not a directory", s.Dir)
	}
	return nil
}

// parseBaseline parses the single-integer file format.
func parseBaseline(data []byte) (int, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return 0, ErrEmptyBaseline
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedBaseline, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %d", ErrMalformedBaseline, v)
	}
	return v, nil
}
