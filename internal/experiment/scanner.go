package experiment

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Required artifacts for a directory to count as one experiment run.
const (
	configRelPath   = ".hydra/config.yaml"
	inputOutputFile = "input_output.json"
	scoresFile      = "scores.json"
	timingFile      = "timing.json"
)

// outdatedMarker excludes archived runs: any path segment containing it
// (case-insensitive) hides the whole subtree.
const outdatedMarker = "outdated"

// Scanner discovers candidate run directories under an experiments root.
type Scanner struct {
	Log *slog.Logger
}

// Scan walks the root and returns every directory that holds all four
// required artifacts, as slash-separated paths relative to the root, in
// lexicographic order. Order is deterministic across repeated runs on an
// unchanged tree; the conflict resolver depends on that.
//
// An unreadable root is the only fatal error. Directories missing
// artifacts are simply not candidates and are skipped without diagnostics.
func (s *Scanner) Scan(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("experiments root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("experiments root %s is not a directory", root)
	}

	fsys := os.DirFS(root)
	var dirs []string
	err = doublestar.GlobWalk(fsys, "**/"+configRelPath, func(p string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		// p is <run-dir>/.hydra/config.yaml
		dir := path.Dir(path.Dir(p))
		if containsOutdated(dir) {
			s.Log.Debug("skipping outdated subtree", slog.String("dir", dir))
			return nil
		}
		if !hasResultFiles(fsys, dir) {
			s.Log.Debug("incomplete run directory", slog.String("dir", dir))
			return nil
		}
		dirs = append(dirs, dir)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Strings(dirs)
	s.Log.Info("scan complete", slog.String("root", root), slog.Int("candidates", len(dirs)))
	return dirs, nil
}

func hasResultFiles(fsys fs.FS, dir string) bool {
	for _, name := range []string{inputOutputFile, scoresFile, timingFile} {
		if _, err := fs.Stat(fsys, path.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func containsOutdated(dir string) bool {
	for _, seg := range strings.Split(dir, "/") {
		if strings.Contains(strings.ToLower(seg), outdatedMarker) {
			return true
		}
	}
	return false
}
