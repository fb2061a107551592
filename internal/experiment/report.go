package experiment

import (
	"fmt"
	"log/slog"
	"sync"
)

// LoadErrorKind tags the ways a candidate directory can go wrong.
type LoadErrorKind string

const (
	// MissingFiles: a required artifact disappeared between scan and load.
	MissingFiles LoadErrorKind = "missing_files"
	// ParseFailure: a config or result file failed to deserialize; the
	// experiment is dropped.
	ParseFailure LoadErrorKind = "parse_failure"
	// ShapeMismatch: a nested config field had the wrong type; the field
	// was defaulted to its sentinel and the experiment kept.
	ShapeMismatch LoadErrorKind = "shape_mismatch"
)

// LoadError describes one problem found while loading a run directory.
type LoadError struct {
	Kind   LoadErrorKind
	Dir    string // run directory relative to the experiments root
	Path   string // offending file, when known
	Field  string // offending config field, for shape mismatches
	Detail string
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case ShapeMismatch:
		return fmt.Sprintf("%s: field %s in %s: %s", e.Kind, e.Field, e.Dir, e.Detail)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Detail)
	}
}

// Fatal reports whether this error dropped the experiment from the result
// set. Shape mismatches default to sentinels and keep the experiment.
func (e *LoadError) Fatal() bool {
	return e.Kind != ShapeMismatch
}

// LoadReport collects every problem the loader encountered, so callers can
// present them after the build instead of scraping log output. It is safe
// for concurrent use by parallel loader workers.
type LoadReport struct {
	mu       sync.Mutex
	problems []LoadError
}

// Problems returns all collected problems in collection order.
func (r *LoadReport) Problems() []LoadError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LoadError, len(r.problems))
	copy(out, r.problems)
	return out
}

// SkippedDirs counts directories dropped for fatal errors.
func (r *LoadReport) SkippedDirs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	for _, p := range r.problems {
		if p.Fatal() {
			seen[p.Dir] = true
		}
	}
	return len(seen)
}

// Substitutions counts sentinel substitutions from shape mismatches.
func (r *LoadReport) Substitutions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.problems {
		if p.Kind == ShapeMismatch {
			n++
		}
	}
	return n
}

func (r *LoadReport) add(e LoadError) {
	r.mu.Lock()
	r.problems = append(r.problems, e)
	r.mu.Unlock()
}

// diag couples the report with a logger so every recorded problem also
// produces one structured log line. Components receive it explicitly;
// tests install a capture handler and assert on the report instead of
// scraping stderr.
type diag struct {
	log    *slog.Logger
	report *LoadReport
	dir    string
}

func (d diag) parseFailure(path string, err error) *LoadError {
	e := LoadError{Kind: ParseFailure, Dir: d.dir, Path: path, Detail: err.Error()}
	d.report.add(e)
	d.log.Warn("skipping experiment",
		slog.String("dir", d.dir),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
	return &e
}

func (d diag) missingFile(path string, err error) *LoadError {
	e := LoadError{Kind: MissingFiles, Dir: d.dir, Path: path, Detail: err.Error()}
	d.report.add(e)
	d.log.Warn("skipping experiment",
		slog.String("dir", d.dir),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
	return &e
}

func (d diag) shape(field, detail string) {
	d.report.add(LoadError{Kind: ShapeMismatch, Dir: d.dir, Field: field, Detail: detail})
	d.log.Warn("config field defaulted",
		slog.String("dir", d.dir),
		slog.String("field", field),
		slog.String("detail", detail),
	)
}
