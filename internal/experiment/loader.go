package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Loader turns candidate directories into ExperimentRecords. A bad
// directory never aborts the run: fatal problems drop that one experiment
// into the report, shape problems default to sentinels.
type Loader struct {
	Log *slog.Logger

	// Parallel bounds concurrent directory loads. Zero or one means
	// serial. Results are re-sorted by directory before return, so
	// parallelism never changes downstream behavior.
	Parallel int
}

// LoadAll loads every candidate directory under root. It returns the
// successfully loaded records sorted by directory, plus the report of
// everything that went wrong along the way.
func (l *Loader) LoadAll(ctx context.Context, root string, dirs []string) ([]*ExperimentRecord, *LoadReport, error) {
	report := &LoadReport{}
	records := make([]*ExperimentRecord, len(dirs))

	workers := l.Parallel
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records[i] = l.load(root, dir, report)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	loaded := records[:0]
	for _, rec := range records {
		if rec != nil {
			loaded = append(loaded, rec)
		}
	}
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].Dir < loaded[j].Dir })

	l.Log.Info("load complete",
		slog.Int("loaded", len(loaded)),
		slog.Int("skipped", report.SkippedDirs()),
		slog.Int("substitutions", report.Substitutions()),
	)
	return loaded, report, nil
}

// load reads one run directory. A nil return means the experiment was
// dropped; the reason is already in the report.
func (l *Loader) load(root, dir string, report *LoadReport) *ExperimentRecord {
	d := diag{log: l.Log, report: report, dir: dir}
	abs := filepath.Join(root, filepath.FromSlash(dir))

	configData, err := os.ReadFile(filepath.Join(abs, filepath.FromSlash(configRelPath)))
	if err != nil {
		d.missingFile(configRelPath, err)
		return nil
	}
	cfg, loadErr := parseRunConfig(configData, d)
	if loadErr != nil {
		return nil
	}

	transcript, loadErr := readTranscript(abs, d)
	if loadErr != nil {
		return nil
	}
	scores, loadErr := readJSONDocument(abs, scoresFile, d)
	if loadErr != nil {
		return nil
	}
	timing, loadErr := readJSONDocument(abs, timingFile, d)
	if loadErr != nil {
		return nil
	}

	return &ExperimentRecord{
		Config:     cfg,
		Transcript: transcript,
		Scores:     scores,
		Timing:     timing,
		Dir:        dir,
	}
}

// readTranscript parses input_output.json. Newer pipelines write a list of
// per-scenario entries; older ones wrote a single entry object.
func readTranscript(abs string, d diag) ([]TranscriptEntry, *LoadError) {
	p := filepath.Join(abs, inputOutputFile)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, d.missingFile(inputOutputFile, err)
	}

	var entries []TranscriptEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		var single TranscriptEntry
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, d.parseFailure(inputOutputFile, err)
		}
		entries = []TranscriptEntry{single}
	}
	return entries, nil
}

// readJSONDocument loads a result file, checking only that it is valid
// JSON. Scores and timing payloads are carried through uninterpreted.
func readJSONDocument(abs, name string, d diag) (json.RawMessage, *LoadError) {
	p := filepath.Join(abs, name)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, d.missingFile(name, err)
	}
	if !json.Valid(data) {
		return nil, d.parseFailure(name, fmt.Errorf("invalid JSON document"))
	}
	return json.RawMessage(data), nil
}
