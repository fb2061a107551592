package site

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"alignbrowser/internal/experiment"
	"alignbrowser/internal/manifest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSourceRun(t *testing.T, root, dir string) *experiment.ExperimentRecord {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(dir))
	if err := os.MkdirAll(abs, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range map[string]string{
		"input_output.json": `[{"input":{"scenario_id":"s1"},"output":{"justification":"j"}}]`,
		"scores.json":       `{"score":1}`,
		"timing.json":       `{"total_s":3}`,
	} {
		if err := os.WriteFile(filepath.Join(abs, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return &experiment.ExperimentRecord{
		Config: experiment.RunConfig{ADMName: "adm", LLMBackbone: "no_llm",
			KDMAValues: []experiment.KDMAValue{{KDMA: "merit", Value: 0.5}}},
		Transcript: []experiment.TranscriptEntry{
			{Input: experiment.ScenarioInput{ScenarioID: "s1"}},
		},
		Dir: dir,
	}
}

func TestAssemble_ProducesServableTree(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "dist")
	records := []*experiment.ExperimentRecord{
		writeSourceRun(t, root, "pipeline_a/merit-0.5"),
	}

	b := &manifest.Builder{Log: testLogger(), Now: time.Now}
	m := b.Build(records)

	if err := Assemble(outDir, root, m, records, testLogger()); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// Frontend shell present.
	for _, name := range []string{"index.html", "app.js", "style.css"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing shell asset %s: %v", name, err)
		}
	}

	// Manifest readable and pointing at mirrored data.
	got, err := manifest.Read(filepath.Join(outDir, "manifest.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	entry := got.Experiments["adm"]["no_llm"]["merit-0.5"]["s1"]
	mirrored := filepath.Join(outDir, filepath.FromSlash(entry.InputOutput))
	data, err := os.ReadFile(mirrored)
	if err != nil {
		t.Fatalf("manifest path %s not resolvable in output tree: %v", entry.InputOutput, err)
	}
	if !json.Valid(data) {
		t.Errorf("mirrored artifact is not valid JSON")
	}
}

func TestAssemble_MirrorsAllResultFiles(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "dist")
	records := []*experiment.ExperimentRecord{
		writeSourceRun(t, root, "deep/nested/run/merit-1.0"),
	}

	b := &manifest.Builder{Log: testLogger(), Now: time.Now}
	if err := Assemble(outDir, root, b.Build(records), records, testLogger()); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	base := filepath.Join(outDir, "data", "deep", "nested", "run", "merit-1.0")
	for _, name := range []string{"input_output.json", "scores.json", "timing.json"} {
		if _, err := os.Stat(filepath.Join(base, name)); err != nil {
			t.Errorf("missing mirrored %s: %v", name, err)
		}
	}
}

func TestAssemble_WipesPreviousBuild(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "dist")

	first := []*experiment.ExperimentRecord{
		writeSourceRun(t, root, "old_run/merit-0.5"),
	}
	b := &manifest.Builder{Log: testLogger(), Now: time.Now}
	if err := Assemble(outDir, root, b.Build(first), first, testLogger()); err != nil {
		t.Fatalf("first Assemble: %v", err)
	}

	second := []*experiment.ExperimentRecord{
		writeSourceRun(t, root, "new_run/merit-0.5"),
	}
	if err := Assemble(outDir, root, b.Build(second), second, testLogger()); err != nil {
		t.Fatalf("second Assemble: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "data", "old_run")); !os.IsNotExist(err) {
		t.Errorf("stale mirror from previous build survived: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "data", "new_run", "merit-0.5", "scores.json")); err != nil {
		t.Errorf("new mirror missing: %v", err)
	}
}

func TestAssemble_PreservesNonGeneratedDir(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	keep := filepath.Join(outDir, "unrelated.txt")
	if err := os.WriteFile(keep, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	records := []*experiment.ExperimentRecord{
		writeSourceRun(t, root, "run/merit-0.5"),
	}
	b := &manifest.Builder{Log: testLogger(), Now: time.Now}
	if err := Assemble(outDir, root, b.Build(records), records, testLogger()); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// No manifest.json was present, so pre-existing files survive.
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("pre-existing file removed from non-generated dir: %v", err)
	}
}

func TestStaticFS_HasIndex(t *testing.T) {
	shell := StaticFS()
	if shell == nil {
		t.Fatal("StaticFS returned nil")
	}
	if _, err := shell.Open("index.html"); err != nil {
		t.Fatalf("embedded index.html: %v", err)
	}
}
