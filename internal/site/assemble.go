// Package site assembles the static output tree the frontend is served
// from: the embedded shell, manifest.json, and a data/ mirror of every
// experiment's result files.
package site

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"alignbrowser/internal/experiment"
	"alignbrowser/internal/manifest"
)

// resultFiles are mirrored per experiment so the manifest's recorded
// paths stay resolvable relative to the output root.
var resultFiles = []string{"input_output.json", "scores.json", "timing.json"}

// Assemble builds the output directory from scratch: frontend shell,
// manifest.json, and the data mirror. The records must be the same set
// the manifest was built from.
//
// A previous build in outDir is wiped first. Only directories already
// holding a manifest.json are wiped, so a mistyped -o cannot destroy an
// unrelated tree.
func Assemble(outDir, root string, m *manifest.Manifest, records []*experiment.ExperimentRecord, log *slog.Logger) error {
	if _, err := os.Stat(filepath.Join(outDir, "manifest.json")); err == nil {
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("clean output dir: %w", err)
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeShell(outDir); err != nil {
		return err
	}
	if err := manifest.Write(filepath.Join(outDir, "manifest.json"), m); err != nil {
		return err
	}
	if err := mirrorData(outDir, root, records); err != nil {
		return err
	}

	log.Info("site assembled",
		slog.String("output", outDir),
		slog.Int("experiments", len(records)),
	)
	return nil
}

// writeShell copies the embedded frontend assets into the output root.
func writeShell(outDir string) error {
	shell := StaticFS()
	if shell == nil {
		return fmt.Errorf("embedded frontend assets unavailable")
	}
	return fs.WalkDir(shell, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dest := filepath.Join(outDir, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		data, err := fs.ReadFile(shell, p)
		if err != nil {
			return fmt.Errorf("read embedded asset %s: %w", p, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("write asset %s: %w", dest, err)
		}
		return nil
	})
}

// mirrorData copies each experiment's result files into data/<relpath>/,
// preserving the run's position in the source tree.
func mirrorData(outDir, root string, records []*experiment.ExperimentRecord) error {
	for _, rec := range records {
		srcDir := filepath.Join(root, filepath.FromSlash(rec.Dir))
		destDir := filepath.Join(outDir, "data", filepath.FromSlash(rec.Dir))
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", destDir, err)
		}
		for _, name := range resultFiles {
			if err := copyFile(filepath.Join(srcDir, name), filepath.Join(destDir, name)); err != nil {
				return fmt.Errorf("mirror %s/%s: %w", rec.Dir, name, err)
			}
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
