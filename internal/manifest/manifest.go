// Package manifest folds resolved experiment records into the single
// aggregated document the browsing frontend queries instead of the raw
// experiment tree.
package manifest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"alignbrowser/internal/experiment"
)

// ArtifactPaths locates one experiment's result files inside the output
// tree, relative to the output root.
type ArtifactPaths struct {
	InputOutput string `json:"input_output"`
	Scores      string `json:"scores"`
	Timing      string `json:"timing"`
}

// ScenarioEntry is one manifest leaf: where the artifacts live plus the
// run's serialized config.
type ScenarioEntry struct {
	ArtifactPaths
	Config experiment.RunConfig `json:"config"`
}

// Scenarios maps scenario id to its leaf entry.
type Scenarios map[string]ScenarioEntry

// Metadata summarizes the manifest for the frontend's axis dropdowns.
type Metadata struct {
	TotalExperiments int      `json:"total_experiments"`
	ADMTypes         []string `json:"adm_types"`
	LLMBackbones     []string `json:"llm_backbones"`
	KDMACombinations []string `json:"kdma_combinations"`
	GeneratedAt      string   `json:"generated_at"`
}

// Manifest is the aggregated document: decision-maker type (variant
// qualified) -> backbone -> KDMA signature -> scenario id -> entry.
type Manifest struct {
	Experiments map[string]map[string]map[string]Scenarios `json:"experiments"`
	Metadata    Metadata                                   `json:"metadata"`
}

// Builder folds resolved records into a Manifest. Now is overridable for
// tests; nil means time.Now.
type Builder struct {
	Log *slog.Logger
	Now func() time.Time
}

// admSegment keys the top manifest level. The default run of an identity
// keeps the bare decision-maker name so the frontend's initial selection
// resolves without a variant qualifier.
func admSegment(cfg *experiment.RunConfig) string {
	if cfg.RunVariant == "" {
		return cfg.ADMName
	}
	return cfg.ADMName + "__" + cfg.RunVariant
}

// kdmaSignature keys the third manifest level: the sorted dimension-value
// tokens joined with "_". An empty dimension set yields an empty
// signature, which is a legal key.
func kdmaSignature(cfg *experiment.RunConfig) string {
	return strings.Join(cfg.KeyView().SortedPairs(), "_")
}

// Build folds the records into a manifest. Records are expected to carry
// unique (canonical key, run variant) pairs already; an overwrite at a
// leaf indicates a conflict-resolver defect and is logged, last writer
// wins.
func (b *Builder) Build(records []*experiment.ExperimentRecord) *Manifest {
	m := &Manifest{Experiments: make(map[string]map[string]map[string]Scenarios)}

	adms := map[string]bool{}
	backbones := map[string]bool{}
	combos := map[string]bool{}

	for _, rec := range records {
		cfg := &rec.Config
		adm := admSegment(cfg)
		sig := kdmaSignature(cfg)
		adms[adm] = true
		backbones[cfg.LLMBackbone] = true
		combos[sig] = true

		byBackbone, ok := m.Experiments[adm]
		if !ok {
			byBackbone = make(map[string]map[string]Scenarios)
			m.Experiments[adm] = byBackbone
		}
		bySig, ok := byBackbone[cfg.LLMBackbone]
		if !ok {
			bySig = make(map[string]Scenarios)
			byBackbone[cfg.LLMBackbone] = bySig
		}
		scenarios, ok := bySig[sig]
		if !ok {
			scenarios = make(Scenarios)
			bySig[sig] = scenarios
		}

		entry := ScenarioEntry{
			ArtifactPaths: ArtifactPaths{
				InputOutput: path.Join("data", rec.Dir, "input_output.json"),
				Scores:      path.Join("data", rec.Dir, "scores.json"),
				Timing:      path.Join("data", rec.Dir, "timing.json"),
			},
			Config: rec.Config,
		}
		for _, scenario := range rec.ScenarioIDs() {
			if _, exists := scenarios[scenario]; exists {
				b.Log.Error("manifest leaf overwritten; conflict resolution failed upstream",
					slog.String("adm", adm),
					slog.String("backbone", cfg.LLMBackbone),
					slog.String("kdma_signature", sig),
					slog.String("scenario", scenario),
					slog.String("dir", rec.Dir),
				)
			}
			scenarios[scenario] = entry
		}
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	m.Metadata = Metadata{
		TotalExperiments: len(records),
		ADMTypes:         sortedKeys(adms),
		LLMBackbones:     sortedKeys(backbones),
		KDMACombinations: sortedKeys(combos),
		GeneratedAt:      now().UTC().Format(time.RFC3339),
	}
	b.Log.Info("manifest built",
		slog.Int("experiments", m.Metadata.TotalExperiments),
		slog.Int("adm_types", len(m.Metadata.ADMTypes)),
		slog.Int("llm_backbones", len(m.Metadata.LLMBackbones)),
		slog.Int("kdma_combinations", len(m.Metadata.KDMACombinations)),
	)
	return m
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Write atomically writes the manifest to path (temp + rename).
func Write(p string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest tmp: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		defer os.Remove(tmp)
		return os.WriteFile(p, data, 0o644)
	}
	return nil
}

// Read loads a manifest written by Write.
func Read(p string) (*Manifest, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}
