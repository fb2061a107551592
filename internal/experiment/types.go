// Package experiment discovers, loads, and canonically identifies
// experiment-run directories produced by alignment evaluation pipelines.
//
// Each leaf run directory holds a hydra config (.hydra/config.yaml) plus
// three JSON result files (input_output.json, scores.json, timing.json).
// The pipeline is Scanner -> Loader -> Resolver; the resolver output feeds
// the manifest builder.
package experiment

import (
	"encoding/json"
	"math"
	"strconv"
)

// Sentinels substituted for missing or malformed config fields.
const (
	UnknownADM    = "unknown_adm"
	NoLLM         = "no_llm"
	UnknownKDMA   = "unknown_kdma"
	UnknownValue  = "unknown_value"
	UnknownScene  = "unknown_scenario"
)

// KDMAValue is one alignment-target pair: a named dimension and its
// numeric target value in [0,1].
type KDMAValue struct {
	KDMA  string  `json:"kdma"`
	Value float64 `json:"value"`

	// valueToken overrides the formatted numeric value in canonical keys
	// when the source config carried a non-numeric value.
	valueToken string
}

// Token renders the pair as it appears in canonical keys, e.g. "merit-0.5".
func (k KDMAValue) Token() string {
	if k.valueToken != "" {
		return k.KDMA + "-" + k.valueToken
	}
	return k.KDMA + "-" + formatValue(k.Value)
}

// formatValue renders KDMA target values the way hydra configs write them:
// whole numbers keep one decimal place ("1.0"), everything else is minimal.
func formatValue(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// RunConfig is the canonical identity of one experiment run: which
// decision-maker produced it, on which LLM backbone, aligned to which
// KDMA targets. RunVariant stays empty unless the conflict resolver
// assigns one.
type RunConfig struct {
	ADMName     string      `json:"adm_name"`
	LLMBackbone string      `json:"llm_backbone"`
	KDMAValues  []KDMAValue `json:"kdma_values"`
	RunVariant  string      `json:"run_variant,omitempty"`
}

// Choice is one selectable option in a scenario, with its per-dimension
// association weights.
type Choice struct {
	ActionID        string             `json:"action_id"`
	Unstructured    string             `json:"unstructured"`
	KDMAAssociation map[string]float64 `json:"kdma_association,omitempty"`
}

// ScenarioInput is the prompt side of one transcript entry.
type ScenarioInput struct {
	ScenarioID string   `json:"scenario_id"`
	State      string   `json:"state"`
	Choices    []Choice `json:"choices"`
}

// ChosenOutput is the decision-maker's answer for one transcript entry.
// Choice is kept raw: pipelines emit either an index or a structured action.
type ChosenOutput struct {
	Choice        json.RawMessage `json:"choice,omitempty"`
	Justification string          `json:"justification"`
}

// TranscriptEntry is one input/output pair from input_output.json.
type TranscriptEntry struct {
	Input  ScenarioInput `json:"input"`
	Output ChosenOutput  `json:"output"`
}

// ExperimentRecord is one fully loaded run directory. It is immutable after
// the loader creates it; the conflict resolver produces variant-qualified
// copies instead of mutating in place.
type ExperimentRecord struct {
	Config     RunConfig
	Transcript []TranscriptEntry
	Scores     json.RawMessage
	Timing     json.RawMessage

	// Dir is the run directory relative to the experiments root,
	// slash-separated.
	Dir string
}

// ScenarioIDs returns the distinct scenario ids in transcript order.
// Records with an empty transcript report the unknown-scenario sentinel so
// they stay visible in the manifest.
func (r *ExperimentRecord) ScenarioIDs() []string {
	seen := make(map[string]bool, len(r.Transcript))
	var ids []string
	for _, entry := range r.Transcript {
		id := entry.Input.ScenarioID
		if id == "" {
			id = UnknownScene
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		ids = append(ids, UnknownScene)
	}
	return ids
}

// withVariant returns a copy of the record with the run variant set.
// The config and its KDMA slice are copied so the original record is
// never aliased.
func (r *ExperimentRecord) withVariant(variant string) *ExperimentRecord {
	clone := *r
	clone.Config.KDMAValues = make([]KDMAValue, len(r.Config.KDMAValues))
	copy(clone.Config.KDMAValues, r.Config.KDMAValues)
	clone.Config.RunVariant = variant
	return &clone
}
