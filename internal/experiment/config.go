package experiment

import (
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// parseRunConfig turns the bytes of a hydra config.yaml into a RunConfig.
//
// The config format is externally produced and routinely malformed, so every
// nested access checks the runtime shape and substitutes a documented
// sentinel instead of failing. Only an undecodable document or an unusable
// top-level type drops the experiment.
func parseRunConfig(data []byte, d diag) (RunConfig, *LoadError) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return RunConfig{}, d.parseFailure(".hydra/config.yaml", err)
	}

	doc, ok := root.(map[string]any)
	if !ok {
		// Some pipelines wrap the config in a single-element list.
		if list, isList := root.([]any); isList {
			for _, item := range list {
				if m, isMap := item.(map[string]any); isMap {
					d.shape("(root)", "config is a list; using first mapping")
					doc = m
					break
				}
			}
		}
		if doc == nil {
			return RunConfig{}, d.parseFailure(".hydra/config.yaml",
				fmt.Errorf("config has top-level type %T, want mapping", root))
		}
	}

	cfg := RunConfig{ADMName: UnknownADM, LLMBackbone: NoLLM}

	adm := childMapping(doc, "adm", d)
	if name, ok := adm["name"].(string); ok && name != "" {
		cfg.ADMName = name
	} else if _, present := adm["name"]; present {
		d.shape("adm.name", fmt.Sprintf("got %T, want string", adm["name"]))
	} else if len(adm) > 0 {
		d.shape("adm.name", "missing")
	}

	// structured_inference_engine is legitimately absent for non-LLM ADMs;
	// only a present-but-wrong-shape value is diagnosed.
	if engine, present := adm["structured_inference_engine"]; present {
		if m, ok := engine.(map[string]any); ok {
			if model, ok := m["model_name"].(string); ok && model != "" {
				cfg.LLMBackbone = model
			} else if raw, present := m["model_name"]; present {
				d.shape("adm.structured_inference_engine.model_name",
					fmt.Sprintf("got %T, want string", raw))
			}
		} else if engine != nil {
			d.shape("adm.structured_inference_engine",
				fmt.Sprintf("got %T, want mapping", engine))
		}
	}

	target := childMapping(doc, "alignment_target", d)
	cfg.KDMAValues = parseKDMAValues(target["kdma_values"], d)

	return cfg, nil
}

// childMapping fetches doc[key] as a mapping, diagnosing a wrong-shaped
// value and returning an empty mapping for anything unusable.
func childMapping(doc map[string]any, key string, d diag) map[string]any {
	raw, present := doc[key]
	if !present || raw == nil {
		return map[string]any{}
	}
	m, ok := raw.(map[string]any)
	if !ok {
		d.shape(key, fmt.Sprintf("got %T, want mapping", raw))
		return map[string]any{}
	}
	return m
}

// parseKDMAValues reads alignment_target.kdma_values, tolerating missing
// lists, non-list values, malformed entries, and non-numeric targets.
func parseKDMAValues(raw any, d diag) []KDMAValue {
	if raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		d.shape("alignment_target.kdma_values", fmt.Sprintf("got %T, want list", raw))
		return nil
	}

	var values []KDMAValue
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			d.shape(fmt.Sprintf("alignment_target.kdma_values[%d]", i),
				fmt.Sprintf("got %T, want mapping", item))
			continue
		}
		kv := KDMAValue{KDMA: UnknownKDMA}
		if name, ok := entry["kdma"].(string); ok && name != "" {
			kv.KDMA = name
		} else {
			d.shape(fmt.Sprintf("alignment_target.kdma_values[%d].kdma", i),
				fmt.Sprintf("got %T, want string", entry["kdma"]))
		}
		if v, ok := asFloat(entry["value"]); ok {
			kv.Value = v
		} else {
			d.shape(fmt.Sprintf("alignment_target.kdma_values[%d].value", i),
				fmt.Sprintf("got %T, want number", entry["value"]))
			kv.valueToken = UnknownValue
		}
		values = append(values, kv)
	}
	return values
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
