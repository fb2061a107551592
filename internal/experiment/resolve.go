package experiment

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// kdmaDirPattern matches path segments that encode a single alignment
// target, e.g. "merit-0.5", "affiliation-1.0", "moral_judgement-0".
// Segments that do not match are decision-maker level directories.
var kdmaDirPattern = regexp.MustCompile(`^[a-z_]+-(0|1\.0|0\.[0-9]+)$`)

// Resolver disambiguates experiments that collide on the same canonical
// key by inferring a human-readable run variant from the directory
// hierarchy.
type Resolver struct {
	Log *slog.Logger
}

// Resolve returns records where every member has a globally unique
// (canonical key, run variant) pair, as far as the directory structure
// allows. Input order is preserved. Records in singleton groups pass
// through untouched; conflict-group members get copies with the variant
// set, never in-place mutation.
func (r *Resolver) Resolve(records []*ExperimentRecord) []*ExperimentRecord {
	groups := make(map[string][]*ExperimentRecord)
	order := make([]string, 0, len(records))
	for _, rec := range records {
		key := rec.Config.Key()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	resolved := make(map[*ExperimentRecord]*ExperimentRecord, len(records))
	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			resolved[group[0]] = group[0]
			continue
		}
		for rec, enhanced := range r.resolveGroup(key, group) {
			resolved[rec] = enhanced
		}
	}

	out := make([]*ExperimentRecord, len(records))
	for i, rec := range records {
		out[i] = resolved[rec]
	}
	return out
}

// resolveGroup assigns run variants inside one conflict group. The member
// whose decision-maker directory sorts first becomes the implicit default
// and keeps the bare canonical key; the frontend's default selection must
// resolve without a variant qualifier.
func (r *Resolver) resolveGroup(key string, group []*ExperimentRecord) map[*ExperimentRecord]*ExperimentRecord {
	passthrough := make(map[*ExperimentRecord]*ExperimentRecord, len(group))
	for _, rec := range group {
		passthrough[rec] = rec
	}

	// Members sharing a canonical key must agree on their dimension set.
	// Disagreement means the key generator or the upstream data is broken;
	// that is surfaced, not auto-corrected.
	if !consistentDimensions(group) {
		r.Log.Warn("conflict group has inconsistent KDMA sets; leaving members unqualified",
			slog.String("key", key),
			slog.Int("members", len(group)),
		)
		return passthrough
	}

	admDirs := make([]string, len(group))
	distinct := make(map[string]bool)
	for i, rec := range group {
		admDirs[i] = admLevelDir(rec.Dir)
		distinct[admDirs[i]] = true
	}

	if len(distinct) <= 1 {
		// Directory structure cannot tell these runs apart. Keep all of
		// them under the same key as a residual true collision.
		r.Log.Warn("conflict group not resolvable from directory structure",
			slog.String("key", key),
			slog.Int("members", len(group)),
		)
		return passthrough
	}

	names := make([]string, 0, len(distinct))
	for name := range distinct {
		names = append(names, name)
	}
	sort.Strings(names)
	defaultName := names[0]
	prefix := variantPrefix(names)

	out := make(map[*ExperimentRecord]*ExperimentRecord, len(group))
	for i, rec := range group {
		name := admDirs[i]
		if name == defaultName {
			out[rec] = rec
			continue
		}
		variant := strings.TrimLeft(strings.TrimPrefix(name, prefix), "_")
		if variant == "" {
			variant = name
		}
		r.Log.Info("assigned run variant",
			slog.String("key", key),
			slog.String("dir", rec.Dir),
			slog.String("variant", variant),
		)
		out[rec] = rec.withVariant(variant)
	}
	return out
}

// consistentDimensions reports whether all group members carry the same
// sorted dimension/value tokens.
func consistentDimensions(group []*ExperimentRecord) bool {
	first := group[0].Config.KeyView().SortedPairs()
	for _, rec := range group[1:] {
		pairs := rec.Config.KeyView().SortedPairs()
		if len(pairs) != len(first) {
			return false
		}
		for i := range pairs {
			if pairs[i] != first[i] {
				return false
			}
		}
	}
	return true
}

// admLevelDir walks the run directory path (relative to the experiments
// root) and returns the first segment that is not a KDMA directory. That
// segment is the one encoding which decision-maker run produced the data.
// Falls back to the first segment when every segment encodes a KDMA.
func admLevelDir(dir string) string {
	if dir == "" || dir == "." {
		return ""
	}
	segments := strings.Split(dir, "/")
	for _, seg := range segments {
		if !kdmaDirPattern.MatchString(seg) {
			return seg
		}
	}
	return segments[0]
}

// variantPrefix computes the shared stem of the distinct decision-maker
// directory names. The character-wise longest common prefix is cut back to
// the last underscore boundary so variants stay whole tokens
// ("pipeline_foo_v1"/"pipeline_foo_v2" -> stem "pipeline_foo", variants
// "v1"/"v2"), then trailing underscores are stripped.
func variantPrefix(sorted []string) string {
	prefix := sorted[0]
	for _, name := range sorted[1:] {
		for len(prefix) > 0 && !strings.HasPrefix(name, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	if idx := strings.LastIndex(prefix, "_"); idx >= 0 {
		prefix = prefix[:idx]
	} else {
		prefix = ""
	}
	return strings.TrimRight(prefix, "_")
}
