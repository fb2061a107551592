package experiment

import (
	"sort"
	"strings"
)

// KeyView is a read-only projection of a RunConfig for key generation.
// It deliberately omits the run variant: canonical keys identify the
// logical experiment, and variant disambiguation happens on top of them.
type KeyView struct {
	ADM      string
	Backbone string
	// Pairs holds "dimension-value" tokens in config order.
	Pairs []string
}

// KeyView projects the config for key generation without touching the
// config itself.
func (c *RunConfig) KeyView() KeyView {
	pairs := make([]string, len(c.KDMAValues))
	for i, kv := range c.KDMAValues {
		pairs[i] = kv.Token()
	}
	return KeyView{ADM: c.ADMName, Backbone: c.LLMBackbone, Pairs: pairs}
}

// Key derives the canonical identity string
// "{adm}_{backbone}_{sorted-kdma-tokens}". Pair tokens are sorted
// lexicographically, so key equality is insensitive to the order
// dimensions were declared in the source config. An empty dimension set
// leaves a trailing separator; that is accepted, not special-cased.
func (v KeyView) Key() string {
	pairs := make([]string, len(v.Pairs))
	copy(pairs, v.Pairs)
	sort.Strings(pairs)
	return v.ADM + "_" + v.Backbone + "_" + strings.Join(pairs, "_")
}

// SortedPairs returns the pair tokens in lexicographic order.
func (v KeyView) SortedPairs() []string {
	pairs := make([]string, len(v.Pairs))
	copy(pairs, v.Pairs)
	sort.Strings(pairs)
	return pairs
}

// Key is shorthand for generating the canonical key of a config.
func (c *RunConfig) Key() string {
	return c.KeyView().Key()
}
