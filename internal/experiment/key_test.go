package experiment

import "testing"

func TestKey_SortedPairOrder(t *testing.T) {
	a := RunConfig{
		ADMName:     "pipeline_baseline",
		LLMBackbone: "mistral-7b",
		KDMAValues: []KDMAValue{
			{KDMA: "merit", Value: 0.5},
			{KDMA: "affiliation", Value: 0.3},
		},
	}
	b := RunConfig{
		ADMName:     "pipeline_baseline",
		LLMBackbone: "mistral-7b",
		KDMAValues: []KDMAValue{
			{KDMA: "affiliation", Value: 0.3},
			{KDMA: "merit", Value: 0.5},
		},
	}
	if a.Key() != b.Key() {
		t.Errorf("pair order changed key: %q vs %q", a.Key(), b.Key())
	}
	want := "pipeline_baseline_mistral-7b_affiliation-0.3_merit-0.5"
	if a.Key() != want {
		t.Errorf("Key() = %q, want %q", a.Key(), want)
	}
}

func TestKey_IgnoresRunVariant(t *testing.T) {
	cfg := RunConfig{ADMName: "adm", LLMBackbone: "no_llm",
		KDMAValues: []KDMAValue{{KDMA: "merit", Value: 1.0}}}
	withVariant := cfg
	withVariant.RunVariant = "rerun"
	if cfg.Key() != withVariant.Key() {
		t.Errorf("run variant leaked into key: %q vs %q", cfg.Key(), withVariant.Key())
	}
}

func TestKey_EmptyDimensionSet(t *testing.T) {
	cfg := RunConfig{ADMName: "adm", LLMBackbone: "no_llm"}
	want := "adm_no_llm_"
	if got := cfg.Key(); got != want {
		t.Errorf("Key() = %q, want %q (trailing separator accepted)", got, want)
	}
}

func TestKey_DoesNotMutateView(t *testing.T) {
	cfg := RunConfig{ADMName: "adm", LLMBackbone: "llm",
		KDMAValues: []KDMAValue{{KDMA: "b_dim", Value: 0.7}, {KDMA: "a_dim", Value: 0.2}}}
	view := cfg.KeyView()
	_ = view.Key()
	if view.Pairs[0] != "b_dim-0.7" {
		t.Errorf("Key() reordered the view's pairs: %v", view.Pairs)
	}
}

func TestKDMAValue_TokenFormatting(t *testing.T) {
	cases := []struct {
		kv   KDMAValue
		want string
	}{
		{KDMAValue{KDMA: "merit", Value: 0.5}, "merit-0.5"},
		{KDMAValue{KDMA: "merit", Value: 1}, "merit-1.0"},
		{KDMAValue{KDMA: "merit", Value: 0}, "merit-0.0"},
		{KDMAValue{KDMA: "merit", Value: 0.25}, "merit-0.25"},
		{KDMAValue{KDMA: "merit", valueToken: UnknownValue}, "merit-unknown_value"},
	}
	for _, tc := range cases {
		if got := tc.kv.Token(); got != tc.want {
			t.Errorf("Token() = %q, want %q", got, tc.want)
		}
	}
}
