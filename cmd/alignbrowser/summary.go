package main

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"alignbrowser/internal/experiment"
	"alignbrowser/internal/manifest"
)

// buildSummary renders the post-build scorecard printed to stdout.
func buildSummary(m *manifest.Manifest, report *experiment.LoadReport, variants int) string {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"Axis", "Count"})
	w.AppendRows([]table.Row{
		{"Experiments", m.Metadata.TotalExperiments},
		{"Decision-maker types", len(m.Metadata.ADMTypes)},
		{"LLM backbones", len(m.Metadata.LLMBackbones)},
		{"KDMA combinations", len(m.Metadata.KDMACombinations)},
		{"Run variants assigned", variants},
		{"Directories skipped", report.SkippedDirs()},
		{"Fields defaulted", report.Substitutions()},
	})
	return w.Render()
}
