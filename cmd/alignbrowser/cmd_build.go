package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"alignbrowser/internal/experiment"
	"alignbrowser/internal/logging"
	"alignbrowser/internal/manifest"
	"alignbrowser/internal/site"
)

var (
	buildOutputDir string
	buildOnly      bool
	buildPort      int
	buildHost      string
	buildParallel  int
)

var buildCmd = &cobra.Command{
	Use:   "build <experiments_root>",
	Short: "Build the manifest and static site from an experiments tree",
	Long: `Scans the experiments root for run directories (a .hydra/config.yaml
plus input_output.json, scores.json, timing.json), resolves canonical-key
conflicts via directory-derived run variants, and assembles the output
directory: manifest.json, the frontend shell, and a data/ mirror.

Starts a local HTTP server on the output directory afterwards unless
--build-only is given. Zero discovered experiments is a warning, not an
error.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutputDir, "output-dir", "o", "dist", "output directory for the static site")
	buildCmd.Flags().BoolVar(&buildOnly, "build-only", false, "build the site without serving it")
	buildCmd.Flags().IntVar(&buildPort, "port", 8000, "HTTP port to serve the built site on")
	buildCmd.Flags().StringVar(&buildHost, "host", "127.0.0.1", "HTTP bind address")
	buildCmd.Flags().IntVar(&buildParallel, "parallel", 1, "concurrent directory loads")
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := args[0]
	log := logging.New("build")

	scanner := &experiment.Scanner{Log: logging.New("scanner")}
	dirs, err := scanner.Scan(root)
	if err != nil {
		return err
	}

	loader := &experiment.Loader{Log: logging.New("loader"), Parallel: buildParallel}
	records, report, err := loader.LoadAll(cmd.Context(), root, dirs)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		log.Warn("no experiments found", "root", root)
	}

	resolver := &experiment.Resolver{Log: logging.New("resolver")}
	resolved := resolver.Resolve(records)

	builder := &manifest.Builder{Log: logging.New("manifest")}
	m := builder.Build(resolved)

	if err := site.Assemble(buildOutputDir, root, m, resolved, logging.New("site")); err != nil {
		return err
	}

	cmd.Println(buildSummary(m, report, countVariants(resolved)))
	for _, problem := range report.Problems() {
		if problem.Fatal() {
			cmd.Printf("skipped %s: %s\n", problem.Dir, problem.Detail)
		}
	}

	if buildOnly {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return site.Serve(ctx, buildOutputDir, buildHost, buildPort, logging.New("serve"))
}

func countVariants(records []*experiment.ExperimentRecord) int {
	n := 0
	for _, rec := range records {
		if rec.Config.RunVariant != "" {
			n++
		}
	}
	return n
}
