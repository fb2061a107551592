//go:build e2e

package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	"alignbrowser/internal/experiment"
	"alignbrowser/internal/logging"
	"alignbrowser/internal/manifest"
	"alignbrowser/internal/site"
)

// Builds a one-run site, serves it, and drives headless Chrome through the
// frontend: manifest summary, selector cascade, transcript rendering.
func TestBrowser_RendersExperiment(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	root := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "dist")
	writeFixtureRun(t, root, "pipeline_baseline/merit-0.5")

	log := logging.New("e2e")
	scanner := &experiment.Scanner{Log: log}
	dirs, err := scanner.Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	loader := &experiment.Loader{Log: log, Parallel: 1}
	records, _, err := loader.LoadAll(ctx, root, dirs)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	resolved := (&experiment.Resolver{Log: log}).Resolve(records)
	m := (&manifest.Builder{Log: log}).Build(resolved)
	if err := site.Assemble(outDir, root, m, resolved, log); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	srv := httptest.NewServer(http.FileServer(http.Dir(outDir)))
	defer srv.Close()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	t.Run("manifest summary rendered", func(t *testing.T) {
		var summary string
		err := chromedp.Run(browserCtx,
			chromedp.Navigate(srv.URL),
			chromedp.WaitReady("#adm-select", chromedp.ByID),
			chromedp.Sleep(time.Second),
			chromedp.Text("#meta-summary", &summary, chromedp.ByID),
		)
		if err != nil {
			t.Fatalf("chromedp: %v", err)
		}
		if !strings.Contains(summary, "1 experiments") {
			t.Errorf("summary = %q, want experiment count", summary)
		}
	})

	t.Run("selector cascade populated", func(t *testing.T) {
		var adm, sig, scenario string
		err := chromedp.Run(browserCtx,
			chromedp.Navigate(srv.URL),
			chromedp.WaitReady("#adm-select", chromedp.ByID),
			chromedp.Sleep(time.Second),
			chromedp.Value("#adm-select", &adm, chromedp.ByID),
			chromedp.Value("#kdma-select", &sig, chromedp.ByID),
			chromedp.Value("#scenario-select", &scenario, chromedp.ByID),
		)
		if err != nil {
			t.Fatalf("chromedp: %v", err)
		}
		if adm != "pipeline_baseline" {
			t.Errorf("adm select = %q", adm)
		}
		if sig != "merit-0.5" {
			t.Errorf("kdma select = %q", sig)
		}
		if scenario != "june2025-AF1-eval" {
			t.Errorf("scenario select = %q", scenario)
		}
	})

	t.Run("transcript fetched and rendered", func(t *testing.T) {
		var justification string
		err := chromedp.Run(browserCtx,
			chromedp.Navigate(srv.URL),
			chromedp.WaitReady("#adm-select", chromedp.ByID),
			chromedp.Sleep(2*time.Second),
			chromedp.Text("#justification", &justification, chromedp.ByID),
		)
		if err != nil {
			t.Fatalf("chromedp: %v", err)
		}
		if !strings.Contains(justification, "A is more urgent") {
			t.Errorf("justification = %q", justification)
		}
	})

	t.Run("manifest reachable from browser context", func(t *testing.T) {
		js := fmt.Sprintf(`
			var xhr = new XMLHttpRequest();
			xhr.open('GET', '%s/manifest.json', false);
			xhr.send();
			JSON.stringify(Object.keys(JSON.parse(xhr.responseText)));
		`, srv.URL)
		var result string
		err := chromedp.Run(browserCtx,
			chromedp.Navigate(srv.URL),
			chromedp.WaitReady("#adm-select", chromedp.ByID),
			chromedp.Evaluate(js, &result),
		)
		if err != nil {
			t.Fatalf("chromedp: %v", err)
		}
		for _, key := range []string{"experiments", "metadata"} {
			if !strings.Contains(result, key) {
				t.Errorf("manifest response missing key %q, got keys: %s", key, result)
			}
		}
	})
}
