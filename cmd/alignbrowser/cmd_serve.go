package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"alignbrowser/internal/logging"
	"alignbrowser/internal/site"
)

var (
	servePort int
	serveHost string
	serveDir  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a previously built output directory",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveDir, "output-dir", "o", "dist", "built output directory to serve")
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "HTTP port")
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "HTTP bind address")
}

func runServe(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(filepath.Join(serveDir, "manifest.json")); err != nil {
		return fmt.Errorf("%s does not look like a built output directory (run build first): %w", serveDir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return site.Serve(ctx, serveDir, serveHost, servePort, logging.New("serve"))
}
