package cli

import (
	"fmt"

	"placement/internal/config"
	"placement/internal/importer"
	"placement/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the placement HTTP API",
	Long: `Start an HTTP server exposing the placement records and reports.

Available endpoints:
- GET  /health, /stats: Health check and server statistics
- GET|POST /students, GET|PUT|DELETE /students/{id}: Student records
- GET  /students/{id}/matches: Open jobs ranked for a student
- GET|POST /companies, /jobs, /applications
- GET  /reports, /reports/statistics, /reports/breakdown?by=course
- GET  /reports/students.csv: Student export
- POST /analysis: Natural-language question about the data

With --watch (or importer.dir) the server also imports CSV files dropped
into the directory.

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled or server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("watch", "", "Directory to watch for student CSV files (overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	override := func(flagName string, target *string) {
		if cmd.Flags().Changed(flagName) {
			*target, _ = cmd.Flags().GetString(flagName)
		}
	}
	override("port", &cfg.Server.Port)
	override("host", &cfg.Server.Host)
	override("tls-mode", &cfg.Server.TLS.Mode)
	override("cert-file", &cfg.Server.TLS.CertFile)
	override("key-file", &cfg.Server.TLS.KeyFile)
	override("watch", &cfg.Importer.Dir)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	return withApp(cmd.Context(), func(a *app) error {
		if cfg.Importer.Dir != "" {
			watcher := importer.NewWatcher(cfg.Importer.Dir, cfg.Importer.DebounceDelay, a.svc, a.logger)
			if err := watcher.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() { _ = watcher.Stop() }()
		}

		opts := server.Options{
			Config:        cfg,
			Service:       a.svc,
			Observability: a.om,
			Version:       Version,
			Logger:        a.logger,
		}
		if a.ai != nil {
			opts.Models = a.ai
		}
		return server.NewServer(opts).Start()
	})
}
