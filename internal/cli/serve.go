package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/egvia/egvia/internal/logger"
	"github.com/egvia/egvia/internal/metrics"
	"github.com/egvia/egvia/internal/pipeline"
	"github.com/egvia/egvia/internal/retrieval"
	"github.com/egvia/egvia/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveHost          string
	servePort          int
	serveEnableClinVar bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interpretation HTTP server",
	Long: `Serve starts the HTTP server exposing the interpretation API:

  POST /v1/interpret   interpret a single variant
  GET  /healthz        liveness probe
  GET  /metrics        Prometheus metrics

Example:
  egvia serve
  egvia serve --port 9000 --enable-clinvar`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	serveCmd.Flags().BoolVar(&serveEnableClinVar, "enable-clinvar", false, "enable the ClinVar retrieval adapter")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveEnableClinVar {
		cfg.Retrieval.EnableClinVar = true
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	metrics.Init()

	retriever := retrieval.BuildRetriever(cfg)
	orch := pipeline.NewOrchestrator(retriever, log)
	srv := server.New(cfg.Server, orch, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("clinvar_enabled", cfg.Retrieval.EnableClinVar))
		errCh <- srv.Listen()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
		if err := srv.Shutdown(); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
