package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vantage-network/vantage/internal/api"
	"github.com/vantage-network/vantage/internal/app/settlement"
	"github.com/vantage-network/vantage/internal/daemon"
	"github.com/vantage-network/vantage/internal/domain"
	"github.com/vantage-network/vantage/internal/infra/sqlite"
	"github.com/vantage-network/vantage/internal/logging"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", daemon.DefaultConfigPath(), "Path to config.toml")
	serveCmd.Flags().String("db", "", "Override the SQLite database path")
	serveCmd.Flags().Int("port", 0, "Override the API port")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the settlement HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := daemon.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.API.Port = port
	}

	log, err := logging.New(cfg.Logging.Production)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	// The platform-wide aggregate row must exist before the first read.
	if err := db.InTx(func(st *sqlite.Store) error {
		return st.EnsureStats(domain.RootMemberID)
	}); err != nil {
		return fmt.Errorf("init root stats: %w", err)
	}

	core := settlement.New(db, log)
	server := api.NewServer(core)
	if cfg.Metrics.Enabled {
		server.EnableMetrics()
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("vantage listening",
			zap.String("addr", cfg.Addr()),
			zap.String("db", cfg.Storage.Path),
			zap.Bool("metrics", cfg.Metrics.Enabled))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
