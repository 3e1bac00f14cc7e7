package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/MJE43/rune-ration-replay-go/internal/api"
	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/config"
	"github.com/MJE43/rune-ration-replay-go/internal/logging"
	"github.com/MJE43/rune-ration-replay-go/internal/scan"
	"github.com/MJE43/rune-ration-replay-go/internal/signing"
	"github.com/MJE43/rune-ration-replay-go/internal/store"
	"github.com/MJE43/rune-ration-replay-go/internal/version"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "battle server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	logger.Info("server_starting",
		"go_version", runtime.Version(),
		"engine_version", version.EngineVersion,
		"git_commit", version.GitCommit,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	signer, err := signing.LoadSigner(signing.NewKeyStore(cfg.KeyringService, cfg.SigningFallback))
	if err != nil {
		// Battles are still archived, just unsigned.
		logger.Warn("signing_disabled", "error", err)
		signer = nil
	}

	server := api.NewServer(api.Options{
		Catalog:            source,
		DB:                 db,
		Signer:             signer,
		Scanner:            scan.NewScanner(cfg.ScanWorkers, cfg.ScanTimeout, version.EngineVersion),
		Logger:             logger,
		ReplayInterval:     cfg.ReplayInterval,
		CampaignMaxBattles: cfg.CampaignMaxBattles,
		RequestTimeout:     cfg.RequestTimeout,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()
	logger.Info("server_listening", "addr", ln.Addr().String(), "db_path", cfg.DBPath)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server_stopped")
	return nil
}

// openCatalog loads the catalog directory when one is configured, otherwise
// the built-in data.
func openCatalog(ctx context.Context, cfg config.Config, logger *slog.Logger) (*catalog.Source, error) {
	if cfg.CatalogDir == "" {
		return catalog.NewSource(catalog.Default()), nil
	}
	source, err := catalog.OpenSource(afero.NewOsFs(), cfg.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if cfg.CatalogWatch {
		if err := source.Watch(ctx); err != nil {
			return nil, fmt.Errorf("watch catalog: %w", err)
		}
		logger.Info("catalog_watching", "dir", cfg.CatalogDir)
	}
	return source, nil
}
