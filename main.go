package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/serroba/design-studio/internal/acl"
	"github.com/serroba/design-studio/internal/api"
	"github.com/serroba/design-studio/internal/config"
	"github.com/serroba/design-studio/internal/editor"
	"github.com/serroba/design-studio/internal/render"
	"github.com/serroba/design-studio/internal/storage"
	"github.com/serroba/design-studio/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level, _ := cfg.Log.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize permissions and broadcast
	permStore := acl.NewMemoryStore()
	hub := ws.NewHub(logger)

	gateway := storage.NewGateway(storage.GatewayConfig{
		Store:   store,
		Checker: acl.NewChecker(permStore),
		Timeout: cfg.Storage.SaveTimeout,
		Logger:  logger,
	})

	manager := editor.NewManager(editor.ManagerConfig{
		Gateway:    gateway,
		Hub:        hub,
		Autosave:   storage.NewAutosavePolicy(cfg.Autosave.EveryCommits),
		MaxHistory: cfg.History.MaxEntries,
		Logger:     logger,
	})

	projector, err := render.NewProjector(render.Config{
		Width:   cfg.Export.Width,
		Height:  cfg.Export.Height,
		Padding: cfg.Export.Padding,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	server := api.NewServer(api.ServerConfig{
		Manager:     manager,
		Gateway:     gateway,
		Permissions: permStore,
		Hub:         hub,
		Projector:   projector,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		// Connections, including hijacked WebSockets, end with ctx.
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}

	if err := manager.CloseAll(shutdownCtx); err != nil {
		logger.Error("saving open designs", "error", err)
	}

	gateway.Wait()
	logger.Info("server stopped")

	return nil
}

func openStore(cfg config.StorageConfig) (storage.Store, func(), error) {
	if cfg.Driver != config.DriverSQLite {
		return storage.NewMemoryStore(), func() {}, nil
	}

	db, err := storage.OpenSQLite(cfg.Path, storage.WithMkdirAll())
	if err != nil {
		return nil, nil, err
	}

	return db, func() {
		if err := db.Close(); err != nil {
			slog.Error("close database", "error", err)
		}
	}, nil
}
