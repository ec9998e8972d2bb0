package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/moyoez/sharegate/api"
	"github.com/moyoez/sharegate/api/models"
	"github.com/moyoez/sharegate/l10n"
	"github.com/moyoez/sharegate/tool"
)

func main() {
	flags := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(flags.Log)

	appCfg, err := tool.LoadConfig(flags.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlagOverrides(&appCfg, flags)

	catalog, err := l10n.NewCatalog()
	if err != nil {
		tool.DefaultLogger.Fatalf("Failed to load translations: %v", err)
	}
	if flags.UseLanguageDir != "" {
		if err := catalog.LoadDir(flags.UseLanguageDir); err != nil {
			tool.DefaultLogger.Fatalf("Failed to load translations from %s: %v", flags.UseLanguageDir, err)
		}
	}

	var store models.ShareStore
	if flags.UseShareDB != "" {
		store, err = models.OpenSQLiteShareStore(flags.UseShareDB)
		if err != nil {
			tool.DefaultLogger.Fatalf("%v", err)
		}
	} else {
		store = models.NewMemoryShareStore(time.Duration(appCfg.ShareTTLSeconds) * time.Second)
		tool.DefaultLogger.Info("Keeping shares in memory, they are lost on restart")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(tool.GetCurrentConfig(), store, catalog)
	if err := server.PublishSeeds(ctx); err != nil {
		tool.DefaultLogger.Fatalf("Failed to publish configured shares: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			tool.DefaultLogger.Errorf("Share server stopped: %v", err)
		}
	case <-ctx.Done():
		tool.DefaultLogger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			tool.DefaultLogger.Warnf("Graceful shutdown failed: %v", err)
		}
	}
}
