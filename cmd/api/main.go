package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/api"
	"ledger_analytics/pkg/config"
	"ledger_analytics/pkg/core/investment"
	"ledger_analytics/pkg/core/ledger"
	"ledger_analytics/pkg/core/store"
)

func main() {
	cfgPath := config.DefaultPath
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("[FATAL] Failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg.Log)

	// Reference data
	catalog, err := investment.LoadCatalog(cfg.Data.CatalogPath)
	if err != nil {
		logger.Fatalf("[FATAL] Failed to load product catalog: %v", err)
	}
	logger.Infof("[CATALOG] Loaded %d products from %s", catalog.Len(), cfg.Data.CatalogPath)

	table := ledger.DefaultClassificationTable()
	if cfg.Data.ClassificationPath != "" {
		loaded, err := ledger.LoadClassificationTable(cfg.Data.ClassificationPath)
		if err != nil {
			logger.Warnf("[WARNING] Failed to load classification table: %v", err)
			logger.Warn("  Falling back to built-in classification rules")
		} else {
			table = loaded
		}
	}

	// Store: database when configured, file directory otherwise
	ctx := context.Background()
	if err := store.InitDB(ctx, cfg.Database.URL); err != nil {
		logger.Warnf("[WARNING] Database unavailable, using file store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx, store.GetPool()); err != nil {
		logger.Fatalf("[FATAL] %v", err)
	}
	ledgerStore := store.NewLedgerStore(store.GetPool(), cfg.Data.StoreDir, logger)

	router := api.NewRouter(api.Deps{
		Logger:         logger,
		Store:          ledgerStore,
		Catalog:        catalog,
		Classification: table,
		EnableMetrics:  cfg.Server.EnableMetrics,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	logger.Infof("API server starting on %s...", cfg.Server.Addr)
	for _, route := range api.Routes(router) {
		logger.Infof("  - %s", route)
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("[FATAL] Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("[API] Graceful shutdown failed")
	}
	logger.Info("[API] Server stopped")
}
