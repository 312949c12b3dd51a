package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/config"
	"ledger_analytics/pkg/core/store"
	"ledger_analytics/pkg/lock"
	"ledger_analytics/pkg/metrics"
	"ledger_analytics/pkg/notify"
)

const (
	scanLockKey = "ledger:alertd:scan"
	scanTimeout = 5 * time.Minute
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath, "path to the YAML config")
	once := flag.Bool("once", false, "run a single scan and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logrus.Fatalf("[FATAL] Failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg.Log)
	metrics.Init()

	ctx := context.Background()
	if err := store.InitDB(ctx, cfg.Database.URL); err != nil {
		logger.Warnf("[WARNING] Database unavailable, using file store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx, store.GetPool()); err != nil {
		logger.Fatalf("[FATAL] %v", err)
	}
	ledgerStore := store.NewLedgerStore(store.GetPool(), cfg.Data.StoreDir, logger)

	var sender mailer
	if cfg.SMTP.Enabled() {
		sender = notify.NewSender(cfg.SMTP, logger)
	} else {
		logger.Warn("[ALERTS] SMTP not configured; alerts are stored but not mailed")
	}
	scanner := NewScanner(ledgerStore, sender, cfg.Alerts.Recipients, logger)

	if cfg.Redis.Enabled() {
		client, err := lock.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Fatalf("[FATAL] Scan lock unavailable: %v", err)
		}
		defer client.Close()
		scanner.WithLock(lock.NewRedisLock(client, scanLockKey, scanTimeout, logger))
		logger.Infof("[ALERTS] Scan lock enabled on %s", cfg.Redis.Addr)
	}

	run := func() {
		scanCtx, cancel := context.WithTimeout(ctx, scanTimeout)
		defer cancel()
		if _, err := scanner.RunOnce(scanCtx); err != nil {
			logger.WithError(err).Error("[ALERTS] Scan aborted")
		}
	}

	if *once {
		run()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Alerts.Schedule, run); err != nil {
		logger.Fatalf("[FATAL] Invalid alert schedule %q: %v", cfg.Alerts.Schedule, err)
	}
	c.Start()
	logger.Infof("[ALERTS] Scheduler started with %q", cfg.Alerts.Schedule)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	<-c.Stop().Done()
	logger.Info("[ALERTS] Scheduler stopped")
}
