package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ledger_analytics/pkg/config"
	"ledger_analytics/pkg/core/ledger"
	"ledger_analytics/pkg/core/store"
)

// app carries what every subcommand needs once the root has started.
type app struct {
	cfgPath  string
	storeDir string

	cfg   *config.Config
	log   *logrus.Logger
	store *store.LedgerStore
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Seed and inspect the ledger analytics store",
		Long: `ledgerctl writes the documents the analytics services read (snapshots,
cash-flow periods, recurring items, loans, period figures) and prints or
exports what they produced.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.open,
		PersistentPostRun: func(*cobra.Command, []string) { store.Close() },
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", config.DefaultPath, "Path to the YAML config")
	root.PersistentFlags().StringVar(&a.storeDir, "store-dir", "", "Use this file store directory instead of the configured store")

	root.AddCommand(newImportCmd(a), newOrgsCmd(a), newAnalysisCmd(a), newExportCmd(a))
	return root
}

// open loads config and connects the store. --store-dir forces the file
// store and skips the database.
func (a *app) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = config.NewLogger(cfg.Log)
	a.log.SetOutput(cmd.ErrOrStderr())

	if a.storeDir != "" {
		a.store = store.NewLedgerStore(nil, a.storeDir, a.log)
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := store.InitDB(ctx, cfg.Database.URL); err != nil {
		a.log.Warnf("[WARNING] Database unavailable, using file store: %v", err)
	}
	if err := store.Migrate(ctx, store.GetPool()); err != nil {
		return err
	}
	a.store = store.NewLedgerStore(store.GetPool(), cfg.Data.StoreDir, a.log)
	return nil
}

// classificationTable returns the configured table, or the built-in rules
// when none loads.
func (a *app) classificationTable() *ledger.ClassificationTable {
	if a.cfg.Data.ClassificationPath == "" {
		return ledger.DefaultClassificationTable()
	}
	table, err := ledger.LoadClassificationTable(a.cfg.Data.ClassificationPath)
	if err != nil {
		a.log.Warnf("[WARNING] Failed to load classification table, using built-in rules: %v", err)
		return ledger.DefaultClassificationTable()
	}
	return table
}

func requireOrg(org string) error {
	if org == "" {
		return fmt.Errorf("organization required: use --org")
	}
	return nil
}
