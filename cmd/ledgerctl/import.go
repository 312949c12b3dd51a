package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ledger_analytics/pkg/core/cashflow"
	"ledger_analytics/pkg/core/debt"
	"ledger_analytics/pkg/core/indicators"
	"ledger_analytics/pkg/core/ledger"
	"ledger_analytics/pkg/core/utils"
)

// Importable document kinds, as typed on the command line.
var importKinds = []string{"snapshot", "periods", "items", "loans", "figures"}

func newImportCmd(a *app) *cobra.Command {
	var (
		org      string
		classify bool
	)

	cmd := &cobra.Command{
		Use:   "import KIND FILE",
		Short: "Store a JSON (or Hjson) document for an organization",
		Long: `Store a document read from FILE. KIND is one of: ` + strings.Join(importKinds, ", ") + `.
Snapshots carry their own organization and period; --org fills a missing
organization and must match one that is present. Every other kind needs --org
and replaces the organization's current document.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("cannot read %s: %w", args[1], err)
			}
			return a.importDocument(cmd, args[0], data, org, classify)
		},
	}
	cmd.Flags().StringVarP(&org, "org", "o", "", "Organization ID")
	cmd.Flags().BoolVar(&classify, "classify", false, "Fill snapshot account categories from the classification table")
	return cmd
}

func (a *app) importDocument(cmd *cobra.Command, kind string, data []byte, org string, classify bool) error {
	ctx := cmd.Context()
	var (
		count int
		err   error
	)

	switch kind {
	case "snapshot":
		var snap ledger.BalanceSnapshot
		if err := decode(data, &snap); err != nil {
			return err
		}
		if snap, err = a.prepareSnapshot(snap, org, classify); err != nil {
			return err
		}
		org, count = snap.OrganizationID, len(snap.Accounts)
		err = a.store.SaveSnapshot(ctx, snap)

	case "periods":
		var periods []cashflow.PeriodInput
		if err := decode(data, &periods); err != nil {
			return err
		}
		if err := requireOrg(org); err != nil {
			return err
		}
		for i, p := range periods {
			if p.Month < 1 || p.Month > 12 {
				return fmt.Errorf("period %d: month %d out of range", i+1, p.Month)
			}
		}
		count = len(periods)
		err = a.store.SavePeriods(ctx, org, periods)

	case "items":
		var items []cashflow.RecurringItem
		if err := decode(data, &items); err != nil {
			return err
		}
		if err := requireOrg(org); err != nil {
			return err
		}
		for _, it := range items {
			if err := it.Validate(); err != nil {
				return err
			}
		}
		count = len(items)
		err = a.store.SaveRecurringItems(ctx, org, items)

	case "loans":
		var positions []debt.Position
		if err := decode(data, &positions); err != nil {
			return err
		}
		if err := requireOrg(org); err != nil {
			return err
		}
		for _, p := range positions {
			if _, err := debt.Installment(p.Loan); err != nil {
				return fmt.Errorf("loan %q: %w", p.Loan.Name, err)
			}
		}
		count = len(positions)
		err = a.store.SaveLoans(ctx, org, positions)

	case "figures":
		var figures []indicators.PeriodFigures
		if err := decode(data, &figures); err != nil {
			return err
		}
		if err := requireOrg(org); err != nil {
			return err
		}
		count = len(figures)
		err = a.store.SaveFigures(ctx, org, figures)

	default:
		return fmt.Errorf("unknown kind %q (want one of %s)", kind, strings.Join(importKinds, ", "))
	}
	if err != nil {
		return err
	}

	a.log.WithField("org", org).Infof("[IMPORT] Stored %s (%d records)", kind, count)
	fmt.Fprintf(cmd.OutOrStdout(), "stored %d %s record(s) for %s\n", count, kind, org)
	return nil
}

func (a *app) prepareSnapshot(snap ledger.BalanceSnapshot, org string, classify bool) (ledger.BalanceSnapshot, error) {
	switch {
	case snap.OrganizationID == "":
		snap.OrganizationID = org
	case org != "" && org != snap.OrganizationID:
		return snap, fmt.Errorf("--org %s does not match snapshot organization %s", org, snap.OrganizationID)
	}
	if err := requireOrg(snap.OrganizationID); err != nil {
		return snap, err
	}
	if snap.PeriodMonth < 1 || snap.PeriodMonth > 12 || snap.PeriodYear == 0 {
		return snap, fmt.Errorf("snapshot period %04d-%02d is invalid", snap.PeriodYear, snap.PeriodMonth)
	}
	if snap.Status == "" {
		snap.Status = ledger.StatusDraft
	}
	if classify {
		accounts, err := a.classificationTable().ClassifyAll(snap.Accounts)
		if err != nil {
			return snap, err
		}
		snap.Accounts = accounts
	}
	return snap, nil
}

func decode(data []byte, v interface{}) error {
	if _, err := utils.DecodeLenient(data, v); err != nil {
		return err
	}
	return utils.RequireFields(v)
}
