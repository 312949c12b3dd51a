package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/core/cashflow"
	"ledger_analytics/pkg/core/debt"
	"ledger_analytics/pkg/core/indicators"
	"ledger_analytics/pkg/core/ledger"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidScope = errors.New("invalid organization scope")
)

// Document kinds.
const (
	KindSnapshot  = "snapshot"
	KindRecurring = "recurring_items"
	KindPeriods   = "cashflow_periods"
	KindLoans     = "loans"
	KindFigures   = "period_figures"
)

// LedgerStore supplies the records the calculators consume.
// Supports Hybrid Vault: DB (Primary) + File System (Fallback/Local)
type LedgerStore struct {
	pool    *pgxpool.Pool
	fileDir string
	log     *logrus.Logger
}

// NewLedgerStore creates a store. With a nil pool every read and write goes to
// dir; with a pool the database is authoritative and dir is not used.
func NewLedgerStore(pool *pgxpool.Pool, dir string, logger *logrus.Logger) *LedgerStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "ledger")
	}
	if pool == nil {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.WithError(err).Warn("[STORE] Check LedgerStore dir")
		}
	}
	return &LedgerStore{pool: pool, fileDir: dir, log: logger}
}

// =============================================================================
// TYPED ACCESSORS
// =============================================================================

func snapshotKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// LoadSnapshot returns the balance snapshot of an organization for a period.
func (s *LedgerStore) LoadSnapshot(ctx context.Context, orgID string, year, month int) (*ledger.BalanceSnapshot, error) {
	var snap ledger.BalanceSnapshot
	if err := s.load(ctx, orgID, KindSnapshot, snapshotKey(year, month), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaveSnapshot upserts a snapshot under its own organization and period.
func (s *LedgerStore) SaveSnapshot(ctx context.Context, snap ledger.BalanceSnapshot) error {
	return s.save(ctx, snap.OrganizationID, KindSnapshot, snapshotKey(snap.PeriodYear, snap.PeriodMonth), snap)
}

// LoadRecurringItems returns an organization's recurring templates.
func (s *LedgerStore) LoadRecurringItems(ctx context.Context, orgID string) ([]cashflow.RecurringItem, error) {
	var items []cashflow.RecurringItem
	if err := s.load(ctx, orgID, KindRecurring, "current", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveRecurringItems replaces an organization's recurring templates.
func (s *LedgerStore) SaveRecurringItems(ctx context.Context, orgID string, items []cashflow.RecurringItem) error {
	return s.save(ctx, orgID, KindRecurring, "current", items)
}

// LoadPeriods returns an organization's cash-flow period inputs in
// chronological order.
func (s *LedgerStore) LoadPeriods(ctx context.Context, orgID string) ([]cashflow.PeriodInput, error) {
	var periods []cashflow.PeriodInput
	if err := s.load(ctx, orgID, KindPeriods, "current", &periods); err != nil {
		return nil, err
	}
	sort.SliceStable(periods, func(i, j int) bool {
		if periods[i].Year != periods[j].Year {
			return periods[i].Year < periods[j].Year
		}
		return periods[i].Month < periods[j].Month
	})
	return periods, nil
}

// SavePeriods replaces an organization's cash-flow period inputs.
func (s *LedgerStore) SavePeriods(ctx context.Context, orgID string, periods []cashflow.PeriodInput) error {
	return s.save(ctx, orgID, KindPeriods, "current", periods)
}

// LoadLoans returns an organization's loans with their paid installments.
func (s *LedgerStore) LoadLoans(ctx context.Context, orgID string) ([]debt.Position, error) {
	var positions []debt.Position
	if err := s.load(ctx, orgID, KindLoans, "current", &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// SaveLoans replaces an organization's loans.
func (s *LedgerStore) SaveLoans(ctx context.Context, orgID string, positions []debt.Position) error {
	return s.save(ctx, orgID, KindLoans, "current", positions)
}

// LoadFigures returns the per-period balance and income figures used for the
// indicator series.
func (s *LedgerStore) LoadFigures(ctx context.Context, orgID string) ([]indicators.PeriodFigures, error) {
	var figures []indicators.PeriodFigures
	if err := s.load(ctx, orgID, KindFigures, "current", &figures); err != nil {
		return nil, err
	}
	return figures, nil
}

// SaveFigures replaces an organization's period figures.
func (s *LedgerStore) SaveFigures(ctx context.Context, orgID string, figures []indicators.PeriodFigures) error {
	return s.save(ctx, orgID, KindFigures, "current", figures)
}

// ListOrganizations returns every organization with at least one document,
// sorted.
func (s *LedgerStore) ListOrganizations(ctx context.Context) ([]string, error) {
	if s.pool != nil {
		rows, err := s.pool.Query(ctx, `SELECT DISTINCT organization_id FROM ledger_documents ORDER BY organization_id`)
		if err != nil {
			return nil, fmt.Errorf("failed to list organizations: %w", err)
		}
		orgs, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, fmt.Errorf("failed to scan organizations: %w", err)
		}
		return orgs, nil
	}

	entries, err := os.ReadDir(s.fileDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read store dir: %w", err)
	}
	orgs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			orgs = append(orgs, e.Name())
		}
	}
	sort.Strings(orgs)
	return orgs, nil
}

// =============================================================================
// DOCUMENT STORAGE
// =============================================================================

func validScope(orgID string) error {
	if orgID == "" || strings.ContainsAny(orgID, `/\`) || strings.Contains(orgID, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidScope, orgID)
	}
	return nil
}

func (s *LedgerStore) load(ctx context.Context, orgID, kind, key string, out interface{}) error {
	if err := validScope(orgID); err != nil {
		return err
	}

	// 1. Try DB
	if s.pool != nil {
		var data []byte
		err := s.pool.QueryRow(ctx,
			`SELECT data FROM ledger_documents WHERE organization_id = $1 AND kind = $2 AND doc_key = $3`,
			orgID, kind, key,
		).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s %s/%s: %w", kind, orgID, key, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load %s from db: %w", kind, err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to unmarshal db %s: %w", kind, err)
		}
		return nil
	}

	// 2. File System
	data, err := os.ReadFile(s.path(orgID, kind, key))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s %s/%s: %w", kind, orgID, key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s file: %w", kind, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s file: %w", kind, err)
	}
	return nil
}

func (s *LedgerStore) save(ctx context.Context, orgID, kind, key string, doc interface{}) error {
	if err := validScope(orgID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", kind, err)
	}

	if s.pool != nil {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO ledger_documents (organization_id, kind, doc_key, data, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (organization_id, kind, doc_key)
			DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
			orgID, kind, key, data,
		)
		if err != nil {
			return fmt.Errorf("failed to save %s to db: %w", kind, err)
		}
		s.log.WithFields(logrus.Fields{"org": orgID, "kind": kind, "key": key}).Debug("[STORE] saved to db")
		return nil
	}

	path := s.path(orgID, kind, key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create store dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", kind, err)
	}
	s.log.WithFields(logrus.Fields{"org": orgID, "kind": kind, "path": path}).Debug("[STORE] saved to file")
	return nil
}

func (s *LedgerStore) path(orgID, kind, key string) string {
	return filepath.Join(s.fileDir, orgID, kind, key+".json")
}
