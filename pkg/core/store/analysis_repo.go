package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger_analytics/pkg/core/cashflow"
	"ledger_analytics/pkg/core/indicators"
)

// KindAnalysis holds the most recent computed analysis of an organization.
const KindAnalysis = "analysis"

// AnalysisRecord is a computed result kept so reports can be served without
// recomputation. Either section may be nil.
type AnalysisRecord struct {
	OrganizationID string                  `json:"organization_id"`
	GeneratedAt    time.Time               `json:"generated_at"`
	CashFlow       *cashflow.Analysis      `json:"cash_flow,omitempty"`
	Indicators     *indicators.Series      `json:"indicators,omitempty"`
	Alerts         []cashflow.PaymentAlert `json:"alerts,omitempty"`
}

// SaveAnalysis persists the record, replacing the previous one.
// GeneratedAt defaults to now.
func (s *LedgerStore) SaveAnalysis(ctx context.Context, rec AnalysisRecord) error {
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = time.Now().UTC()
	}
	if err := s.save(ctx, rec.OrganizationID, KindAnalysis, "latest", rec); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// MergeAnalysis overlays rec onto the stored record. Each non-nil section of
// rec replaces the stored one and nil sections keep what was there, so the
// cash flow handler and the alert scanner do not erase each other's output.
func (s *LedgerStore) MergeAnalysis(ctx context.Context, rec AnalysisRecord) error {
	prev, err := s.LoadAnalysis(ctx, rec.OrganizationID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to load analysis for merge: %w", err)
	default:
		if rec.CashFlow == nil {
			rec.CashFlow = prev.CashFlow
		}
		if rec.Indicators == nil {
			rec.Indicators = prev.Indicators
		}
		if rec.Alerts == nil {
			rec.Alerts = prev.Alerts
		}
	}
	return s.SaveAnalysis(ctx, rec)
}

// LoadAnalysis retrieves the latest record for an organization.
func (s *LedgerStore) LoadAnalysis(ctx context.Context, orgID string) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	if err := s.load(ctx, orgID, KindAnalysis, "latest", &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
