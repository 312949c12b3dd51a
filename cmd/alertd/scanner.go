package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/core/cashflow"
	"ledger_analytics/pkg/core/store"
	"ledger_analytics/pkg/metrics"
)

// alertStore is the slice of *store.LedgerStore the scanner needs.
type alertStore interface {
	ListOrganizations(ctx context.Context) ([]string, error)
	LoadPeriods(ctx context.Context, orgID string) ([]cashflow.PeriodInput, error)
	LoadRecurringItems(ctx context.Context, orgID string) ([]cashflow.RecurringItem, error)
	MergeAnalysis(ctx context.Context, rec store.AnalysisRecord) error
}

type mailer interface {
	SendPaymentAlerts(orgID, to string, alerts []cashflow.PaymentAlert) error
}

// scanLock keeps concurrent replicas from scanning the same tick.
type scanLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Scanner computes payment alerts for every stored organization, keeps the
// latest analysis and mails a digest to the configured recipient.
type Scanner struct {
	store      alertStore
	mail       mailer // nil disables email
	recipients map[string]string
	lock       scanLock // nil runs unguarded
	log        *logrus.Logger
	now        func() time.Time
}

// ScanResult summarizes one pass.
type ScanResult struct {
	Organizations int
	Skipped       int
	Failed        int
	Alerts        int
	EmailsSent    int

	// LockBusy is set when another instance held the scan lock.
	LockBusy bool
}

func NewScanner(s alertStore, m mailer, recipients map[string]string, logger *logrus.Logger) *Scanner {
	return &Scanner{store: s, mail: m, recipients: recipients, log: logger, now: time.Now}
}

// WithLock guards every pass with l.
func (s *Scanner) WithLock(l scanLock) *Scanner {
	s.lock = l
	return s
}

// RunOnce scans every organization. A failing organization is logged and
// counted; it does not stop the pass.
func (s *Scanner) RunOnce(ctx context.Context) (ScanResult, error) {
	var res ScanResult
	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx)
		if err != nil {
			return res, err
		}
		if !ok {
			res.LockBusy = true
			s.log.Info("[ALERTS] Scan skipped, another instance is running it")
			return res, nil
		}
		defer func() {
			// The scan context may already be done; release on a fresh one.
			relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.lock.Release(relCtx); err != nil {
				s.log.WithError(err).Warn("[ALERTS] Failed to release scan lock")
			}
		}()
	}

	orgs, err := s.store.ListOrganizations(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list organizations: %w", err)
	}

	today := s.now()
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Organizations++

		alerts, err := s.scanOrganization(ctx, org, today)
		metrics.ObserveAlertScan(len(alerts), err)
		switch {
		case errors.Is(err, store.ErrNotFound):
			res.Skipped++
			continue
		case err != nil:
			res.Failed++
			s.log.WithField("org", org).WithError(err).Error("[ALERTS] Scan failed")
			continue
		}
		res.Alerts += len(alerts)

		to, ok := s.recipients[org]
		if s.mail == nil || !ok || len(alerts) == 0 {
			continue
		}
		err = s.mail.SendPaymentAlerts(org, to, alerts)
		metrics.ObserveAlertEmail(err)
		if err != nil {
			s.log.WithField("org", org).WithError(err).Warn("[ALERTS] Digest not delivered")
			continue
		}
		res.EmailsSent++
	}

	s.log.WithFields(logrus.Fields{
		"organizations": res.Organizations,
		"skipped":       res.Skipped,
		"failed":        res.Failed,
		"alerts":        res.Alerts,
		"emails":        res.EmailsSent,
	}).Info("[ALERTS] Scan complete")
	return res, nil
}

func (s *Scanner) scanOrganization(ctx context.Context, org string, today time.Time) ([]cashflow.PaymentAlert, error) {
	periods, err := s.store.LoadPeriods(ctx, org)
	if err != nil {
		return nil, err
	}
	items, err := s.store.LoadRecurringItems(ctx, org)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	projected, err := cashflow.Project(periods, items)
	if err != nil {
		return nil, err
	}
	analysis := cashflow.Analyze(projected)
	alerts := cashflow.Alerts(items, periods, today)

	rec := store.AnalysisRecord{
		OrganizationID: org,
		GeneratedAt:    today.UTC(),
		CashFlow:       &analysis,
		Alerts:         alerts,
	}
	if err := s.store.MergeAnalysis(ctx, rec); err != nil {
		return nil, err
	}
	return alerts, nil
}
