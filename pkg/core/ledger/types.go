// Package ledger defines the ledger records consumed by the analytics engine and
// the AccountAggregator helpers every other calculator builds on.
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the top-level balance sheet classification of an account.
type Category string

const (
	CategoryAsset     Category = "asset"
	CategoryLiability Category = "liability"
	CategoryEquity    Category = "equity"
)

// Subcategory conventions read by the indicators calculator.
const (
	SubcategoryCurrent    = "current"
	SubcategoryInventory  = "inventory"
	SubcategoryNonCurrent = "non_current"
)

var (
	ErrUnknownCategory = errors.New("unknown account category")
	ErrUnclassified    = errors.New("account code not covered by classification table")
	ErrMissingCode     = errors.New("account code is required")
)

// ParseCategory converts a raw string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Valid reports whether c is one of the three balance sheet categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAsset, CategoryLiability, CategoryEquity:
		return true
	}
	return false
}

// LedgerAccount is one line of a balance snapshot.
type LedgerAccount struct {
	Code        string   `json:"code" yaml:"code"`
	Name        string   `json:"name" yaml:"name"`
	Category    Category `json:"category" yaml:"category"`
	Subcategory string   `json:"subcategory" yaml:"subcategory"`
	Amount      float64  `json:"amount" yaml:"amount"`
}

// SnapshotStatus tracks whether a snapshot may still be edited.
type SnapshotStatus string

const (
	StatusDraft SnapshotStatus = "draft"
	StatusFinal SnapshotStatus = "final"
)

// BalanceSnapshot is the ordered set of accounts for one organization and period.
// The organization and period are carried explicitly; nothing in the engine
// reads a "current organization" from anywhere else.
type BalanceSnapshot struct {
	OrganizationID string          `json:"organization_id"`
	PeriodYear     int             `json:"period_year"`
	PeriodMonth    int             `json:"period_month"`
	Status         SnapshotStatus  `json:"status"`
	Accounts       []LedgerAccount `json:"accounts"`
}

// IsFinal reports whether the snapshot has been finalized.
func (s BalanceSnapshot) IsFinal() bool {
	return s.Status == StatusFinal
}

// Clone returns a deep copy so callers can derive new snapshots without
// touching the original account slice.
func (s BalanceSnapshot) Clone() BalanceSnapshot {
	out := s
	out.Accounts = make([]LedgerAccount, len(s.Accounts))
	copy(out.Accounts, s.Accounts)
	return out
}
