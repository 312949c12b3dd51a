package ledger

import "strings"

// Totals holds the three sides of the accounting equation.
type Totals struct {
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	Equity      float64 `json:"equity"`
}

// SumByCategory adds up every account in the given category.
func SumByCategory(accounts []LedgerAccount, category Category) float64 {
	var total float64
	for _, a := range accounts {
		if a.Category == category {
			total += a.Amount
		}
	}
	return total
}

// SumBySubcategory adds up the accounts of one category/subcategory pair.
func SumBySubcategory(accounts []LedgerAccount, category Category, subcategory string) float64 {
	var total float64
	for _, a := range accounts {
		if a.Category == category && a.Subcategory == subcategory {
			total += a.Amount
		}
	}
	return total
}

// SumByPrefix adds up every account whose code starts with prefix.
// An empty prefix matches all accounts.
func SumByPrefix(accounts []LedgerAccount, prefix string) float64 {
	var total float64
	for _, a := range accounts {
		if strings.HasPrefix(a.Code, prefix) {
			total += a.Amount
		}
	}
	return total
}

// GroupBySubcategory returns category totals keyed by subcategory.
func GroupBySubcategory(accounts []LedgerAccount, category Category) map[string]float64 {
	groups := make(map[string]float64)
	for _, a := range accounts {
		if a.Category == category {
			groups[a.Subcategory] += a.Amount
		}
	}
	return groups
}

// ComputeTotals sums assets, liabilities and equity in a single pass.
func ComputeTotals(accounts []LedgerAccount) Totals {
	var t Totals
	for _, a := range accounts {
		switch a.Category {
		case CategoryAsset:
			t.Assets += a.Amount
		case CategoryLiability:
			t.Liabilities += a.Amount
		case CategoryEquity:
			t.Equity += a.Amount
		}
	}
	return t
}
