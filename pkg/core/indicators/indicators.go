// Package indicators derives liquidity, profitability, leverage and efficiency
// ratios from a balance snapshot and its matching income figures, and folds
// them into a 0-100 health score.
//
// Ratios are plain ratios (0.15 means 15%). Every zero denominator yields 0.
package indicators

import (
	"ledger_analytics/pkg/core/calc"
	"ledger_analytics/pkg/core/ledger"
)

// CashPrefix is the account-code prefix holding cash and equivalents.
const CashPrefix = "11"

// BalanceFigures are the balance sheet inputs.
type BalanceFigures struct {
	CurrentAssets      float64 `json:"current_assets"`
	Inventory          float64 `json:"inventory"`
	Cash               float64 `json:"cash"`
	TotalAssets        float64 `json:"total_assets"`
	CurrentLiabilities float64 `json:"current_liabilities"`
	TotalLiabilities   float64 `json:"total_liabilities"`
	Equity             float64 `json:"equity"`
}

// IncomeFigures are the income statement inputs for the same period.
type IncomeFigures struct {
	Revenue           float64 `json:"revenue"`
	CostOfSales       float64 `json:"cost_of_sales"`
	OperatingExpenses float64 `json:"operating_expenses"`
	NetProfit         float64 `json:"net_profit"`
}

// BalanceFiguresFromSnapshot aggregates a classified snapshot. Inventory
// counts towards current assets.
func BalanceFiguresFromSnapshot(s ledger.BalanceSnapshot) BalanceFigures {
	inventory := ledger.SumBySubcategory(s.Accounts, ledger.CategoryAsset, ledger.SubcategoryInventory)
	totals := ledger.ComputeTotals(s.Accounts)
	return BalanceFigures{
		CurrentAssets:      ledger.SumBySubcategory(s.Accounts, ledger.CategoryAsset, ledger.SubcategoryCurrent) + inventory,
		Inventory:          inventory,
		Cash:               ledger.SumByPrefix(s.Accounts, CashPrefix),
		TotalAssets:        totals.Assets,
		CurrentLiabilities: ledger.SumBySubcategory(s.Accounts, ledger.CategoryLiability, ledger.SubcategoryCurrent),
		TotalLiabilities:   totals.Liabilities,
		Equity:             totals.Equity,
	}
}

// Liquidity ratios.
type Liquidity struct {
	CurrentRatio   float64 `json:"current_ratio"`
	AcidTest       float64 `json:"acid_test"`
	CashRatio      float64 `json:"cash_ratio"`
	WorkingCapital float64 `json:"working_capital"`
}

// Profitability ratios.
type Profitability struct {
	GrossMargin     float64 `json:"gross_margin"`
	OperatingMargin float64 `json:"operating_margin"`
	NetMargin       float64 `json:"net_margin"`
	ROE             float64 `json:"roe"`
	ROA             float64 `json:"roa"`
}

// Leverage ratios.
type Leverage struct {
	DebtRatio        float64 `json:"debt_ratio"`
	DebtToEquity     float64 `json:"debt_to_equity"`
	EquityMultiplier float64 `json:"equity_multiplier"`
}

// Efficiency ratios.
type Efficiency struct {
	AssetTurnover float64 `json:"asset_turnover"`
}

// IndicatorSet is the full ratio set for one period.
type IndicatorSet struct {
	Balance       BalanceFigures `json:"balance"`
	Income        IncomeFigures  `json:"income"`
	Liquidity     Liquidity      `json:"liquidity"`
	Profitability Profitability  `json:"profitability"`
	Leverage      Leverage       `json:"leverage"`
	Efficiency    Efficiency     `json:"efficiency"`
	HealthScore   float64        `json:"health_score"`
	RiskLevel     RiskLevel      `json:"risk_level"`
}

// Calculate derives every ratio plus the health score and risk level.
func Calculate(b BalanceFigures, i IncomeFigures) IndicatorSet {
	set := IndicatorSet{
		Balance: b,
		Income:  i,
		Liquidity: Liquidity{
			CurrentRatio:   calc.SafeDiv(b.CurrentAssets, b.CurrentLiabilities),
			AcidTest:       calc.SafeDiv(b.CurrentAssets-b.Inventory, b.CurrentLiabilities),
			CashRatio:      calc.SafeDiv(b.Cash, b.CurrentLiabilities),
			WorkingCapital: b.CurrentAssets - b.CurrentLiabilities,
		},
		Profitability: Profitability{
			GrossMargin:     calc.SafeDiv(i.Revenue-i.CostOfSales, i.Revenue),
			OperatingMargin: calc.SafeDiv(i.Revenue-i.CostOfSales-i.OperatingExpenses, i.Revenue),
			NetMargin:       calc.SafeDiv(i.NetProfit, i.Revenue),
			ROE:             calc.SafeDiv(i.NetProfit, b.Equity),
			ROA:             calc.SafeDiv(i.NetProfit, b.TotalAssets),
		},
		Leverage: Leverage{
			DebtRatio:        calc.SafeDiv(b.TotalLiabilities, b.TotalAssets),
			DebtToEquity:     calc.SafeDiv(b.TotalLiabilities, b.Equity),
			EquityMultiplier: calc.SafeDiv(b.TotalAssets, b.Equity),
		},
		Efficiency: Efficiency{
			AssetTurnover: calc.SafeDiv(i.Revenue, b.TotalAssets),
		},
	}
	set.HealthScore = HealthScore(set)
	set.RiskLevel = RiskLevelFor(set.HealthScore)
	return set
}

// =============================================================================
// HEALTH SCORE
// =============================================================================

// Healthy thresholds. A ratio at or beyond its threshold earns its full weight.
const (
	HealthyCurrentRatio = 1.5
	HealthyAcidTest     = 1.0
	HealthyNetMargin    = 0.10
	HealthyROE          = 0.15
	HealthyROA          = 0.05
	HealthyDebtRatio    = 0.5 // upper bound
)

// Component weights; they sum to 100.
const (
	weightCurrentRatio = 20.0
	weightAcidTest     = 15.0
	weightNetMargin    = 20.0
	weightROE          = 15.0
	weightROA          = 10.0
	weightDebtRatio    = 20.0
)

// HealthScore scores each ratio against its healthy threshold and sums the
// weighted components, clamped to [0, 100]. Debt ratio scores full up to 0.5
// and falls linearly to zero at 1.0; a balance with no assets earns nothing
// for it.
func HealthScore(set IndicatorSet) float64 {
	score := weightCurrentRatio*ratioScore(set.Liquidity.CurrentRatio, HealthyCurrentRatio) +
		weightAcidTest*ratioScore(set.Liquidity.AcidTest, HealthyAcidTest) +
		weightNetMargin*ratioScore(set.Profitability.NetMargin, HealthyNetMargin) +
		weightROA*ratioScore(set.Profitability.ROA, HealthyROA)

	// Losses over negative equity produce a positive ROE; it earns nothing.
	if set.Balance.Equity > 0 {
		score += weightROE * ratioScore(set.Profitability.ROE, HealthyROE)
	}

	if set.Balance.TotalAssets > 0 {
		debt := set.Leverage.DebtRatio
		if debt <= HealthyDebtRatio {
			score += weightDebtRatio
		} else {
			score += weightDebtRatio * calc.Clamp((1-debt)/(1-HealthyDebtRatio), 0, 1)
		}
	}

	return calc.Clamp(calc.RoundTo(score, 2), 0, 100)
}

func ratioScore(value, healthy float64) float64 {
	return calc.Clamp(calc.SafeDiv(value, healthy), 0, 1)
}

// RiskLevel buckets a health score.
type RiskLevel string

const (
	RiskBajo    RiskLevel = "bajo"
	RiskMedio   RiskLevel = "medio"
	RiskAlto    RiskLevel = "alto"
	RiskCritico RiskLevel = "critico"
)

// RiskLevelFor maps score >= 75 to bajo, >= 50 to medio, >= 25 to alto and
// anything lower to critico.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 75:
		return RiskBajo
	case score >= 50:
		return RiskMedio
	case score >= 25:
		return RiskAlto
	default:
		return RiskCritico
	}
}
