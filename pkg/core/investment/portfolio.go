package investment

import (
	"sort"

	"github.com/shopspring/decimal"

	"ledger_analytics/pkg/core/calc"
)

// MinCandidates is the candidate count below which adjacent risk tiers are
// drawn in.
const MinCandidates = 5

// Allocation is one product's share of a portfolio.
type Allocation struct {
	ProductID            string    `json:"product_id"`
	ProductName          string    `json:"product_name"`
	RiskLevel            RiskLevel `json:"risk_level"`
	Percentage           float64   `json:"percentage"`
	Amount               float64   `json:"amount"`
	ExpectedAnnualReturn float64   `json:"expected_annual_return"`
	ProjectedEarnings12m float64   `json:"projected_earnings_12m"`
}

// Portfolio is a diversified split of InvestedAmount.
type Portfolio struct {
	Strategy             string       `json:"strategy"`
	RiskProfile          RiskLevel    `json:"risk_profile"`
	InvestedAmount       float64      `json:"invested_amount"`
	Allocations          []Allocation `json:"allocations"`
	ExpectedAnnualReturn float64      `json:"expected_annual_return"`
	ProjectedEarnings12m float64      `json:"projected_earnings_12m"`
}

// SelectCandidates returns the products matching profile, best 12-month return
// first. When fewer than MinCandidates match, the best products of the
// adjacent tiers fill the list up to MinCandidates.
func SelectCandidates(catalog *Catalog, profile RiskLevel) ([]Product, error) {
	if _, err := ParseRiskLevel(string(profile)); err != nil {
		return nil, err
	}

	var matches, adjacent []Product
	neighbours := make(map[RiskLevel]bool)
	for _, r := range profile.Adjacent() {
		neighbours[r] = true
	}
	for _, p := range catalog.Products() {
		switch {
		case p.RiskLevel == profile:
			matches = append(matches, p)
		case neighbours[p.RiskLevel]:
			adjacent = append(adjacent, p)
		}
	}
	sortByTwelveMonth(matches)

	if len(matches) < MinCandidates {
		sortByTwelveMonth(adjacent)
		need := MinCandidates - len(matches)
		if need > len(adjacent) {
			need = len(adjacent)
		}
		matches = append(matches, adjacent[:need]...)
	}
	return matches, nil
}

func sortByTwelveMonth(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Returns.TwelveMonths != products[j].Returns.TwelveMonths {
			return products[i].Returns.TwelveMonths > products[j].Returns.TwelveMonths
		}
		return products[i].ID < products[j].ID
	})
}

// BuildPortfolio splits amount across the candidates for profile using the
// named strategy. Percentages sum to 100 and amounts, rounded to cents, sum
// exactly to the invested amount. Rounding residue is spread one unit at a
// time by largest remainder, so no allocation goes negative. A non-positive
// amount or an empty candidate list yields an empty portfolio.
func BuildPortfolio(amount float64, profile RiskLevel, strategyName string, catalog *Catalog) (Portfolio, error) {
	strategy, err := StrategyByName(strategyName)
	if err != nil {
		return Portfolio{}, err
	}
	candidates, err := SelectCandidates(catalog, profile)
	if err != nil {
		return Portfolio{}, err
	}

	out := Portfolio{
		Strategy:       strategy.Name(),
		RiskProfile:    profile,
		InvestedAmount: calc.RoundMoney(amount),
		Allocations:    []Allocation{},
	}
	if amount <= 0 || len(candidates) == 0 {
		return out, nil
	}

	weights := strategy.Weights(candidates)
	total := sum(weights)
	if total <= 0 {
		weights = EqualStrategy{}.Weights(candidates)
		total = sum(weights)
	}

	invested := decimal.NewFromFloat(amount).Round(2)
	cents := apportion(invested.Shift(2).IntPart(), weights, total)
	basisPoints := apportion(100_00, weights, total)
	amounts := make([]decimal.Decimal, len(candidates))
	percents := make([]float64, len(candidates))
	for i := range candidates {
		amounts[i] = decimal.New(cents[i], -2)
		percents[i] = decimal.New(basisPoints[i], -2).InexactFloat64()
	}

	var weightedReturn float64
	var earnings decimal.Decimal
	for i, p := range candidates {
		amt := amounts[i].InexactFloat64()
		projected := ProjectReturn(amt, p, 12)
		out.Allocations = append(out.Allocations, Allocation{
			ProductID:            p.ID,
			ProductName:          p.Name,
			RiskLevel:            p.RiskLevel,
			Percentage:           percents[i],
			Amount:               amt,
			ExpectedAnnualReturn: p.Returns.TwelveMonths,
			ProjectedEarnings12m: calc.RoundMoney(projected.Earnings),
		})
		weightedReturn += percents[i] / 100 * p.Returns.TwelveMonths
		earnings = earnings.Add(decimal.NewFromFloat(projected.Earnings))
	}

	out.InvestedAmount = invested.InexactFloat64()
	out.ExpectedAnnualReturn = calc.RoundTo(weightedReturn, 4)
	out.ProjectedEarnings12m = earnings.Round(2).InexactFloat64()
	return out, nil
}

// apportion splits units whole units across weights by the largest-remainder
// method: every share is floored, then the leftover units go one each to the
// largest fractional parts, lowest index first on ties. Weights must be
// non-negative with a positive total.
func apportion(units int64, weights []float64, total float64) []int64 {
	shares := make([]int64, len(weights))
	remainders := make([]decimal.Decimal, len(weights))
	unitsDec := decimal.NewFromInt(units)
	totalDec := decimal.NewFromFloat(total)

	left := units
	for i, w := range weights {
		exact := unitsDec.Mul(decimal.NewFromFloat(w)).Div(totalDec)
		floor := exact.Floor()
		shares[i] = floor.IntPart()
		remainders[i] = exact.Sub(floor)
		left -= shares[i]
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})
	for k := 0; left > 0 && len(order) > 0; k++ {
		shares[order[k%len(order)]]++
		left--
	}
	return shares
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}
