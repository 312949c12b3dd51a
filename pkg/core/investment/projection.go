package investment

import (
	"sort"

	"ledger_analytics/pkg/core/calc"
)

// Standard horizons reported for every product.
var Horizons = []int{3, 6, 12}

// Projection is a standalone simple-interest projection.
type Projection struct {
	ProductID     string  `json:"product_id"`
	Months        int     `json:"months"`
	Amount        float64 `json:"amount"`
	AnnualRate    float64 `json:"annual_rate"`
	Earnings      float64 `json:"earnings"`
	TotalAmount   float64 `json:"total_amount"`
	EffectiveRate float64 `json:"effective_rate"`
}

// ProjectReturn applies the horizon's own annual rate as simple interest:
// earnings = amount * rate/100/12 * months.
func ProjectReturn(amount float64, product Product, months int) Projection {
	p := Projection{ProductID: product.ID, Months: months, Amount: amount, TotalAmount: amount}
	if months <= 0 {
		return p
	}
	p.AnnualRate = product.AnnualRateForHorizon(months)
	monthlyRate := p.AnnualRate / 100 / 12
	p.Earnings = amount * monthlyRate * float64(months)
	p.TotalAmount = amount + p.Earnings
	p.EffectiveRate = calc.SafeDiv(p.Earnings, amount) * 100
	return p
}

// ProjectHorizons projects amount at 3, 6 and 12 months. Horizons are
// independent; nothing compounds across them.
func ProjectHorizons(amount float64, product Product) []Projection {
	out := make([]Projection, 0, len(Horizons))
	for _, m := range Horizons {
		out = append(out, ProjectReturn(amount, product, m))
	}
	return out
}

// RankForHorizon orders products by the rate they publish for a horizon,
// highest first, ID breaking ties.
func RankForHorizon(catalog *Catalog, months int) []Product {
	products := catalog.Products()
	sort.SliceStable(products, func(i, j int) bool {
		ri, rj := products[i].AnnualRateForHorizon(months), products[j].AnnualRateForHorizon(months)
		if ri != rj {
			return ri > rj
		}
		return products[i].ID < products[j].ID
	})
	return products
}
