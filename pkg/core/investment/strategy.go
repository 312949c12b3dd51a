package investment

import (
	"fmt"
	"sort"
)

// =============================================================================
// ALLOCATION STRATEGY INTERFACE
// =============================================================================

// AllocationStrategy turns a candidate list into relative weights. Weights
// need not sum to anything; the portfolio builder normalizes them.
type AllocationStrategy interface {
	// Name returns the strategy identifier used in requests
	Name() string

	// Weights returns one non-negative weight per product, in order
	Weights(products []Product) []float64
}

// =============================================================================
// BUILT-IN STRATEGIES
// =============================================================================

// EqualStrategy gives every product the same share.
type EqualStrategy struct{}

func (EqualStrategy) Name() string { return "equal" }

func (EqualStrategy) Weights(products []Product) []float64 {
	out := make([]float64, len(products))
	for i := range out {
		out[i] = 1
	}
	return out
}

// ReturnOptimizedStrategy weights each product by its 12-month return.
type ReturnOptimizedStrategy struct{}

func (ReturnOptimizedStrategy) Name() string { return "return-optimized" }

func (ReturnOptimizedStrategy) Weights(products []Product) []float64 {
	out := make([]float64, len(products))
	for i, p := range products {
		out[i] = nonNegative(p.Returns.TwelveMonths)
	}
	return out
}

// RiskWeightedStrategy divides the 12-month return by the product's risk
// weight {conservative: 3, moderate: 2, aggressive: 1}.
type RiskWeightedStrategy struct{}

func (RiskWeightedStrategy) Name() string { return "risk-weighted" }

func (RiskWeightedStrategy) Weights(products []Product) []float64 {
	out := make([]float64, len(products))
	for i, p := range products {
		rw := p.RiskLevel.RiskWeight()
		if rw == 0 {
			continue
		}
		out[i] = nonNegative(p.Returns.TwelveMonths) / rw
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// =============================================================================
// REGISTRY
// =============================================================================

var strategies = map[string]AllocationStrategy{
	EqualStrategy{}.Name():           EqualStrategy{},
	ReturnOptimizedStrategy{}.Name(): ReturnOptimizedStrategy{},
	RiskWeightedStrategy{}.Name():    RiskWeightedStrategy{},
}

// StrategyByName looks up a built-in strategy.
func StrategyByName(name string) (AllocationStrategy, error) {
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// StrategyNames lists the built-in strategies, sorted.
func StrategyNames() []string {
	out := make([]string, 0, len(strategies))
	for name := range strategies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
