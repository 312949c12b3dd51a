// Package investment projects simple-interest returns for reference products
// and splits an amount across several products under a diversification
// strategy.
package investment

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownRiskLevel = errors.New("unknown risk level")
	ErrUnknownStrategy  = errors.New("unknown allocation strategy")
	ErrInvalidCatalog   = errors.New("invalid product catalog")
)

// RiskLevel is both a product attribute and an investor profile.
type RiskLevel string

const (
	RiskConservative RiskLevel = "conservative"
	RiskModerate     RiskLevel = "moderate"
	RiskAggressive   RiskLevel = "aggressive"
)

// ParseRiskLevel validates a raw risk level.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch r := RiskLevel(s); r {
	case RiskConservative, RiskModerate, RiskAggressive:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRiskLevel, s)
}

// RiskWeight divides expected return in the risk-weighted strategy.
func (r RiskLevel) RiskWeight() float64 {
	switch r {
	case RiskConservative:
		return 3
	case RiskModerate:
		return 2
	case RiskAggressive:
		return 1
	}
	return 0
}

// Adjacent returns the neighbouring tiers used to top up thin candidate lists.
func (r RiskLevel) Adjacent() []RiskLevel {
	switch r {
	case RiskConservative:
		return []RiskLevel{RiskModerate}
	case RiskModerate:
		return []RiskLevel{RiskConservative, RiskAggressive}
	case RiskAggressive:
		return []RiskLevel{RiskModerate}
	}
	return nil
}

// Returns holds published annual rates (percent) for each horizon.
type Returns struct {
	ThreeMonths  float64 `json:"three_months"`
	SixMonths    float64 `json:"six_months"`
	TwelveMonths float64 `json:"twelve_months"`
}

// Product is read-only reference data.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Provider      string    `json:"provider"`
	RiskLevel     RiskLevel `json:"risk_level"`
	Returns       Returns   `json:"returns"`
	Liquidity     string    `json:"liquidity"`
	MinimumAmount float64   `json:"minimum_amount"`
}

// AnnualRateForHorizon picks the published rate for a horizon in months:
// up to 3 uses the 3-month rate, up to 6 the 6-month rate, anything longer the
// 12-month rate.
func (p Product) AnnualRateForHorizon(months int) float64 {
	switch {
	case months <= 0:
		return 0
	case months <= 3:
		return p.Returns.ThreeMonths
	case months <= 6:
		return p.Returns.SixMonths
	default:
		return p.Returns.TwelveMonths
	}
}
