package report

import (
	"math"

	"github.com/dropship-tools/go-product-verify/models"
)

// CostOptions parameterizes the cost model. EstimatedPassRate is a
// caller-supplied fraction in [0,1] of candidates expected to survive the
// cheap pass; it is a guess, not measured from prior jobs.
type CostOptions struct {
	CheapCostPerItem  float64
	DeepCostPerItem   float64
	EstimatedPassRate float64
}

// DefaultCostOptions reflects the pricing of the reference services: one
// credit for a bulk lookup, five for a deep enrichment.
func DefaultCostOptions() CostOptions {
	return CostOptions{
		CheapCostPerItem:  1,
		DeepCostPerItem:   5,
		EstimatedPassRate: 0.25,
	}
}

// EstimateCost models two enrichment strategies without running either:
// cheap-bulk-then-expensive-narrow versus deep enrichment for everyone.
// The result is advisory only and never gates execution.
func EstimateCost(productCount int, opts CostOptions) models.CostEstimate {
	if productCount < 0 {
		productCount = 0
	}
	passRate := opts.EstimatedPassRate
	if passRate < 0 {
		passRate = 0
	}
	if passRate > 1 {
		passRate = 1
	}

	n := float64(productCount)
	survivors := math.Round(n * passRate)

	phased := n*opts.CheapCostPerItem + survivors*opts.DeepCostPerItem
	naive := n * opts.DeepCostPerItem

	est := models.CostEstimate{
		Products:   productCount,
		PhasedCost: phased,
		NaiveCost:  naive,
		Savings:    naive - phased,
	}
	if naive > 0 {
		est.SavingsPercent = est.Savings / naive * 100
	}
	return est
}
