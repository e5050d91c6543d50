// Package report computes read-only aggregates over verification results.
// Everything here is a pure function; summaries are recomputed on demand
// and never mutated.
package report

import (
	"fmt"
	"math"

	"github.com/dropship-tools/go-product-verify/models"
)

// Summarize aggregates a result set into counts, pass rate, and cost/time
// estimates. The token cost models the cheap enrichment service: one
// credit per candidate.
func Summarize(results []models.VerifiedProduct) models.VerificationSummary {
	s := models.VerificationSummary{Total: len(results)}

	for _, r := range results {
		switch r.Status {
		case models.StatusPass:
			s.Pass++
		case models.StatusWarning:
			s.Warning++
		case models.StatusFail:
			s.Fail++
		case models.StatusPending:
			s.Pending++
		case models.StatusSkipped:
			s.Skipped++
		}
		if r.AlreadyInCatalog {
			s.AlreadyKnown++
		}
	}

	if s.Total > 0 {
		s.PassRate = math.Round(float64(s.Pass) / float64(s.Total) * 100)
	}
	s.TokenCost = s.Total
	s.TimeEstimate = timeEstimate(s.Total)
	return s
}

// timeEstimate renders a human-readable duration: one minute per hundred
// candidates, switching to hour granularity past an hour.
func timeEstimate(total int) string {
	if total <= 0 {
		return "0 minutes"
	}

	minutes := (total + 99) / 100
	if minutes == 1 {
		return "~1 minute"
	}
	if minutes <= 60 {
		return fmt.Sprintf("~%d minutes", minutes)
	}

	hours := (minutes + 59) / 60
	if hours == 1 {
		return "~1 hour"
	}
	return fmt.Sprintf("~%d hours", hours)
}
