// Package rules evaluates product candidates against a configured rule set.
//
// Each criterion is evaluated to one of three outcomes (satisfied, violated,
// missing data) and a single reducer folds the outcomes into fail and
// warning reasons. The asymmetry the business wants — below-threshold data
// fails hard, absent data only warns — lives in the per-criterion severity
// flags, not in ad hoc branching.
package rules

import (
	"fmt"
	"strings"

	"github.com/dropship-tools/go-product-verify/models"
)

// RuleSet is the externally configured, immutable verification rule set.
type RuleSet struct {
	MinPrice           float64
	MaxPrice           float64
	MinReviews         int
	MinRating          float64
	RequireFulfillment bool
	MaxSalesRank       int // 0 disables the popularity ceiling
	ExcludedBrands     []string
	MarkupMultiplier   float64
}

// Validate ensures the rule set is coherent.
func (rs RuleSet) Validate() error {
	if rs.MinPrice < 0 {
		return fmt.Errorf("min price cannot be negative")
	}
	if rs.MaxPrice > 0 && rs.MaxPrice < rs.MinPrice {
		return fmt.Errorf("max price (%.2f) cannot be below min price (%.2f)", rs.MaxPrice, rs.MinPrice)
	}
	if rs.MinReviews < 0 {
		return fmt.Errorf("min reviews cannot be negative")
	}
	if rs.MinRating < 0 || rs.MinRating > 5 {
		return fmt.Errorf("min rating must be between 0 and 5")
	}
	if rs.MaxSalesRank < 0 {
		return fmt.Errorf("max sales rank cannot be negative")
	}
	if rs.MarkupMultiplier <= 0 {
		return fmt.Errorf("markup multiplier must be positive")
	}
	return nil
}

type outcome int

const (
	satisfied outcome = iota
	violated
	missing
)

// criterion carries one evaluated check plus its severity policy.
type criterion struct {
	outcome    outcome
	hardOnMiss bool   // missing data fails hard (price only)
	softOnFail bool   // violation only warns (popularity only)
	failMsg    string // appended when violated
	missMsg    string // appended when data is missing
}

// Verify classifies one candidate against the rule set. Enrichment may be
// nil; its absence is treated as missing data, never as a failure by
// itself. Known holds identifiers already present in the catalog.
func Verify(candidate models.ParsedProduct, enrichment *models.EnrichmentRecord, known map[string]struct{}, rs RuleSet) models.VerifiedProduct {
	effectivePrice := candidate.Price
	if enrichment != nil && enrichment.Price != nil {
		effectivePrice = enrichment.Price
	}

	price := checkPrice(effectivePrice, rs)
	reviews := checkReviews(enrichment, rs)
	rating := checkRating(enrichment, rs)
	fulfillment := checkFulfillment(enrichment, rs)
	popularity := checkPopularity(enrichment, rs)
	brand := checkBrand(candidate.Title, rs)

	failReasons, warnReasons := fold(price, reviews, rating, fulfillment, popularity, brand)

	_, alreadyKnown := known[candidate.ASIN]
	if alreadyKnown {
		warnReasons = append(warnReasons, "already in catalog")
	}

	vp := models.VerifiedProduct{
		Product: candidate,
		Result: models.VerificationResult{
			PriceInRange:         price.outcome == satisfied,
			ReviewsSufficient:    reviews.outcome != violated,
			RatingSufficient:     rating.outcome != violated,
			FulfillmentEligible:  fulfillment.outcome != violated,
			PopularityAcceptable: popularity.outcome == satisfied,
			BrandAllowed:         brand.outcome != violated,
		},
		Status:           deriveStatus(failReasons, warnReasons),
		FailReasons:      failReasons,
		WarningReasons:   warnReasons,
		Enrichment:       enrichment,
		AlreadyInCatalog: alreadyKnown,
	}

	// Derived pricing needs a positive cost basis; a zero price would yield
	// a zero retail and an undefined margin, so both fields stay unset.
	if effectivePrice != nil && *effectivePrice > 0 {
		retail := *effectivePrice * rs.MarkupMultiplier
		margin := (retail - *effectivePrice) / retail * 100
		vp.SuggestedRetail = &retail
		vp.ProfitMargin = &margin
	}

	return vp
}

// fold reduces evaluated criteria into ordered reason lists. Criteria must
// be passed in evaluation order; reason ordering is part of the contract.
func fold(criteria ...criterion) (failReasons, warnReasons []string) {
	for _, c := range criteria {
		switch c.outcome {
		case violated:
			if c.softOnFail {
				warnReasons = append(warnReasons, c.failMsg)
			} else {
				failReasons = append(failReasons, c.failMsg)
			}
		case missing:
			if c.hardOnMiss {
				failReasons = append(failReasons, c.missMsg)
			} else if c.missMsg != "" {
				warnReasons = append(warnReasons, c.missMsg)
			}
		}
	}
	return failReasons, warnReasons
}

func deriveStatus(failReasons, warnReasons []string) models.Status {
	switch {
	case len(failReasons) > 0:
		return models.StatusFail
	case len(warnReasons) > 0:
		return models.StatusWarning
	default:
		return models.StatusPass
	}
}

func checkPrice(price *float64, rs RuleSet) criterion {
	c := criterion{
		hardOnMiss: true,
		missMsg:    "no price available from sheet or market data",
	}
	switch {
	case price == nil:
		c.outcome = missing
	case *price < rs.MinPrice:
		c.outcome = violated
		c.failMsg = fmt.Sprintf("price %.2f below minimum %.2f", *price, rs.MinPrice)
	case rs.MaxPrice > 0 && *price > rs.MaxPrice:
		c.outcome = violated
		c.failMsg = fmt.Sprintf("price %.2f above maximum %.2f", *price, rs.MaxPrice)
	default:
		c.outcome = satisfied
	}
	return c
}

func checkReviews(enrichment *models.EnrichmentRecord, rs RuleSet) criterion {
	if rs.MinReviews <= 0 {
		return criterion{outcome: satisfied}
	}
	if enrichment == nil || enrichment.ReviewCount == nil {
		return criterion{outcome: missing, missMsg: "no review data available"}
	}
	if *enrichment.ReviewCount < rs.MinReviews {
		return criterion{
			outcome: violated,
			failMsg: fmt.Sprintf("review count %d below minimum %d", *enrichment.ReviewCount, rs.MinReviews),
		}
	}
	return criterion{outcome: satisfied}
}

func checkRating(enrichment *models.EnrichmentRecord, rs RuleSet) criterion {
	if rs.MinRating <= 0 {
		return criterion{outcome: satisfied}
	}
	if enrichment == nil || enrichment.Rating == nil {
		return criterion{outcome: missing, missMsg: "no rating data available"}
	}
	if *enrichment.Rating < rs.MinRating {
		return criterion{
			outcome: violated,
			failMsg: fmt.Sprintf("rating %.1f below minimum %.1f", *enrichment.Rating, rs.MinRating),
		}
	}
	return criterion{outcome: satisfied}
}

// checkFulfillment has no warning path: fulfillment data defaults to false,
// which fails deterministically when required.
func checkFulfillment(enrichment *models.EnrichmentRecord, rs RuleSet) criterion {
	if !rs.RequireFulfillment {
		return criterion{outcome: satisfied}
	}
	if enrichment == nil || !enrichment.PremiumFulfilled {
		return criterion{outcome: violated, failMsg: "not eligible for premium fulfillment"}
	}
	return criterion{outcome: satisfied}
}

// checkPopularity treats a rank past the ceiling as a soft demand signal,
// never a disqualifier. A missing rank is acceptable.
func checkPopularity(enrichment *models.EnrichmentRecord, rs RuleSet) criterion {
	if rs.MaxSalesRank <= 0 || enrichment == nil || enrichment.SalesRank == nil {
		return criterion{outcome: satisfied}
	}
	if *enrichment.SalesRank > rs.MaxSalesRank {
		return criterion{
			outcome:    violated,
			softOnFail: true,
			failMsg:    fmt.Sprintf("sales rank %d above ceiling %d", *enrichment.SalesRank, rs.MaxSalesRank),
		}
	}
	return criterion{outcome: satisfied}
}

func checkBrand(title string, rs RuleSet) criterion {
	if title == "" {
		return criterion{outcome: satisfied}
	}
	lowered := strings.ToLower(title)
	for _, brand := range rs.ExcludedBrands {
		brand = strings.TrimSpace(brand)
		if brand == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(brand)) {
			return criterion{
				outcome: violated,
				failMsg: fmt.Sprintf("title matches excluded brand %q", brand),
			}
		}
	}
	return criterion{outcome: satisfied}
}
