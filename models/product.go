// Package models defines data structures shared by the verification pipeline.
package models

// Row is one spreadsheet row keyed by header name. Cell values arrive as
// whatever the file-parsing collaborator produced, so they are not assumed
// to be strings.
type Row map[string]any

// ColumnMapping binds each semantic field to a source header name.
// An empty string means the slot is unbound.
type ColumnMapping struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Price      string `json:"price"`
	Vendor     string `json:"vendor"`
	Category   string `json:"category"`
	SKU        string `json:"sku"`
	Barcode    string `json:"barcode"`
}

// ParsedProduct is the normalized form of one input row.
type ParsedProduct struct {
	RowIndex int      `json:"row"` // 1-based position in the input sheet
	ASIN     string   `json:"asin"`
	Title    string   `json:"title,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Vendor   string   `json:"vendor,omitempty"`
	Category string   `json:"category,omitempty"`
	SKU      string   `json:"sku,omitempty"`
	Barcode  string   `json:"barcode,omitempty"`
	Raw      Row      `json:"-"` // original row preserved for audit
}

// PriceStability classifies recent price movement for an identifier.
type PriceStability string

const (
	PriceStable   PriceStability = "stable"
	PriceVolatile PriceStability = "volatile"
	PriceUnknown  PriceStability = "unknown"
)

// EnrichmentRecord carries market data fetched for one identifier.
// A missing record means "no data", never a failure signal.
type EnrichmentRecord struct {
	ASIN             string         `json:"asin"`
	Price            *float64       `json:"price,omitempty"`
	Rating           *float64       `json:"rating,omitempty"`
	ReviewCount      *int           `json:"review_count,omitempty"`
	PremiumFulfilled bool           `json:"premium_fulfilled"`
	SalesRank        *int           `json:"sales_rank,omitempty"`
	AvgPrice30d      *float64       `json:"avg_price_30d,omitempty"`
	AvgPrice90d      *float64       `json:"avg_price_90d,omitempty"`
	Stability        PriceStability `json:"price_stability,omitempty"`
}

// Status is the overall classification of a verified candidate.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
	// StatusPending marks candidates a terminated job never reached.
	StatusPending Status = "pending"
	// StatusSkipped is reserved for callers that exclude rows before
	// verification and want those exclusions folded into the same summary.
	StatusSkipped Status = "skipped"
)

// VerificationResult records the six independent verification criteria.
// A criterion is true unless it was positively violated; the asymmetric
// missing-data handling lives in the reason lists, not here.
type VerificationResult struct {
	PriceInRange         bool `json:"price_in_range"`
	ReviewsSufficient    bool `json:"reviews_sufficient"`
	RatingSufficient     bool `json:"rating_sufficient"`
	FulfillmentEligible  bool `json:"fulfillment_eligible"`
	PopularityAcceptable bool `json:"popularity_acceptable"`
	BrandAllowed         bool `json:"brand_allowed"`
}

// VerifiedProduct is the canonical unit consumed by summary, export, and UI.
type VerifiedProduct struct {
	Product          ParsedProduct      `json:"product"`
	Result           VerificationResult `json:"result"`
	Status           Status             `json:"status"`
	FailReasons      []string           `json:"fail_reasons,omitempty"`
	WarningReasons   []string           `json:"warning_reasons,omitempty"`
	Enrichment       *EnrichmentRecord  `json:"enrichment,omitempty"`
	SuggestedRetail  *float64           `json:"suggested_retail,omitempty"`
	ProfitMargin     *float64           `json:"profit_margin,omitempty"`
	AlreadyInCatalog bool               `json:"already_in_catalog"`
}
