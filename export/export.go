// Package export serializes verification results to flat interchange
// formats. Field ordering is fixed and identical between CSV and JSON;
// one row or object per verified product, no summarization.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dropship-tools/go-product-verify/models"
)

// ReasonDelimiter joins fail and warning reason lists in exports.
const ReasonDelimiter = "; "

var csvHeader = []string{
	"row", "asin", "title", "price", "vendor", "category", "sku", "barcode",
	"status", "suggested_retail", "profit_margin",
	"market_price", "rating", "review_count", "sales_rank",
	"already_in_catalog", "fail_reasons", "warning_reasons",
}

// record is the flat export shape shared by both formats.
type record struct {
	Row              int      `json:"row"`
	ASIN             string   `json:"asin"`
	Title            string   `json:"title"`
	Price            *float64 `json:"price"`
	Vendor           string   `json:"vendor"`
	Category         string   `json:"category"`
	SKU              string   `json:"sku"`
	Barcode          string   `json:"barcode"`
	Status           string   `json:"status"`
	SuggestedRetail  *float64 `json:"suggested_retail"`
	ProfitMargin     *float64 `json:"profit_margin"`
	MarketPrice      *float64 `json:"market_price"`
	Rating           *float64 `json:"rating"`
	ReviewCount      *int     `json:"review_count"`
	SalesRank        *int     `json:"sales_rank"`
	AlreadyInCatalog bool     `json:"already_in_catalog"`
	FailReasons      string   `json:"fail_reasons"`
	WarningReasons   string   `json:"warning_reasons"`
}

func flatten(vp models.VerifiedProduct) record {
	r := record{
		Row:              vp.Product.RowIndex,
		ASIN:             vp.Product.ASIN,
		Title:            vp.Product.Title,
		Price:            vp.Product.Price,
		Vendor:           vp.Product.Vendor,
		Category:         vp.Product.Category,
		SKU:              vp.Product.SKU,
		Barcode:          vp.Product.Barcode,
		Status:           string(vp.Status),
		SuggestedRetail:  vp.SuggestedRetail,
		ProfitMargin:     vp.ProfitMargin,
		AlreadyInCatalog: vp.AlreadyInCatalog,
		FailReasons:      strings.Join(vp.FailReasons, ReasonDelimiter),
		WarningReasons:   strings.Join(vp.WarningReasons, ReasonDelimiter),
	}
	if vp.Enrichment != nil {
		r.MarketPrice = vp.Enrichment.Price
		r.Rating = vp.Enrichment.Rating
		r.ReviewCount = vp.Enrichment.ReviewCount
		r.SalesRank = vp.Enrichment.SalesRank
	}
	return r
}

// ToCSV renders results as a CSV document with a single header row.
// Embedded quotes are escaped by doubling, per encoding/csv.
func ToCSV(results []models.VerifiedProduct) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, vp := range results {
		r := flatten(vp)
		row := []string{
			strconv.Itoa(r.Row),
			r.ASIN,
			r.Title,
			fmtFloat(r.Price),
			r.Vendor,
			r.Category,
			r.SKU,
			r.Barcode,
			r.Status,
			fmtFloat(r.SuggestedRetail),
			fmtFloat(r.ProfitMargin),
			fmtFloat(r.MarketPrice),
			fmtFloat(r.Rating),
			fmtInt(r.ReviewCount),
			fmtInt(r.SalesRank),
			strconv.FormatBool(r.AlreadyInCatalog),
			r.FailReasons,
			r.WarningReasons,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// ToJSON renders results as a JSON array of flat objects.
func ToJSON(results []models.VerifiedProduct) (string, error) {
	records := make([]record, 0, len(results))
	for _, vp := range results {
		records = append(records, flatten(vp))
	}

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json records: %w", err)
	}
	return string(out), nil
}

func fmtFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func fmtInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
