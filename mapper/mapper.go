// Package mapper infers which spreadsheet headers correspond to which
// semantic product fields. Inference is purely deterministic over the
// pattern tables below; no state, no I/O.
package mapper

import (
	"regexp"
	"strings"

	"github.com/dropship-tools/go-product-verify/models"
)

// Canonical field names, also used as suggestion targets.
const (
	FieldIdentifier = "identifier"
	FieldTitle      = "title"
	FieldPrice      = "price"
	FieldVendor     = "vendor"
	FieldCategory   = "category"
	FieldSKU        = "sku"
	FieldBarcode    = "barcode"
)

type slot struct {
	field    string
	patterns []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile("(?i)"+expr))
	}
	return out
}

// slots is evaluated in declaration order and a header is claimed by the
// first slot it matches. The identifier slot deliberately comes first so
// that a lone "SKU" column can serve as the catalog key when no ASIN-like
// header is present; a sheet carrying both binds ASIN to identifier and
// leaves SKU for the sku slot.
var slots = []slot{
	{FieldIdentifier, compile(`^asin$`, `amazon.*asin`, `product.*id`, `^sku$`, `source.*product.*id`)},
	{FieldTitle, compile(`^title$`, `product.*(name|title)`, `item.*(name|title)`, `^name$`)},
	{FieldPrice, compile(`^price$`, `unit.*price`, `(supplier|wholesale|buy).*price`, `price`, `^cost$`)},
	{FieldVendor, compile(`^vendor$`, `supplier`, `manufacturer`, `brand`)},
	{FieldCategory, compile(`categor`, `product.*type`, `department`)},
	{FieldSKU, compile(`^sku$`, `sku`, `item.*(number|code)`)},
	{FieldBarcode, compile(`barcode`, `^upc$`, `^ean$`, `^gtin$`)},
}

// Infer returns the column mapping for an ordered list of headers.
// Each slot binds to at most one header and no header is bound twice.
func Infer(headers []string) models.ColumnMapping {
	bound := inferBindings(headers)

	return models.ColumnMapping{
		Identifier: bound[FieldIdentifier],
		Title:      bound[FieldTitle],
		Price:      bound[FieldPrice],
		Vendor:     bound[FieldVendor],
		Category:   bound[FieldCategory],
		SKU:        bound[FieldSKU],
		Barcode:    bound[FieldBarcode],
	}
}

// Confidence tiers for reviewer-facing suggestions.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// Suggestion proposes one header-to-field binding for human review.
// Suggestions are UI hinting only and never affect parsing.
type Suggestion struct {
	Header     string `json:"header"`
	Field      string `json:"field"`
	Confidence string `json:"confidence"`
}

// Suggest returns one suggestion per bound slot, in slot order. Confidence
// is high when the header is an exact case-insensitive match for the
// canonical field name, medium otherwise.
func Suggest(headers []string) []Suggestion {
	bound := inferBindings(headers)

	var out []Suggestion
	for _, s := range slots {
		header, ok := bound[s.field]
		if !ok {
			continue
		}
		confidence := ConfidenceMedium
		if strings.EqualFold(strings.TrimSpace(header), s.field) {
			confidence = ConfidenceHigh
		}
		out = append(out, Suggestion{Header: header, Field: s.field, Confidence: confidence})
	}
	return out
}

// inferBindings matches pattern-major within each slot: every pattern is
// tried against all unclaimed headers in input order before the next,
// weaker pattern gets a turn. A sheet carrying both "SKU" and "ASIN"
// therefore binds ASIN to the identifier slot regardless of column order.
func inferBindings(headers []string) map[string]string {
	bound := make(map[string]string, len(slots))
	claimed := make(map[int]bool, len(headers))

	for _, s := range slots {
	patterns:
		for _, p := range s.patterns {
			for i, header := range headers {
				if claimed[i] {
					continue
				}
				header = strings.TrimSpace(header)
				if header == "" {
					continue
				}
				if p.MatchString(header) {
					bound[s.field] = headers[i]
					claimed[i] = true
					break patterns
				}
			}
		}
	}
	return bound
}
