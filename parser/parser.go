// Package parser turns raw spreadsheet rows into validated product candidates.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dropship-tools/go-product-verify/models"
)

// ErrNoIdentifierColumn is returned when the mapping has no identifier slot
// bound. This is a configuration error: parsing cannot proceed at all.
var ErrNoIdentifierColumn = errors.New("parser: no identifier column mapped")

// asinPattern is the catalog identifier grammar: one letter followed by
// nine alphanumerics, matched after trimming and uppercasing.
var asinPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{9}$`)

// Stats counts the outcome of one parse run. Skipped plus Parsed always
// equals the input row count.
type Stats struct {
	Parsed  int
	Skipped int
}

// Parse converts rows into ParsedProduct records using the given mapping.
// Rows with a missing, non-string, or malformed identifier are dropped
// silently and counted in Stats; they are not data-level failures. Row
// indices in the output are 1-based positions in the input slice so an
// operator can locate the offending spreadsheet row.
func Parse(rows []models.Row, mapping models.ColumnMapping) ([]models.ParsedProduct, Stats, error) {
	if mapping.Identifier == "" {
		return nil, Stats{}, ErrNoIdentifierColumn
	}

	products := make([]models.ParsedProduct, 0, len(rows))
	var stats Stats

	for i, row := range rows {
		asin, ok := NormalizeASIN(cellString(row, mapping.Identifier))
		if !ok {
			stats.Skipped++
			continue
		}

		p := models.ParsedProduct{
			RowIndex: i + 1,
			ASIN:     asin,
			Title:    cellString(row, mapping.Title),
			Vendor:   cellString(row, mapping.Vendor),
			Category: cellString(row, mapping.Category),
			SKU:      cellString(row, mapping.SKU),
			Barcode:  cellString(row, mapping.Barcode),
			Raw:      row,
		}
		if mapping.Price != "" {
			p.Price = priceFromCell(row[mapping.Price])
		}

		products = append(products, p)
		stats.Parsed++
	}

	return products, stats, nil
}

// NormalizeASIN validates a raw identifier cell against the catalog
// identifier grammar, returning the canonical uppercase form.
func NormalizeASIN(raw string) (string, bool) {
	asin := strings.ToUpper(strings.TrimSpace(raw))
	if !asinPattern.MatchString(asin) {
		return "", false
	}
	return asin, true
}

// ParsePrice strips currency symbols and thousands separators and attempts
// a decimal parse. It returns nil rather than an error on failure: an
// unparsable price degrades the row, it never rejects it.
func ParsePrice(raw string) *float64 {
	cleaned := strings.TrimSpace(raw)
	for _, sym := range []string{"$", "£", "€", "¥", ","} {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &value
}

func priceFromCell(cell any) *float64 {
	switch v := cell.(type) {
	case nil:
		return nil
	case string:
		return ParsePrice(v)
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	default:
		return ParsePrice(fmt.Sprint(v))
	}
}

// cellString reads a cell as a trimmed string. Missing cells and
// non-string values yield the empty string.
func cellString(row models.Row, header string) string {
	if header == "" {
		return ""
	}
	if v, ok := row[header].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
