package query

import (
	"strings"

	"realestate-backend/internal/models"
)

// CrossMatch builds the query run against the opposite kind's index right
// after rec is written.
//
// A supply carries point values, so a compatible demand must bracket them:
// price_min <= price and price_max >= price. A demand carries ranges, so a
// compatible supply must fall inside them: price >= price_min and
// price <= price_max, each emitted only when that bound is set. Bedrooms
// follow the same rule. Locality is a fuzzy must clause; property and
// listing type are exact filters.
func CrossMatch(rec models.Record, size int) Request {
	var b Bool
	base := rec.Base()

	if loc := strings.TrimSpace(base.Locality); loc != "" {
		b.Must = append(b.Must, Match{Field: "locality", Text: loc, Fuzziness: "AUTO"})
	}
	if base.PropertyType != "" {
		b.Filter = append(b.Filter, Term{Field: "property_type", Value: string(base.PropertyType)})
	}
	if base.ListingType != "" {
		b.Filter = append(b.Filter, Term{Field: "listing_type", Value: string(base.ListingType)})
	}

	switch r := rec.(type) {
	case *models.SupplyRecord:
		b.Filter = append(b.Filter, contains("price_min", "price_max", r.Price)...)
		if r.Bhk != nil {
			b.Filter = append(b.Filter, contains("bhk_min", "bhk_max", float64(*r.Bhk))...)
		}
	case *models.DemandRecord:
		b.Filter = append(b.Filter, within("price", r.PriceMin, r.PriceMax)...)
		b.Filter = append(b.Filter, within("bhk", intToFloat(r.BhkMin), intToFloat(r.BhkMax))...)
	}
	return Request{Query: b, Size: size}
}

// within emits one one-sided range per bound present.
func within(field string, min, max *float64) []Clause {
	var out []Clause
	if min != nil {
		out = append(out, Range{Field: field, Gte: min})
	}
	if max != nil {
		out = append(out, Range{Field: field, Lte: max})
	}
	return out
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	return f64(float64(*v))
}
