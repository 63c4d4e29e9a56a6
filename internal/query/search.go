package query

import (
	"strings"

	"realestate-backend/internal/models"
)

const (
	descriptionBoost = 2
	titleBoost       = 3
)

// SearchParams are independently optional filters; nil means "not given".
type SearchParams struct {
	Locality      *string
	Keywords      *string
	TitleKeywords *string

	PropertyType     *models.PropertyType
	ListingType      *models.ListingType
	FurnishingStatus *models.FurnishingStatus
	FacingDirection  *string

	Bhk         *int
	TotalFloors *int

	MinSqft  *float64
	MaxSqft  *float64
	MinPrice *float64
	MaxPrice *float64

	LiftAvailable *bool

	Size int
}

// BuildSearch translates params into a bool query against the index of kind.
// Supply fields hold point values and are filtered directly. Demand fields
// hold ranges, so a requested interval matches a demand whose own interval
// intersects it.
func BuildSearch(kind models.Kind, p SearchParams) Request {
	var b Bool

	if s := text(p.Locality); s != "" {
		b.Must = append(b.Must, Match{Field: "locality", Text: s, Fuzziness: "AUTO"})
	}
	if s := text(p.Keywords); s != "" {
		b.Should = append(b.Should, Match{Field: "description", Text: s, Boost: descriptionBoost})
	}
	if s := text(p.TitleKeywords); s != "" {
		b.Should = append(b.Should, Match{Field: "title", Text: s, Boost: titleBoost})
	}
	if len(b.Should) > 0 {
		// Keywords rank results; they never drop them.
		none := 0
		b.MinimumShouldMatch = &none
	}

	if p.PropertyType != nil {
		b.Filter = append(b.Filter, Term{Field: "property_type", Value: string(*p.PropertyType)})
	}
	if p.ListingType != nil {
		b.Filter = append(b.Filter, Term{Field: "listing_type", Value: string(*p.ListingType)})
	}
	if p.FurnishingStatus != nil {
		b.Filter = append(b.Filter, Term{Field: "furnishing_status", Value: string(*p.FurnishingStatus)})
	}
	if s := text(p.FacingDirection); s != "" {
		b.Filter = append(b.Filter, Term{Field: "facing_direction", Value: s})
	}
	if p.LiftAvailable != nil {
		b.Filter = append(b.Filter, Term{Field: "lift_available", Value: *p.LiftAvailable})
	}

	if kind == models.KindDemand {
		b.Filter = append(b.Filter, demandFilters(p)...)
	} else {
		b.Filter = append(b.Filter, supplyFilters(p)...)
	}
	return Request{Query: b, Size: p.Size}
}

func supplyFilters(p SearchParams) []Clause {
	var out []Clause
	if p.Bhk != nil {
		out = append(out, Term{Field: "bhk", Value: *p.Bhk})
	}
	if p.TotalFloors != nil {
		out = append(out, Term{Field: "total_floors", Value: *p.TotalFloors})
	}
	if r, ok := rangeOf("area_sqft", p.MinSqft, p.MaxSqft); ok {
		out = append(out, r)
	}
	if r, ok := rangeOf("price", p.MinPrice, p.MaxPrice); ok {
		out = append(out, r)
	}
	return out
}

// demandFilters has no total_floors: demands do not carry it.
func demandFilters(p SearchParams) []Clause {
	var out []Clause
	if p.Bhk != nil {
		out = append(out, contains("bhk_min", "bhk_max", float64(*p.Bhk))...)
	}
	out = append(out, overlaps("area_sqft_min", "area_sqft_max", p.MinSqft, p.MaxSqft)...)
	out = append(out, overlaps("price_min", "price_max", p.MinPrice, p.MaxPrice)...)
	return out
}

// rangeOf emits a one- or two-sided range, or nothing when both bounds are nil.
func rangeOf(field string, min, max *float64) (Range, bool) {
	if min == nil && max == nil {
		return Range{}, false
	}
	return Range{Field: field, Gte: min, Lte: max}, true
}

// contains matches documents whose [minField, maxField] interval holds v.
func contains(minField, maxField string, v float64) []Clause {
	return []Clause{
		Range{Field: minField, Lte: f64(v)},
		Range{Field: maxField, Gte: f64(v)},
	}
}

// overlaps matches documents whose [minField, maxField] interval intersects
// the requested one. Each requested bound constrains the opposite end.
func overlaps(minField, maxField string, min, max *float64) []Clause {
	var out []Clause
	if min != nil {
		out = append(out, Range{Field: maxField, Gte: min})
	}
	if max != nil {
		out = append(out, Range{Field: minField, Lte: max})
	}
	return out
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
