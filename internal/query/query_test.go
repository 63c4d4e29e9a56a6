package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate-backend/internal/models"
)

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

// ranges indexes every Range in the filter list by field.
func ranges(t *testing.T, req Request) map[string][]Range {
	t.Helper()
	b, ok := req.Query.(Bool)
	require.True(t, ok, "query is %T", req.Query)
	out := map[string][]Range{}
	for _, c := range b.Filter {
		if r, ok := c.(Range); ok {
			out[r.Field] = append(out[r.Field], r)
		}
	}
	return out
}

func terms(t *testing.T, req Request) map[string]any {
	t.Helper()
	b := req.Query.(Bool)
	out := map[string]any{}
	for _, c := range b.Filter {
		if term, ok := c.(Term); ok {
			out[term.Field] = term.Value
		}
	}
	return out
}

func TestCrossMatchFromSupply(t *testing.T) {
	s := &models.SupplyRecord{
		BaseListing: models.BaseListing{
			ID: "S1", Locality: "Koramangala",
			PropertyType: models.PropertyFlat, ListingType: models.ListingRent,
		},
		Price: 45000,
		Bhk:   intPtr(2),
	}
	req := CrossMatch(s, 10)
	assert.Equal(t, 10, req.Size)

	b := req.Query.(Bool)
	require.Len(t, b.Must, 1)
	assert.Equal(t, Match{Field: "locality", Text: "Koramangala", Fuzziness: "AUTO"}, b.Must[0])

	r := ranges(t, req)
	require.Len(t, r["price_min"], 1)
	assert.Nil(t, r["price_min"][0].Gte)
	assert.Equal(t, 45000.0, *r["price_min"][0].Lte)
	require.Len(t, r["price_max"], 1)
	assert.Equal(t, 45000.0, *r["price_max"][0].Gte)
	assert.Nil(t, r["price_max"][0].Lte)
	assert.Equal(t, 2.0, *r["bhk_min"][0].Lte)
	assert.Equal(t, 2.0, *r["bhk_max"][0].Gte)

	assert.Equal(t, map[string]any{"property_type": "Flat", "listing_type": "Rent"}, terms(t, req))
}

func TestCrossMatchSupplyWithoutBhk(t *testing.T) {
	s := &models.SupplyRecord{BaseListing: models.BaseListing{Locality: "HSR"}, Price: 1}
	r := ranges(t, CrossMatch(s, 5))
	assert.NotContains(t, r, "bhk_min")
	assert.NotContains(t, r, "bhk_max")
}

func TestCrossMatchFromDemandOmitsAbsentBounds(t *testing.T) {
	min := 30000.0
	d := &models.DemandRecord{
		BaseListing: models.BaseListing{
			ID: "D1", Locality: "Koramangala",
			PropertyType: models.PropertyFlat, ListingType: models.ListingRent,
		},
		PriceMin: &min,
		BhkMin:   intPtr(2),
		BhkMax:   intPtr(3),
	}
	r := ranges(t, CrossMatch(d, 10))

	require.Len(t, r["price"], 1, "no upper price bound without price_max")
	assert.Equal(t, 30000.0, *r["price"][0].Gte)
	assert.Nil(t, r["price"][0].Lte)

	require.Len(t, r["bhk"], 2)
	assert.Equal(t, 2.0, *r["bhk"][0].Gte)
	assert.Equal(t, 3.0, *r["bhk"][1].Lte)
}

func TestCrossMatchDemandWithNoBounds(t *testing.T) {
	d := &models.DemandRecord{BaseListing: models.BaseListing{Locality: "Indiranagar"}}
	assert.Empty(t, ranges(t, CrossMatch(d, 10)))
}

func TestBuildSearchSupply(t *testing.T) {
	flat := models.PropertyFlat
	min, max := 20000.0, 50000.0
	req := BuildSearch(models.KindSupply, SearchParams{
		Locality:      strPtr("Koramangala"),
		Keywords:      strPtr("park view"),
		TitleKeywords: strPtr("spacious"),
		PropertyType:  &flat,
		Bhk:           intPtr(2),
		MinPrice:      &min,
		MaxPrice:      &max,
		Size:          10,
	})

	b := req.Query.(Bool)
	require.Len(t, b.Must, 1)
	assert.Equal(t, "AUTO", b.Must[0].(Match).Fuzziness)
	require.Len(t, b.Should, 2)
	assert.Equal(t, Match{Field: "description", Text: "park view", Boost: 2}, b.Should[0])
	assert.Equal(t, Match{Field: "title", Text: "spacious", Boost: 3}, b.Should[1])
	require.NotNil(t, b.MinimumShouldMatch)
	assert.Equal(t, 0, *b.MinimumShouldMatch)

	r := ranges(t, req)
	require.Len(t, r["price"], 1)
	assert.Equal(t, 20000.0, *r["price"][0].Gte)
	assert.Equal(t, 50000.0, *r["price"][0].Lte)
	assert.NotContains(t, r, "area_sqft")

	assert.Equal(t, map[string]any{"property_type": "Flat", "bhk": 2}, terms(t, req))
}

func TestBuildSearchRangeOmitsMissingBound(t *testing.T) {
	min := 500.0
	r := ranges(t, BuildSearch(models.KindSupply, SearchParams{MinSqft: &min}))
	require.Len(t, r["area_sqft"], 1)
	assert.Equal(t, 500.0, *r["area_sqft"][0].Gte)
	assert.Nil(t, r["area_sqft"][0].Lte)
}

func TestBuildSearchDemandUsesIntersection(t *testing.T) {
	min, max := 20000.0, 50000.0
	req := BuildSearch(models.KindDemand, SearchParams{
		Bhk:         intPtr(2),
		TotalFloors: intPtr(4),
		MinPrice:    &min,
		MaxPrice:    &max,
	})
	r := ranges(t, req)
	assert.Equal(t, 20000.0, *r["price_max"][0].Gte)
	assert.Equal(t, 50000.0, *r["price_min"][0].Lte)
	assert.Equal(t, 2.0, *r["bhk_min"][0].Lte)
	assert.Equal(t, 2.0, *r["bhk_max"][0].Gte)
	assert.NotContains(t, terms(t, req), "total_floors")
}

func TestBuildSearchEmptyParams(t *testing.T) {
	b := BuildSearch(models.KindSupply, SearchParams{Locality: strPtr("  ")}).Query.(Bool)
	assert.Empty(t, b.Must)
	assert.Empty(t, b.Should)
	assert.Empty(t, b.Filter)
	assert.Nil(t, b.MinimumShouldMatch)
}

func TestKeywordsOnlyQueryKeepsNonMatching(t *testing.T) {
	req := BuildSearch(models.KindSupply, SearchParams{Keywords: strPtr("metro")})
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"size": 0,
		"query": {"bool": {
			"must":   [],
			"should": [{"match": {"description": {"query": "metro", "boost": 2}}}],
			"filter": [],
			"minimum_should_match": 0
		}}
	}`, string(raw))
}

func TestRequestJSON(t *testing.T) {
	flat := models.PropertyFlat
	min := 100.0
	req := BuildSearch(models.KindSupply, SearchParams{
		Locality:     strPtr("HSR Layout"),
		PropertyType: &flat,
		MinPrice:     &min,
		Size:         3,
	})
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"size": 3,
		"query": {"bool": {
			"must":   [{"match": {"locality": {"query": "HSR Layout", "fuzziness": "AUTO"}}}],
			"should": [],
			"filter": [
				{"term": {"property_type": "Flat"}},
				{"range": {"price": {"gte": 100}}}
			]
		}}
	}`, string(raw))

	raw, err = json.Marshal(Request{Size: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"query": {"match_all": {}}, "size": 1}`, string(raw))
}
