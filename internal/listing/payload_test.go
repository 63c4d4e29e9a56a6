package listing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"realestate-backend/internal/models"
)

func TestPayloadNullMeansUnset(t *testing.T) {
	var p SupplyPayload
	require.NoError(t, json.Unmarshal([]byte(`{"title":null,"bhk":0,"liftAvailable":false,"city":""}`), &p))

	assert.Equal(t, map[string]any{"bhk": 0, "lift_available": false, "city": ""}, p.Fields())
}

func TestPayloadApplyAndBuild(t *testing.T) {
	var p DemandPayload
	require.NoError(t, json.Unmarshal([]byte(`{
		"id":"D1","propertyType":"flat","listingType":"RENT",
		"priceMin":1,"bhkMax":3,"moveInDate":"2026-05-01",
		"furnishingStatus":"semi-furnished","amenities":["gym","gym","pool"],
		"customerReferredBy":"broker"
	}`), &p))

	id, ok := p.SuppliedID()
	assert.True(t, ok)
	assert.Equal(t, "D1", id)

	rec := p.Build().(*models.DemandRecord)
	assert.Equal(t, "D1", rec.ID)
	assert.Equal(t, models.PropertyFlat, rec.PropertyType)
	assert.Equal(t, models.ListingRent, rec.ListingType)
	require.NotNil(t, rec.FurnishingStatus)
	assert.Equal(t, models.SemiFurnished, *rec.FurnishingStatus)
	assert.Equal(t, datatypes.JSONSlice[string]{"gym", "pool"}, rec.Amenities)
	assert.Equal(t, "broker", rec.CustomerReferredBy)
	assert.Nil(t, rec.PriceMax)

	assert.Equal(t, map[string]any{
		"property_type":        "Flat",
		"listing_type":         "Rent",
		"furnishing_status":    "SemiFurnished",
		"price_min":            1.0,
		"bhk_max":              3,
		"move_in_date":         "2026-05-01",
		"amenities":            datatypes.JSONSlice[string]{"gym", "pool"},
		"customer_referred_by": "broker",
	}, p.Fields(), "id is never a column update")
}

func TestPayloadRejectsUnknownEnum(t *testing.T) {
	var p SupplyPayload
	err := json.Unmarshal([]byte(`{"propertyType":"castle"}`), &p)
	assert.Error(t, err)
}

func TestSupplyMissingPrice(t *testing.T) {
	var p SupplyPayload
	require.NoError(t, json.Unmarshal([]byte(`{"title":"t"}`), &p))
	require.Len(t, p.Missing(), 1)
	assert.Equal(t, "price", p.Missing()[0].Field)

	assert.Empty(t, (&DemandPayload{}).Missing())
}
