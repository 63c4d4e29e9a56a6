package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"realestate-backend/internal/models"
)

func intPtr(v int) *int { return &v }

func TestWriteSupplySheet(t *testing.T) {
	recs := []models.Record{
		&models.SupplyRecord{
			BaseListing: models.BaseListing{
				ID: "S1", Title: "2BHK near Forum", Locality: "Koramangala",
				PropertyType: models.PropertyFlat, ListingType: models.ListingRent,
				Amenities: datatypes.JSONSlice[string]{"gym", "pool"},
			},
			Price: 45000,
			Bhk:   intPtr(2),
		},
		&models.SupplyRecord{
			BaseListing: models.BaseListing{
				ID: "S2", Title: "Shop", Locality: "Indiranagar",
				PropertyType: models.PropertyShop, ListingType: models.ListingSale,
			},
			Price: 9000000,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, models.KindSupply, recs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"supply"}, f.GetSheetList())

	rows, err := f.GetRows("supply")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	cols := Columns(models.KindSupply)
	assert.Equal(t, cols, rows[0])
	at := func(row []string, col string) string {
		for i, c := range cols {
			if c == col && i < len(row) {
				return row[i]
			}
		}
		return ""
	}
	assert.Equal(t, "S1", at(rows[1], "property_id"))
	assert.Equal(t, "45000", at(rows[1], "price"))
	assert.Equal(t, "2", at(rows[1], "bhk"))
	assert.Equal(t, "gym, pool", at(rows[1], "amenities"))
	assert.Equal(t, "", at(rows[2], "bhk"))
	assert.Equal(t, "Sale", at(rows[2], "listing_type"))
}

func TestDemandColumns(t *testing.T) {
	cols := Columns(models.KindDemand)
	assert.Equal(t, "request_id", cols[0])
	assert.Contains(t, cols, "move_in_date")
	assert.NotContains(t, cols, "total_floors")
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, models.KindDemand, nil))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("demand")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
