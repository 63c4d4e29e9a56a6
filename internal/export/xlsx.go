// Package export renders listing rows as an xlsx workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"realestate-backend/internal/models"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var baseColumns = []string{
	"customer_id", "title", "description", "locality", "city", "facing_direction",
	"property_type", "listing_type", "furnishing_status",
	"overlooking", "additional_rooms", "amenities", "lift_available", "listed_date",
	"customer_name", "customer_email", "customer_phone",
}

var kindColumns = map[models.Kind][]string{
	models.KindSupply: {
		"price", "deposit", "bhk", "area_sqft", "bathrooms",
		"age_of_building", "floor_number", "total_floors",
	},
	models.KindDemand: {
		"price_min", "price_max", "deposit_max", "bhk_min", "bhk_max",
		"area_sqft_min", "area_sqft_max", "bathrooms", "move_in_date",
	},
}

// Columns lists the header row for kind: id field first, then shared
// attributes, then the kind's own.
func Columns(kind models.Kind) []string {
	cols := []string{kind.IDField()}
	cols = append(cols, baseColumns...)
	return append(cols, kindColumns[kind]...)
}

// Write renders recs as one sheet named after kind. Cells come from each
// record's projection, so unset optionals stay blank.
func Write(w io.Writer, kind models.Kind, recs []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := string(kind)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("sheet name: %w", err)
	}

	cols := Columns(kind)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("header row: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, rec := range recs {
		doc := rec.Projection()
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = cell(doc[c])
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cell(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(t, ", ")
	default:
		return t
	}
}
