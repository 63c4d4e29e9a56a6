package models

import (
	"fmt"
	"strings"
)

// PropertyType, ListingType and FurnishingStatus are closed vocabularies.
// The string value is both the column value and the index keyword.

type PropertyType string

const (
	PropertyFlat             PropertyType = "Flat"
	PropertyBungalow         PropertyType = "Bungalow"
	PropertyPlot             PropertyType = "Plot"
	PropertyOffice           PropertyType = "Office"
	PropertyShop             PropertyType = "Shop"
	PropertyAgriculturalLand PropertyType = "AgriculturalLand"
	PropertyIndustrialLand   PropertyType = "IndustrialLand"
)

var PropertyTypes = []PropertyType{
	PropertyFlat, PropertyBungalow, PropertyPlot, PropertyOffice,
	PropertyShop, PropertyAgriculturalLand, PropertyIndustrialLand,
}

type ListingType string

const (
	ListingSale ListingType = "Sale"
	ListingRent ListingType = "Rent"
)

var ListingTypes = []ListingType{ListingSale, ListingRent}

type FurnishingStatus string

const (
	Furnished     FurnishingStatus = "Furnished"
	Unfurnished   FurnishingStatus = "Unfurnished"
	SemiFurnished FurnishingStatus = "SemiFurnished"
)

var FurnishingStatuses = []FurnishingStatus{Furnished, Unfurnished, SemiFurnished}

func (p PropertyType) Valid() bool     { return contains(PropertyTypes, p) }
func (l ListingType) Valid() bool      { return contains(ListingTypes, l) }
func (f FurnishingStatus) Valid() bool { return contains(FurnishingStatuses, f) }

func (p *PropertyType) UnmarshalText(b []byte) error {
	v, err := canonical(PropertyTypes, string(b), "propertyType")
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (l *ListingType) UnmarshalText(b []byte) error {
	v, err := canonical(ListingTypes, string(b), "listingType")
	if err != nil {
		return err
	}
	*l = v
	return nil
}

func (f *FurnishingStatus) UnmarshalText(b []byte) error {
	v, err := canonical(FurnishingStatuses, string(b), "furnishingStatus")
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParsePropertyType accepts any casing and ignores spaces, dashes and underscores.
func ParsePropertyType(s string) (PropertyType, error) {
	return canonical(PropertyTypes, s, "propertyType")
}

func ParseListingType(s string) (ListingType, error) {
	return canonical(ListingTypes, s, "listingType")
}

func ParseFurnishingStatus(s string) (FurnishingStatus, error) {
	return canonical(FurnishingStatuses, s, "furnishingStatus")
}

func canonical[T ~string](vocab []T, raw, field string) (T, error) {
	key := fold(raw)
	for _, v := range vocab {
		if fold(string(v)) == key {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s: %q is not one of %s", field, raw, join(vocab))
}

func fold(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(s)))
}

func contains[T comparable](vocab []T, v T) bool {
	for _, x := range vocab {
		if x == v {
			return true
		}
	}
	return false
}

func join[T ~string](vocab []T) string {
	parts := make([]string, len(vocab))
	for i, v := range vocab {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
