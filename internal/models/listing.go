package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	MaxIDLength = 64
	DateLayout  = "2006-01-02"
)

// Record is implemented by *SupplyRecord and *DemandRecord.
type Record interface {
	Kind() Kind
	RecordID() string
	SetRecordID(id string)
	Base() *BaseListing
	// Normalize applies server-side coercions and returns the columns it changed.
	Normalize() map[string]any
	Validate() error
	Projection() Document
}

// BaseListing holds the attributes shared by supply and demand rows.
type BaseListing struct {
	ID         string `gorm:"primaryKey;size:64" json:"id"`
	CustomerID string `gorm:"size:64;index" json:"customerId"`

	Title           string `gorm:"size:200;not null" json:"title"`
	Description     string `gorm:"type:text" json:"description"`
	Locality        string `gorm:"size:200;not null;index" json:"locality"`
	City            string `gorm:"size:100" json:"city"`
	FacingDirection string `gorm:"size:50" json:"facingDirection"`

	PropertyType     PropertyType      `gorm:"size:32;not null;check:property_type IN ('Flat','Bungalow','Plot','Office','Shop','AgriculturalLand','IndustrialLand')" json:"propertyType"`
	ListingType      ListingType       `gorm:"size:16;not null;check:listing_type IN ('Sale','Rent')" json:"listingType"`
	FurnishingStatus *FurnishingStatus `gorm:"size:32;check:furnishing_status IN ('Furnished','Unfurnished','SemiFurnished')" json:"furnishingStatus,omitempty"`

	Overlooking     datatypes.JSONSlice[string] `json:"overlooking"`
	AdditionalRooms datatypes.JSONSlice[string] `json:"additionalRooms"`
	Amenities       datatypes.JSONSlice[string] `json:"amenities"`
	LiftAvailable   *bool                       `json:"liftAvailable,omitempty"`
	ListedDate      string                      `gorm:"size:10" json:"listedDate"`

	// Contact details of the customer are kept flat on the row.
	CustomerName           string `gorm:"size:200" json:"customerName"`
	CustomerEmail          string `gorm:"size:200" json:"customerEmail"`
	CustomerPhone          string `gorm:"size:50" json:"customerPhone"`
	CustomerAddress        string `gorm:"size:500" json:"customerAddress"`
	CustomerReferredBy     string `gorm:"size:200" json:"customerReferredBy"`
	CustomerAdditionalInfo string `gorm:"type:text" json:"customerAdditionalInfo"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *BaseListing) RecordID() string      { return b.ID }
func (b *BaseListing) SetRecordID(id string) { b.ID = id }
func (b *BaseListing) Base() *BaseListing    { return b }

func (b *BaseListing) validate(errs *ValidationErrors) {
	if b.ID == "" {
		errs.Add("id", "is required")
	} else {
		if len(b.ID) > MaxIDLength {
			errs.Add("id", fmt.Sprintf("must be at most %d characters", MaxIDLength))
		}
		if strings.ContainsAny(b.ID, "/?#") {
			errs.Add("id", "must not contain '/', '?' or '#'")
		}
	}
	if strings.TrimSpace(b.Title) == "" {
		errs.Add("title", "is required")
	}
	if strings.TrimSpace(b.Locality) == "" {
		errs.Add("locality", "is required")
	}
	if !b.PropertyType.Valid() {
		errs.Add("propertyType", "must be one of "+join(PropertyTypes))
	}
	if !b.ListingType.Valid() {
		errs.Add("listingType", "must be one of "+join(ListingTypes))
	}
	if b.FurnishingStatus != nil && !b.FurnishingStatus.Valid() {
		errs.Add("furnishingStatus", "must be one of "+join(FurnishingStatuses))
	}
	checkDate(errs, "listedDate", b.ListedDate)
}

func (b *BaseListing) project(doc Document) {
	doc["customer_id"] = b.CustomerID
	doc["title"] = b.Title
	doc["description"] = b.Description
	doc["locality"] = b.Locality
	doc["city"] = b.City
	doc["facing_direction"] = b.FacingDirection
	doc["property_type"] = string(b.PropertyType)
	doc["listing_type"] = string(b.ListingType)
	if b.FurnishingStatus != nil {
		doc["furnishing_status"] = string(*b.FurnishingStatus)
	}
	doc["overlooking"] = tags(b.Overlooking)
	doc["additional_rooms"] = tags(b.AdditionalRooms)
	doc["amenities"] = tags(b.Amenities)
	if b.LiftAvailable != nil {
		doc["lift_available"] = *b.LiftAvailable
	}
	if b.ListedDate != "" {
		doc["listed_date"] = b.ListedDate
	}
	doc["customer_name"] = b.CustomerName
	doc["customer_email"] = b.CustomerEmail
	doc["customer_phone"] = b.CustomerPhone
	doc["customer_address"] = b.CustomerAddress
	doc["customer_referred_by"] = b.CustomerReferredBy
	doc["customer_additional_info"] = b.CustomerAdditionalInfo
}

// fillTags stores empty tag sets as [] rather than JSON null.
func (b *BaseListing) fillTags() {
	for _, t := range []*datatypes.JSONSlice[string]{&b.Overlooking, &b.AdditionalRooms, &b.Amenities} {
		if *t == nil {
			*t = datatypes.JSONSlice[string]{}
		}
	}
}

func tags(s datatypes.JSONSlice[string]) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func checkDate(errs *ValidationErrors, field, v string) {
	if v == "" {
		return
	}
	if _, err := time.Parse(DateLayout, v); err != nil {
		errs.Add(field, "must be a date formatted as YYYY-MM-DD")
	}
}

func checkCount(errs *ValidationErrors, field string, v *int) {
	if v != nil && *v < 0 {
		errs.Add(field, "must not be negative")
	}
}

func checkAmount(errs *ValidationErrors, field string, v *float64) {
	if v != nil && *v < 0 {
		errs.Add(field, "must not be negative")
	}
}
