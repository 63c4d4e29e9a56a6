package models

// SupplyRecord is a concrete available property. Scalars are point values.
type SupplyRecord struct {
	BaseListing

	Price         float64  `gorm:"not null" json:"price"`
	Deposit       *float64 `json:"deposit,omitempty"`
	Bhk           *int     `json:"bhk,omitempty"`
	AreaSqft      *int     `json:"areaSqft,omitempty"`
	Bathrooms     *int     `json:"bathrooms,omitempty"`
	AgeOfBuilding *int     `json:"ageOfBuilding,omitempty"`
	FloorNumber   *int     `json:"floorNumber,omitempty"`
	TotalFloors   *int     `json:"totalFloors,omitempty"`
}

func (SupplyRecord) TableName() string { return "supply_properties" }

func (s *SupplyRecord) Kind() Kind { return KindSupply }

// Normalize drops the deposit of a sale listing; deposits only describe rentals.
func (s *SupplyRecord) Normalize() map[string]any {
	s.fillTags()
	changed := map[string]any{}
	if s.ListingType == ListingSale && s.Deposit != nil {
		s.Deposit = nil
		changed["deposit"] = nil
	}
	return changed
}

func (s *SupplyRecord) Validate() error {
	var errs ValidationErrors
	s.validate(&errs)
	if s.Price < 0 {
		errs.Add("price", "must not be negative")
	}
	checkAmount(&errs, "deposit", s.Deposit)
	checkCount(&errs, "bhk", s.Bhk)
	checkCount(&errs, "areaSqft", s.AreaSqft)
	checkCount(&errs, "bathrooms", s.Bathrooms)
	checkCount(&errs, "ageOfBuilding", s.AgeOfBuilding)
	checkCount(&errs, "totalFloors", s.TotalFloors)
	if s.FloorNumber != nil && s.TotalFloors != nil && *s.FloorNumber > *s.TotalFloors {
		errs.Add("floorNumber", "must not exceed totalFloors")
	}
	return errs.orNil()
}

func (s *SupplyRecord) Projection() Document {
	doc := Document{KindSupply.IDField(): s.ID}
	s.project(doc)
	doc["price"] = s.Price
	putFloat(doc, "deposit", s.Deposit)
	putInt(doc, "bhk", s.Bhk)
	putInt(doc, "area_sqft", s.AreaSqft)
	putInt(doc, "bathrooms", s.Bathrooms)
	putInt(doc, "age_of_building", s.AgeOfBuilding)
	putInt(doc, "floor_number", s.FloorNumber)
	putInt(doc, "total_floors", s.TotalFloors)
	return doc
}

func putFloat(doc Document, key string, v *float64) {
	if v != nil {
		doc[key] = *v
	}
}

func putInt(doc Document, key string, v *int) {
	if v != nil {
		doc[key] = *v
	}
}
