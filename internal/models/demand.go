package models

// DemandRecord is a buyer or tenant requirement. Scalars are acceptable ranges.
type DemandRecord struct {
	BaseListing

	PriceMin    *float64 `json:"priceMin,omitempty"`
	PriceMax    *float64 `json:"priceMax,omitempty"`
	DepositMax  *float64 `json:"depositMax,omitempty"`
	BhkMin      *int     `json:"bhkMin,omitempty"`
	BhkMax      *int     `json:"bhkMax,omitempty"`
	AreaSqftMin *int     `json:"areaSqftMin,omitempty"`
	AreaSqftMax *int     `json:"areaSqftMax,omitempty"`
	Bathrooms   *int     `json:"bathrooms,omitempty"`
	MoveInDate  string   `gorm:"size:10" json:"moveInDate"`
}

func (DemandRecord) TableName() string { return "demand_requests" }

func (d *DemandRecord) Kind() Kind { return KindDemand }

func (d *DemandRecord) Normalize() map[string]any {
	d.fillTags()
	changed := map[string]any{}
	if d.ListingType == ListingSale && d.DepositMax != nil {
		d.DepositMax = nil
		changed["deposit_max"] = nil
	}
	return changed
}

func (d *DemandRecord) Validate() error {
	var errs ValidationErrors
	d.validate(&errs)
	checkAmount(&errs, "priceMin", d.PriceMin)
	checkAmount(&errs, "priceMax", d.PriceMax)
	checkAmount(&errs, "depositMax", d.DepositMax)
	checkCount(&errs, "bhkMin", d.BhkMin)
	checkCount(&errs, "bhkMax", d.BhkMax)
	checkCount(&errs, "areaSqftMin", d.AreaSqftMin)
	checkCount(&errs, "areaSqftMax", d.AreaSqftMax)
	checkCount(&errs, "bathrooms", d.Bathrooms)
	if d.PriceMin != nil && d.PriceMax != nil && *d.PriceMin > *d.PriceMax {
		errs.Add("priceMin", "must not exceed priceMax")
	}
	if d.BhkMin != nil && d.BhkMax != nil && *d.BhkMin > *d.BhkMax {
		errs.Add("bhkMin", "must not exceed bhkMax")
	}
	if d.AreaSqftMin != nil && d.AreaSqftMax != nil && *d.AreaSqftMin > *d.AreaSqftMax {
		errs.Add("areaSqftMin", "must not exceed areaSqftMax")
	}
	checkDate(&errs, "moveInDate", d.MoveInDate)
	return errs.orNil()
}

func (d *DemandRecord) Projection() Document {
	doc := Document{KindDemand.IDField(): d.ID}
	d.project(doc)
	putFloat(doc, "price_min", d.PriceMin)
	putFloat(doc, "price_max", d.PriceMax)
	putFloat(doc, "deposit_max", d.DepositMax)
	putInt(doc, "bhk_min", d.BhkMin)
	putInt(doc, "bhk_max", d.BhkMax)
	putInt(doc, "area_sqft_min", d.AreaSqftMin)
	putInt(doc, "area_sqft_max", d.AreaSqftMax)
	putInt(doc, "bathrooms", d.Bathrooms)
	if d.MoveInDate != "" {
		doc["move_in_date"] = d.MoveInDate
	}
	return doc
}
