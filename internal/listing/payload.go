package listing

import (
	"gorm.io/datatypes"

	"realestate-backend/internal/models"
)

// Payload is a decoded request body. A nil field was not supplied (absent or
// JSON null) and is left untouched; a non-nil field always overwrites, even
// with false, 0 or "".
type Payload interface {
	Kind() models.Kind
	// SuppliedID is the id in the body, or "".
	SuppliedID() (string, bool)
	// Build returns a fresh record holding only the supplied fields.
	Build() models.Record
	// Apply overlays the supplied fields on rec.
	Apply(rec models.Record)
	// Fields returns the supplied fields keyed by column name.
	Fields() map[string]any
	// Missing lists fields required on create that were not supplied.
	Missing() models.ValidationErrors
}

func NewPayload(kind models.Kind) Payload {
	if kind == models.KindDemand {
		return &DemandPayload{}
	}
	return &SupplyPayload{}
}

type BasePayload struct {
	ID              *string `json:"id"`
	CustomerID      *string `json:"customerId"`
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Locality        *string `json:"locality"`
	City            *string `json:"city"`
	FacingDirection *string `json:"facingDirection"`

	PropertyType     *models.PropertyType     `json:"propertyType"`
	ListingType      *models.ListingType      `json:"listingType"`
	FurnishingStatus *models.FurnishingStatus `json:"furnishingStatus"`

	Overlooking     *[]string `json:"overlooking"`
	AdditionalRooms *[]string `json:"additionalRooms"`
	Amenities       *[]string `json:"amenities"`
	LiftAvailable   *bool     `json:"liftAvailable"`
	ListedDate      *string   `json:"listedDate"`

	CustomerName           *string `json:"customerName"`
	CustomerEmail          *string `json:"customerEmail"`
	CustomerPhone          *string `json:"customerPhone"`
	CustomerAddress        *string `json:"customerAddress"`
	CustomerReferredBy     *string `json:"customerReferredBy"`
	CustomerAdditionalInfo *string `json:"customerAdditionalInfo"`
}

func (p *BasePayload) SuppliedID() (string, bool) {
	if p.ID == nil {
		return "", false
	}
	return *p.ID, true
}

type textField struct {
	column  string
	in, out *string
}

type tagField struct {
	column string
	in     *[]string
	out    *datatypes.JSONSlice[string]
}

// textFields pairs each plain string column with its payload and row fields.
func (p *BasePayload) textFields(b *models.BaseListing) []textField {
	return []textField{
		{"customer_id", p.CustomerID, &b.CustomerID},
		{"title", p.Title, &b.Title},
		{"description", p.Description, &b.Description},
		{"locality", p.Locality, &b.Locality},
		{"city", p.City, &b.City},
		{"facing_direction", p.FacingDirection, &b.FacingDirection},
		{"listed_date", p.ListedDate, &b.ListedDate},
		{"customer_name", p.CustomerName, &b.CustomerName},
		{"customer_email", p.CustomerEmail, &b.CustomerEmail},
		{"customer_phone", p.CustomerPhone, &b.CustomerPhone},
		{"customer_address", p.CustomerAddress, &b.CustomerAddress},
		{"customer_referred_by", p.CustomerReferredBy, &b.CustomerReferredBy},
		{"customer_additional_info", p.CustomerAdditionalInfo, &b.CustomerAdditionalInfo},
	}
}

func (p *BasePayload) tagFields(b *models.BaseListing) []tagField {
	return []tagField{
		{"overlooking", p.Overlooking, &b.Overlooking},
		{"additional_rooms", p.AdditionalRooms, &b.AdditionalRooms},
		{"amenities", p.Amenities, &b.Amenities},
	}
}

func (p *BasePayload) apply(b *models.BaseListing) {
	for _, f := range p.textFields(b) {
		if f.in != nil {
			*f.out = *f.in
		}
	}
	for _, f := range p.tagFields(b) {
		if f.in != nil {
			*f.out = tagSet(*f.in)
		}
	}
	if p.ID != nil {
		b.ID = *p.ID
	}
	if p.PropertyType != nil {
		b.PropertyType = *p.PropertyType
	}
	if p.ListingType != nil {
		b.ListingType = *p.ListingType
	}
	if p.FurnishingStatus != nil {
		v := *p.FurnishingStatus
		b.FurnishingStatus = &v
	}
	if p.LiftAvailable != nil {
		v := *p.LiftAvailable
		b.LiftAvailable = &v
	}
}

func (p *BasePayload) fields(out map[string]any) {
	var scratch models.BaseListing
	for _, f := range p.textFields(&scratch) {
		if f.in != nil {
			out[f.column] = *f.in
		}
	}
	for _, f := range p.tagFields(&scratch) {
		if f.in != nil {
			out[f.column] = tagSet(*f.in)
		}
	}
	if p.PropertyType != nil {
		out["property_type"] = string(*p.PropertyType)
	}
	if p.ListingType != nil {
		out["listing_type"] = string(*p.ListingType)
	}
	if p.FurnishingStatus != nil {
		out["furnishing_status"] = string(*p.FurnishingStatus)
	}
	if p.LiftAvailable != nil {
		out["lift_available"] = *p.LiftAvailable
	}
}

// tagSet drops duplicates, keeping first occurrence order.
func tagSet(in []string) datatypes.JSONSlice[string] {
	seen := make(map[string]struct{}, len(in))
	out := make(datatypes.JSONSlice[string], 0, len(in))
	for _, t := range in {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

type SupplyPayload struct {
	BasePayload
	Price         *float64 `json:"price"`
	Deposit       *float64 `json:"deposit"`
	Bhk           *int     `json:"bhk"`
	AreaSqft      *int     `json:"areaSqft"`
	Bathrooms     *int     `json:"bathrooms"`
	AgeOfBuilding *int     `json:"ageOfBuilding"`
	FloorNumber   *int     `json:"floorNumber"`
	TotalFloors   *int     `json:"totalFloors"`
}

func (p *SupplyPayload) Kind() models.Kind { return models.KindSupply }

func (p *SupplyPayload) Build() models.Record {
	rec := &models.SupplyRecord{}
	p.Apply(rec)
	return rec
}

func (p *SupplyPayload) Apply(rec models.Record) {
	s := rec.(*models.SupplyRecord)
	p.apply(&s.BaseListing)
	if p.Price != nil {
		s.Price = *p.Price
	}
	setFloat(&s.Deposit, p.Deposit)
	setInt(&s.Bhk, p.Bhk)
	setInt(&s.AreaSqft, p.AreaSqft)
	setInt(&s.Bathrooms, p.Bathrooms)
	setInt(&s.AgeOfBuilding, p.AgeOfBuilding)
	setInt(&s.FloorNumber, p.FloorNumber)
	setInt(&s.TotalFloors, p.TotalFloors)
}

func (p *SupplyPayload) Fields() map[string]any {
	out := map[string]any{}
	p.fields(out)
	putFloat(out, "price", p.Price)
	putFloat(out, "deposit", p.Deposit)
	putInt(out, "bhk", p.Bhk)
	putInt(out, "area_sqft", p.AreaSqft)
	putInt(out, "bathrooms", p.Bathrooms)
	putInt(out, "age_of_building", p.AgeOfBuilding)
	putInt(out, "floor_number", p.FloorNumber)
	putInt(out, "total_floors", p.TotalFloors)
	return out
}

func (p *SupplyPayload) Missing() models.ValidationErrors {
	var errs models.ValidationErrors
	if p.Price == nil {
		errs.Add("price", "is required")
	}
	return errs
}

type DemandPayload struct {
	BasePayload
	PriceMin    *float64 `json:"priceMin"`
	PriceMax    *float64 `json:"priceMax"`
	DepositMax  *float64 `json:"depositMax"`
	BhkMin      *int     `json:"bhkMin"`
	BhkMax      *int     `json:"bhkMax"`
	AreaSqftMin *int     `json:"areaSqftMin"`
	AreaSqftMax *int     `json:"areaSqftMax"`
	Bathrooms   *int     `json:"bathrooms"`
	MoveInDate  *string  `json:"moveInDate"`
}

func (p *DemandPayload) Kind() models.Kind { return models.KindDemand }

func (p *DemandPayload) Build() models.Record {
	rec := &models.DemandRecord{}
	p.Apply(rec)
	return rec
}

func (p *DemandPayload) Apply(rec models.Record) {
	d := rec.(*models.DemandRecord)
	p.apply(&d.BaseListing)
	setFloat(&d.PriceMin, p.PriceMin)
	setFloat(&d.PriceMax, p.PriceMax)
	setFloat(&d.DepositMax, p.DepositMax)
	setInt(&d.BhkMin, p.BhkMin)
	setInt(&d.BhkMax, p.BhkMax)
	setInt(&d.AreaSqftMin, p.AreaSqftMin)
	setInt(&d.AreaSqftMax, p.AreaSqftMax)
	setInt(&d.Bathrooms, p.Bathrooms)
	if p.MoveInDate != nil {
		d.MoveInDate = *p.MoveInDate
	}
}

func (p *DemandPayload) Fields() map[string]any {
	out := map[string]any{}
	p.fields(out)
	putFloat(out, "price_min", p.PriceMin)
	putFloat(out, "price_max", p.PriceMax)
	putFloat(out, "deposit_max", p.DepositMax)
	putInt(out, "bhk_min", p.BhkMin)
	putInt(out, "bhk_max", p.BhkMax)
	putInt(out, "area_sqft_min", p.AreaSqftMin)
	putInt(out, "area_sqft_max", p.AreaSqftMax)
	putInt(out, "bathrooms", p.Bathrooms)
	if p.MoveInDate != nil {
		out["move_in_date"] = *p.MoveInDate
	}
	return out
}

func (p *DemandPayload) Missing() models.ValidationErrors { return nil }

func setFloat(dst **float64, v *float64) {
	if v != nil {
		x := *v
		*dst = &x
	}
}

func setInt(dst **int, v *int) {
	if v != nil {
		x := *v
		*dst = &x
	}
}

func putFloat(out map[string]any, column string, v *float64) {
	if v != nil {
		out[column] = *v
	}
}

func putInt(out map[string]any, column string, v *int) {
	if v != nil {
		out[column] = *v
	}
}
