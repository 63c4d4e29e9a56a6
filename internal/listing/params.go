package listing

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"realestate-backend/internal/models"
	"realestate-backend/internal/query"
)

// paramReader parses optional query parameters, keeping the first error.
type paramReader struct {
	c   *fiber.Ctx
	err error
}

func (r *paramReader) raw(name string) (string, bool) {
	v := strings.TrimSpace(r.c.Query(name))
	return v, v != ""
}

func (r *paramReader) fail(name, want string) {
	if r.err == nil {
		r.err = fiber.NewError(fiber.StatusBadRequest, name+" must be "+want)
	}
}

func (r *paramReader) str(name string) *string {
	v, ok := r.raw(name)
	if !ok {
		return nil
	}
	return &v
}

func (r *paramReader) integer(name string) *int {
	v, ok := r.raw(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		r.fail(name, "a non-negative integer")
		return nil
	}
	return &n
}

func (r *paramReader) number(name string) *float64 {
	v, ok := r.raw(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		r.fail(name, "a non-negative number")
		return nil
	}
	return &f
}

func (r *paramReader) flag(name string) *bool {
	v, ok := r.raw(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(name, "true or false")
		return nil
	}
	return &b
}

func parseEnum[T any](r *paramReader, name string, parse func(string) (T, error)) *T {
	v, ok := r.raw(name)
	if !ok {
		return nil
	}
	out, err := parse(v)
	if err != nil {
		if r.err == nil {
			r.err = fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return nil
	}
	return &out
}

// searchParams maps query parameters one to one onto search filters. Unset
// parameters stay nil so they never constrain results.
func searchParams(c *fiber.Ctx) (query.SearchParams, error) {
	r := &paramReader{c: c}
	p := query.SearchParams{
		Locality:         r.str("locality"),
		Keywords:         r.str("keywords"),
		TitleKeywords:    r.str("title_keywords"),
		PropertyType:     parseEnum(r, "property_type", models.ParsePropertyType),
		ListingType:      parseEnum(r, "listing_type", models.ParseListingType),
		FurnishingStatus: parseEnum(r, "furnishing_status", models.ParseFurnishingStatus),
		FacingDirection:  r.str("facing_direction"),
		Bhk:              r.integer("bhk"),
		TotalFloors:      r.integer("total_floors"),
		MinSqft:          r.number("min_sqft"),
		MaxSqft:          r.number("max_sqft"),
		MinPrice:         r.number("min_price"),
		MaxPrice:         r.number("max_price"),
		LiftAvailable:    r.flag("lift_available"),
	}
	if size := r.integer("size"); size != nil {
		p.Size = *size
	}
	if r.err != nil {
		return query.SearchParams{}, r.err
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return query.SearchParams{}, fiber.NewError(fiber.StatusBadRequest, "min_price must not exceed max_price")
	}
	if p.MinSqft != nil && p.MaxSqft != nil && *p.MinSqft > *p.MaxSqft {
		return query.SearchParams{}, fiber.NewError(fiber.StatusBadRequest, "min_sqft must not exceed max_sqft")
	}
	return p, nil
}

func sizeParam(c *fiber.Ctx) (int, error) {
	r := &paramReader{c: c}
	n := r.integer("size")
	if r.err != nil {
		return 0, r.err
	}
	if n == nil {
		return 0, nil
	}
	return *n, nil
}
