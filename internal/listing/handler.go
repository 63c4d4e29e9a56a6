package listing

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"realestate-backend/internal/auth"
	"realestate-backend/internal/export"
	"realestate-backend/internal/models"
)

func decode(c *fiber.Ctx, kind models.Kind) (Payload, error) {
	p := NewPayload(kind)
	if err := c.BodyParser(p); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return p, nil
}

// POST /api/{kind}
func CreateHandler(svc *Service, kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := decode(c, kind)
		if err != nil {
			return err
		}
		res, err := svc.Create(c.UserContext(), auth.UserID(c), p)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// PUT /api/{kind}/:id
func UpdateHandler(svc *Service, kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := decode(c, kind)
		if err != nil {
			return err
		}
		res, err := svc.Update(c.UserContext(), auth.UserID(c), kind, c.Params("id"), p)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// DELETE /api/{kind}/:id
func DeleteHandler(svc *Service, kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Delete(c.UserContext(), auth.UserID(c), kind, c.Params("id"))
		var lerr *Error
		if errors.As(err, &lerr) && lerr.Kind == ErrIndexDelete {
			body := lerr.Body()
			body["result"] = res.Result
			body["documentId"] = res.DocumentID
			body["indexDeleteOutcome"] = res.IndexDeleteOutcome
			return c.Status(fiber.StatusOK).JSON(body)
		}
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/{kind}/:id
func GetHandler(svc *Service, kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.Get(c.UserContext(), kind, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(rec)
	}
}

// GET /api/{kind}?size=
func ListHandler(svc *Service, kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		size, err := sizeParam(c)
		if err != nil {
			return err
		}
		res, err := svc.List(c.UserContext(), kind, size)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/{kind}/export?size=
func ExportHandler(svc *Service, kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		size, err := sizeParam(c)
		if err != nil {
			return err
		}
		recs, err := svc.Rows(c.UserContext(), kind, size)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, export.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.xlsx"`, kind))
		return export.Write(c, kind, recs)
	}
}

// GET /api/search/{kind}?locality=&min_price=...
func SearchHandler(svc *Service, kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params, err := searchParams(c)
		if err != nil {
			return err
		}
		res, err := svc.Search(c.UserContext(), kind, params)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/stats
func StatsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}
