package audit

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"realestate-backend/internal/auth"
	"realestate-backend/internal/models"
)

const maxListLimit = 500

func limitParam(c *fiber.Ctx) (int, error) {
	s := c.Query("limit")
	if s == "" {
		return 100, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	return n, nil
}

func kindParam(c *fiber.Ctx) (models.Kind, error) {
	s := c.Query("record_kind")
	if s == "" {
		return "", nil
	}
	k, err := models.ParseKind(s)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return k, nil
}

// GET /api/audit-logs?record_kind=supply&record_id=...&actor_id=...&limit=
func ListAuditLogsHandler(rec *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := limitParam(c)
		if err != nil {
			return err
		}
		kind, err := kindParam(c)
		if err != nil {
			return err
		}

		logs, err := rec.ListLogs(c.UserContext(), LogFilter{
			Kind:     kind,
			RecordID: c.Query("record_id"),
			ActorID:  c.Query("actor_id"),
			Limit:    limit,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list audit logs")
		}
		return c.JSON(logs)
	}
}

// GET /api/sync-issues?status=open|resolved|all&type=...&record_kind=...
func ListSyncIssuesHandler(rec *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := limitParam(c)
		if err != nil {
			return err
		}
		kind, err := kindParam(c)
		if err != nil {
			return err
		}
		status := c.Query("status", "open")
		if status != "open" && status != "resolved" && status != "all" {
			return fiber.NewError(fiber.StatusBadRequest, "status must be open, resolved or all")
		}

		issues, err := rec.ListIssues(c.UserContext(), IssueFilter{
			Kind:   kind,
			Type:   models.SyncIssueType(c.Query("type")),
			Status: status,
			Limit:  limit,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list sync issues")
		}
		return c.JSON(issues)
	}
}

// POST /api/sync-issues/:id/resolve
func ResolveSyncIssueHandler(rec *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid sync issue id")
		}

		issue, err := rec.Resolve(c.UserContext(), uint(id), auth.UserID(c))
		switch {
		case errors.Is(err, ErrIssueNotFound):
			return fiber.NewError(fiber.StatusNotFound, "sync issue not found")
		case errors.Is(err, ErrAlreadyResolved):
			return fiber.NewError(fiber.StatusConflict, "sync issue already resolved")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, "could not resolve sync issue")
		}
		return c.JSON(issue)
	}
}
