// Package server assembles the HTTP application.
package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"realestate-backend/internal/audit"
	"realestate-backend/internal/auth"
	"realestate-backend/internal/config"
	"realestate-backend/internal/database"
	"realestate-backend/internal/identity"
	"realestate-backend/internal/listing"
	"realestate-backend/internal/logger"
	"realestate-backend/internal/models"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Index   Pinger
	Service *listing.Service
	Audit   *audit.Recorder
	IDs     *identity.Allocator
	Log     zerolog.Logger
}

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "realestate-backend",
		ErrorHandler: ErrorHandler(d.Log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Requests(d.Log))

	corsOrigins := strings.Split(d.Config.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")
	requireAuth := auth.JWTMiddleware(d.Config.JWTSecret)

	api.Get("/health", HealthHandler(d.DB, d.Index))

	// Auth
	api.Post("/auth/signup", auth.SignupHandler(d.DB, d.Config, d.IDs))
	api.Post("/auth/login", auth.LoginHandler(d.DB, d.Config))
	api.Get("/auth/me", requireAuth, auth.MeHandler(d.DB))

	// Listings: reads are public, writes need a caller identity.
	for _, kind := range []models.Kind{models.KindSupply, models.KindDemand} {
		group := api.Group("/" + string(kind))
		group.Post("/", requireAuth, listing.CreateHandler(d.Service, kind))
		group.Get("/", listing.ListHandler(d.Service, kind))
		group.Get("/export", requireAuth, listing.ExportHandler(d.Service, kind))
		group.Get("/:id", listing.GetHandler(d.Service, kind))
		group.Put("/:id", requireAuth, listing.UpdateHandler(d.Service, kind))
		group.Delete("/:id", requireAuth, listing.DeleteHandler(d.Service, kind))

		api.Get("/search/"+string(kind), listing.SearchHandler(d.Service, kind))
	}

	api.Get("/stats", listing.StatsHandler(d.Service))

	// Reconciliation
	api.Get("/audit-logs", requireAuth, audit.ListAuditLogsHandler(d.Audit))
	api.Get("/sync-issues", requireAuth, audit.ListSyncIssuesHandler(d.Audit))
	api.Post("/sync-issues/:id/resolve", requireAuth, audit.ResolveSyncIssueHandler(d.Audit))

	return app
}

// ErrorHandler renders listing errors with both store states, fiber errors
// with their message and anything else as a bare 500.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var lerr *listing.Error
		if errors.As(err, &lerr) {
			status := lerr.Status()
			if status >= fiber.StatusInternalServerError {
				log.Error().Err(err).Str("kind", string(lerr.Kind)).Str("id", lerr.ID).Msg("listing operation failed")
			}
			return c.Status(status).JSON(lerr.Body())
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
			})
		}

		log.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unexpected server error",
		})
	}
}

// HealthHandler reports 503 unless both stores answer.
func HealthHandler(db *gorm.DB, index Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		status := fiber.Map{"relational": "ok", "index": "ok"}
		healthy := true
		if err := database.Ping(ctx, db); err != nil {
			status["relational"] = err.Error()
			healthy = false
		}
		if err := index.Ping(ctx); err != nil {
			status["index"] = err.Error()
			healthy = false
		}
		if !healthy {
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
		return c.JSON(status)
	}
}
