package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/samirrijal/annotile/internal/pkg/metrics"
)

// SetupRoutes registers all REST routes plus the static captures mount.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 60 requests per minute per IP. Captures are heavy;
	// anything bursting past this is abuse or a runaway script.
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Stitched rasters and sidecars, served as-is
	app.Static("/captures", deps.Config.Storage.CapturesDir)

	// REST API v1: 15s timeout on everything except capture creation,
	// which carries its own fetch deadline and can legitimately run long.
	v1 := app.Group("/v1")
	v1.Post("/annotations", CreateAnnotationHandler(deps))
	v1.Get("/annotations", timeout.NewWithContext(ListAnnotationsHandler(deps), 15*time.Second))
	v1.Get("/annotations/:id", timeout.NewWithContext(GetAnnotationHandler(deps), 15*time.Second))
	v1.Patch("/annotations/:id", timeout.NewWithContext(UpdateAnnotationHandler(deps), 15*time.Second))
	v1.Delete("/annotations/:id", timeout.NewWithContext(DeleteAnnotationHandler(deps), 15*time.Second))
	v1.Get("/tileservers", timeout.NewWithContext(ListTileServersHandler(deps), 15*time.Second))
	v1.Get("/categories", timeout.NewWithContext(ListCategoriesHandler(deps), 15*time.Second))

	// API documentation (Swagger UI)
	SetupDocs(app)
}
