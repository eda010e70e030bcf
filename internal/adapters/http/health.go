package http

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler checks the captures directory, the registry and the optional
// tile cache. A missing cache never fails readiness; captures degrade to
// direct tile server fetches without it.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		// Captures directory
		if info, err := os.Stat(deps.Config.Storage.CapturesDir); err != nil {
			checks["captures_dir"] = "error: " + err.Error()
			allOK = false
		} else if !info.IsDir() {
			checks["captures_dir"] = "error: not a directory"
			allOK = false
		} else {
			checks["captures_dir"] = "ok"
		}

		// Registry
		if deps.Annotations != nil {
			if _, err := deps.Annotations.List(ctx, ""); err != nil {
				checks["registry"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["registry"] = "ok"
			}
		} else {
			checks["registry"] = "not configured"
			allOK = false
		}

		// Valkey tile cache (optional)
		if deps.Cache != nil {
			if err := deps.Cache.Ping(ctx); err != nil {
				checks["cache"] = "error: " + err.Error()
			} else {
				checks["cache"] = "ok"
			}
		} else {
			checks["cache"] = "not configured"
		}

		status := "ready"
		code := 200
		if !allOK {
			status = "not ready"
			code = 503
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
