package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/annotile/internal/core/domain"
	"github.com/samirrijal/annotile/internal/core/usecases"
	"github.com/samirrijal/annotile/internal/pkg/metrics"
)

// CreateAnnotationRequest is the POST /v1/annotations body.
type CreateAnnotationRequest struct {
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Polygon  domain.Polygon `json:"polygon"`
	// Zoom 0 (or omitted) picks the highest zoom whose grid fits the
	// configured tile budget.
	Zoom int `json:"zoom"`
	// TileServer is a catalog name, or a raw XYZ template with {z}/{x}/{y}
	// placeholders. Empty selects the configured default.
	TileServer string `json:"tile_server"`
}

// CreateAnnotationHandler runs a capture and stores the resulting
// annotation.
func CreateAnnotationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateAnnotationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Name == "" {
			return errBadRequest(c, "name is required")
		}

		serverName, template, err := deps.Config.ResolveTileServer(req.TileServer)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		log := LoggerFromCtx(c.UserContext())
		ctx, span := otel.Tracer("annotile/http").Start(c.UserContext(), "capture")
		defer span.End()
		span.SetAttributes(
			attribute.String("annotation.name", req.Name),
			attribute.String("tile.server", serverName),
			attribute.Int("tile.zoom", req.Zoom),
		)

		start := time.Now()
		record, err := deps.Captures.Capture(ctx, usecases.CaptureRequest{
			Name:        req.Name,
			Category:    req.Category,
			Polygon:     req.Polygon,
			Zoom:        req.Zoom,
			TileServer:  serverName,
			URLTemplate: template,
		})
		metrics.CaptureDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			span.RecordError(err)
			metrics.CapturesTotal.WithLabelValues("error").Inc()
			var capErr *usecases.CaptureError
			if errors.As(err, &capErr) {
				metrics.CaptureFailures.WithLabelValues(string(capErr.Phase)).Inc()
			}
			log.Error("capture failed", "name", req.Name, "error", err)
			return mapDomainError(c, err)
		}

		span.SetAttributes(attribute.String("annotation.id", record.ID))
		metrics.CapturesTotal.WithLabelValues("ok").Inc()
		log.Info("capture complete",
			"id", record.ID,
			"zoom", record.Zoom,
			"width", record.ImageWidth,
			"height", record.ImageHeight,
		)

		return c.Status(fiber.StatusCreated).JSON(record)
	}
}

// ListAnnotationsHandler returns stored annotations, optionally filtered by
// category.
func ListAnnotationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := deps.Annotations.List(c.Context(), c.Query("category"))
		if err != nil {
			return mapDomainError(c, err)
		}

		// Apply offset/limit pagination on the full list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(records)
		if offset >= total {
			records = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			records = records[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: records, Pagination: pg})
	}
}

// GetAnnotationHandler returns a single annotation by ID.
func GetAnnotationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "annotation id is required")
		}
		record, err := deps.Annotations.Get(c.Context(), id)
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(record)
	}
}

// UpdateAnnotationRequest is the PATCH /v1/annotations/{id} body. Omitted
// fields stay untouched.
type UpdateAnnotationRequest struct {
	Category *string `json:"category"`
	Visible  *bool   `json:"visible"`
}

// UpdateAnnotationHandler patches the category and/or visible flag of an
// annotation.
func UpdateAnnotationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "annotation id is required")
		}

		var req UpdateAnnotationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		record, err := deps.Annotations.UpdateFields(c.Context(), id, req.Category, req.Visible)
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(record)
	}
}

// DeleteAnnotationHandler removes an annotation and its artifacts.
func DeleteAnnotationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "annotation id is required")
		}
		if err := deps.Annotations.Delete(c.Context(), id); err != nil {
			return mapDomainError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// TileServerInfo describes one entry of the tile server catalog.
type TileServerInfo struct {
	Name        string `json:"name"`
	URLTemplate string `json:"url_template"`
	Default     bool   `json:"default"`
}

// ListTileServersHandler returns the configured tile server catalog.
func ListTileServersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		names := deps.Config.TileServerNames()
		servers := make([]TileServerInfo, 0, len(names))
		for _, name := range names {
			servers = append(servers, TileServerInfo{
				Name:        name,
				URLTemplate: deps.Config.TileServers[name],
				Default:     name == deps.Config.Capture.DefaultTileServer,
			})
		}
		return c.JSON(servers)
	}
}

// ListCategoriesHandler returns the annotation categories with their
// display colors.
func ListCategoriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(domain.DefaultCategories)
	}
}
