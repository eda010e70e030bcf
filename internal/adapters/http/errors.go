package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/annotile/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errUnprocessable returns a 422 error.
func errUnprocessable(c *fiber.Ctx, msg string) error {
	return newError(c, 422, "unprocessable", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errBadGateway returns a 502 error.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "bad_gateway", msg)
}

// errGatewayTimeout returns a 504 error.
func errGatewayTimeout(c *fiber.Ctx, msg string) error {
	return newError(c, 504, "gateway_timeout", msg)
}

// mapDomainError translates pipeline, registry and lookup failures into API
// responses. Invariant violations and unclassified errors come back as an
// opaque 500; their detail goes to the log only.
func mapDomainError(c *fiber.Ctx, err error) error {
	var (
		validationErr *domain.ValidationError
		gridErr       *domain.TileGridTooLargeError
		fetchErr      *domain.TileFetchError
		decodeErr     *domain.TileDecodeError
	)

	switch {
	case errors.As(err, &validationErr):
		return errBadRequest(c, validationErr.Error())
	case errors.Is(err, domain.ErrOutOfProjectionRange):
		return errBadRequest(c, err.Error())
	case errors.As(err, &gridErr):
		return errUnprocessable(c, gridErr.Error())
	case errors.Is(err, domain.ErrCaptureTimedOut):
		return errGatewayTimeout(c, err.Error())
	case errors.As(err, &fetchErr), errors.As(err, &decodeErr):
		return errBadGateway(c, err.Error())
	case errors.Is(err, domain.ErrRecordNotFound):
		return errNotFound(c, err.Error())
	default:
		LoggerFromCtx(c.UserContext()).Error("internal error", "error", err)
		return errInternal(c, "internal error")
	}
}
