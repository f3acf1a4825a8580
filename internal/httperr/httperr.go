package httperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Error is a typed failure that maps onto one HTTP response.
// Handlers are the only place these become status codes; everything
// below the handler layer returns them as ordinary errors.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation is a malformed or missing-input failure (400, never persisted)
func Validation(message string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Code: "validation_error", Message: message}
}

// Auth is a bad-credential failure (401 when absent, 403 when rejected)
func Auth(status int, message string) *Error {
	return &Error{Status: status, Code: "auth_error", Message: message}
}

// NotFound is an unknown-resource failure (404)
func NotFound(message string) *Error {
	return &Error{Status: fiber.StatusNotFound, Code: "not_found", Message: message}
}

// Parse is a provider payload normalization failure. On the single-event
// path it surfaces as a 400; on batch paths it only increments the failed
// counter and never aborts sibling events.
func Parse(message string, err error) *Error {
	return &Error{Status: fiber.StatusBadRequest, Code: "parse_error", Message: message, Err: err}
}

// Storage is an underlying store failure (500)
func Storage(err error) *Error {
	return &Error{Status: fiber.StatusInternalServerError, Code: "storage_error", Message: "storage operation failed", Err: err}
}

// Respond writes err as a JSON {error, message} body with its status code.
// Errors that are not *httperr.Error become opaque 500s.
func Respond(c *fiber.Ctx, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return c.Status(e.Status).JSON(fiber.Map{
			"error":   e.Code,
			"message": e.Message,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "internal_error",
		"message": "internal server error",
	})
}
