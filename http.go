package staff

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
)

// ResponseEnvelope is the wire shape every non-payload response uses.
// Message is a string for simple statuses and a field map for
// validation failures.
type ResponseEnvelope struct {
	Status  int `json:"status"`
	Message any `json:"message"`
}

// DataEnvelope wraps successful payloads.
type DataEnvelope struct {
	Data    any    `json:"data"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

func respond(c *fiber.Ctx, status int, message any) error {
	return c.Status(status).JSON(ResponseEnvelope{
		Status:  status,
		Message: message,
	})
}

// NewErrorHandler builds the app level fiber error handler. Every error
// that escapes a route lands here and is flattened into the envelope;
// handlers never write error bodies themselves.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		// validation failures render the bare field map, matching the
		// shape clients get from model errors
		if verr, ok := err.(validation.Errors); ok {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(verr)
		}

		if errors.Is(err, ErrEmailTaken) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(map[string][]string{
				"email": {"has already been taken"},
			})
		}

		if repository.IsRecordNotFound(err) {
			return respond(c, fiber.StatusNotFound, "Not Found")
		}

		var richErr *errors.Error
		if errors.As(err, &richErr) {
			logger.Info(
				"request error",
				"error", richErr.Message,
				"category", richErr.Category,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)

			switch richErr.Category {
			case errors.CategoryAuth:
				return respond(c, fiber.StatusUnauthorized, "Unauthorized")
			case errors.CategoryAuthz:
				return respond(c, fiber.StatusForbidden, "Forbidden")
			case errors.CategoryValidation, errors.CategoryConflict:
				return respond(c, fiber.StatusUnprocessableEntity, richErr.Message)
			}

			logger.Error("unhandled error: %s", richErr)
			return respond(c, fiber.StatusInternalServerError, "Internal Server Error")
		}

		if ferr, ok := err.(*fiber.Error); ok {
			return respond(c, ferr.Code, ferr.Message)
		}

		logger.Error("unhandled error: %s", err)
		return respond(c, fiber.StatusInternalServerError, "Internal Server Error")
	}
}

// UserFromFiber pulls the authenticated user the gate stored in locals.
func UserFromFiber(c *fiber.Ctx, key string) (*User, bool) {
	user, ok := c.Locals(key).(*User)
	return user, ok && user != nil
}
