package serverutils

import (
	"errors"

	"multisite-be/internal/repository/contract"
	"multisite-be/pkg/multisite"

	"github.com/gofiber/fiber/v2"
)

// StatusMapper lets callers register extra domain errors without this
// package knowing about them.
type StatusMapper func(err error) (int, bool)

// ErrorHandlerMiddleware renders every error returned further down the chain
// as an ErrorResponse.
func ErrorHandlerMiddleware(mappers ...StatusMapper) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse(validationErr.Fields))
		}

		code := StatusFor(err, mappers...)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			message = "Internal server error"
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

func StatusFor(err error, mappers ...StatusMapper) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, contract.ErrNodeNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, contract.ErrDuplicateNode), errors.Is(err, multisite.ErrCycle):
		return fiber.StatusConflict
	case errors.Is(err, multisite.ErrUnknownKind):
		return fiber.StatusBadRequest
	case errors.Is(err, multisite.ErrConfiguration):
		return fiber.StatusInternalServerError
	}
	for _, m := range mappers {
		if code, ok := m(err); ok {
			return code
		}
	}
	return fiber.StatusInternalServerError
}
