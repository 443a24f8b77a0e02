package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware keeps an incoming request id or assigns a new one.
func RequestIDMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id := ctx.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		ctx.Locals("request_id", id)
		ctx.Set(RequestIDHeader, id)
		return ctx.Next()
	}
}
