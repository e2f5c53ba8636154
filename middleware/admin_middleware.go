package middleware

import (
	apimodels "shift-tools-backend/models/api"

	"github.com/gofiber/fiber/v2"
)

func StaffRequired() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		if !IsStaff(ctx) {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("операция недоступна"))
		}
		return ctx.Next()
	}
}
