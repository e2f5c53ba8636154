package middleware

import (
	authutils "shift-tools-backend/lib/utils/auth-utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// GetUserID telegram id пользователя из токена, 0 если его нет
func GetUserID(ctx *fiber.Ctx) int64 {
	claims := authutils.GetClaims(ctx)
	sub, exist := claims["sub"]
	if !exist {
		return 0
	}
	value, ok := sub.(string)
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func IsStaff(ctx *fiber.Ctx) bool {
	claims := authutils.GetClaims(ctx)
	if staff, exist := claims["staff"]; exist {
		isStaff, ok := staff.(bool)
		return ok && isStaff
	}
	return false
}

func GetUserName(ctx *fiber.Ctx) string {
	claims := authutils.GetClaims(ctx)
	if name, exist := claims["name"]; exist {
		if value, ok := name.(string); ok {
			return value
		}
	}
	return ""
}
