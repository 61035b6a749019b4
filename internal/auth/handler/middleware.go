package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/razorvilla/calendar-app-sub001/internal/auth/service"
)

const (
	localUserID = "userID"
	localEmail  = "email"
)

// RequireAuth validates the bearer access token and stores the caller's
// identity in the request locals. Access token validation is stateless; no
// store lookup happens here.
func RequireAuth(tokenService service.TokenGenerator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}

		claims, err := tokenService.VerifyAccessToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localEmail, claims.Email)

		return c.Next()
	}
}

func authenticatedUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals(localUserID).(string); ok {
		return id
	}
	return ""
}
