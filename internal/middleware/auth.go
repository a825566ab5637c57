package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const UserIDKey = "userID"

// TokenValidator verifies a bearer token and returns the user id.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// JWTAuth guards REST routes. On success the authenticated user id is
// stored in the request locals under UserIDKey.
func JWTAuth(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "missing authorization"})
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "invalid authorization"})
		}
		uid, err := tokens.Validate(parts[1])
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "invalid token"})
		}
		c.Locals(UserIDKey, uid)
		return c.Next()
	}
}

// UserID reads the authenticated user id set by JWTAuth.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(UserIDKey).(string)
	return uid
}
