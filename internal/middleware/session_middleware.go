package middleware

import (
	"log"
	"strings"

	"miromiro/internal/identity"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "mm_session"

// SessionRequired resolves the caller's session from the session cookie,
// falling back to a Bearer Authorization header, and stores the account on
// the request context. Requests without a valid session get a 401.
func SessionRequired(provider identity.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			authHeader := c.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"statusCode":    fiber.StatusUnauthorized,
				"statusMessage": "Unauthorized - no user session",
			})
		}

		user, err := provider.UserBySession(token)
		if err != nil {
			log.Printf("Session validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"statusCode":    fiber.StatusUnauthorized,
				"statusMessage": "Unauthorized - no user session",
			})
		}

		c.Locals("user", user)
		c.Locals("user_id", user.ID)

		return c.Next()
	}
}
