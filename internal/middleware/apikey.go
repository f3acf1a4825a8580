package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/httperr"
)

// APIKeyHeader is the credential header the error/query surface requires
const APIKeyHeader = "X-API-Key"

// APIKey guards a route group with a shared API key. The comparison is
// constant-time. A missing header is 401, a wrong key 403.
func APIKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		supplied := c.Get(APIKeyHeader)
		if supplied == "" {
			return httperr.Respond(c, httperr.Auth(fiber.StatusUnauthorized, "API key is required"))
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
			return httperr.Respond(c, httperr.Auth(fiber.StatusForbidden, "invalid API key"))
		}
		return c.Next()
	}
}
