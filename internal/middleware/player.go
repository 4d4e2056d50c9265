package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	PlayerIDHeader = "X-Player-ID"
	playerIDQuery  = "playerId"
)

// EnsurePlayerID resolves the caller's player id from the X-Player-ID header, falling back to
// the playerId query parameter (browsers cannot set headers on websocket upgrades).
func EnsurePlayerID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals("playerID").(string); ok && id != "" {
			return c.Next()
		}

		playerID := c.Get(PlayerIDHeader)
		if playerID == "" {
			playerID = c.Query(playerIDQuery)
		}

		if playerID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Player ID is required. Please ensure client is properly initialized.",
			})
		}

		// c.Get and c.Query alias the request buffer, which fasthttp reuses for later requests.
		// The id outlives this request as a seat, queue entry and map key.
		c.Locals("playerID", utils.CopyString(playerID))
		return c.Next()
	}
}
