package handlers

import (
	"log"

	"miromiro/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error to the transport. Tagged errors carry
// their own status and message; anything else surfaces as a 500.
func respondError(c *fiber.Ctx, err error) error {
	status := apperr.Status(err)
	message := apperr.Message(err, "Internal server error")
	log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(status).JSON(fiber.Map{
		"statusCode":    status,
		"statusMessage": message,
	})
}

// respondBadRequest is the shortcut for handler-level input rejections.
func respondBadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"statusCode":    fiber.StatusBadRequest,
		"statusMessage": message,
	})
}
