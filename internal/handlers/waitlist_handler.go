package handlers

import (
	"miromiro/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// WaitlistHandler handles HTTP requests for waitlist signup.
type WaitlistHandler struct {
	waitlistService *services.WaitlistService
	validate        *validator.Validate
}

// NewWaitlistHandler creates a new WaitlistHandler.
func NewWaitlistHandler(waitlistService *services.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{
		waitlistService: waitlistService,
		validate:        validator.New(),
	}
}

// RegisterRoutes registers the waitlist route.
func (h *WaitlistHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/waitlist", h.HandleJoin)
}

// WaitlistRequest is the waitlist signup request body.
type WaitlistRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// HandleJoin inserts the email into the waitlist and sends the welcome and
// operator-notification emails.
func (h *WaitlistHandler) HandleJoin(c *fiber.Ctx) error {
	var req WaitlistRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}

	req.Email = services.NormalizeEmail(req.Email)
	if err := h.validate.Struct(req); err != nil {
		return respondBadRequest(c, "Invalid email address")
	}

	if _, err := h.waitlistService.Join(req.Email); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Successfully joined the waitlist",
	})
}
