package handlers

import (
	"fmt"

	"miromiro/internal/apperr"
	"miromiro/internal/mail"

	"github.com/gofiber/fiber/v2"
)

// MailHandler exposes the mail-dispatch test endpoint.
type MailHandler struct {
	mailer        mail.Mailer
	testRecipient string
}

// NewMailHandler creates a new MailHandler. testRecipient is the fixed
// address the test message goes to.
func NewMailHandler(mailer mail.Mailer, testRecipient string) *MailHandler {
	return &MailHandler{
		mailer:        mailer,
		testRecipient: testRecipient,
	}
}

// RegisterRoutes registers the sendEmail route for both verbs.
func (h *MailHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/sendEmail", h.HandleSendEmail)
	router.Post("/sendEmail", h.HandleSendEmail)
}

// HandleSendEmail dispatches a fixed test message and reports the result.
func (h *MailHandler) HandleSendEmail(c *fiber.Ctx) error {
	if err := h.mailer.Send(mail.TestMessage(h.testRecipient)); err != nil {
		return respondError(c, apperr.Provider(fiber.StatusInternalServerError, fmt.Sprintf("Failed to send email: %v", err), err))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Test email dispatched",
		"to":      h.testRecipient,
	})
}
