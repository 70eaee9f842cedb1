package handlers

import (
	"miromiro/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SetupHandler handles one-off provisioning endpoints.
type SetupHandler struct {
	profileService *services.ProfileService
}

// NewSetupHandler creates a new SetupHandler.
func NewSetupHandler(profileService *services.ProfileService) *SetupHandler {
	return &SetupHandler{
		profileService: profileService,
	}
}

// RegisterRoutes registers the setup routes; they require a session.
func (h *SetupHandler) RegisterRoutes(router fiber.Router, sessionRequired fiber.Handler) {
	setupRoutes := router.Group("/setup", sessionRequired)
	setupRoutes.Post("/storage", h.HandleStorageSetup)
}

// HandleStorageSetup ensures the avatars bucket exists with its public
// visibility, size cap, and MIME whitelist.
func (h *SetupHandler) HandleStorageSetup(c *fiber.Ctx) error {
	created, err := h.profileService.EnsureAvatarBucket()
	if err != nil {
		return respondError(c, err)
	}

	message := "Storage bucket already exists"
	if created {
		message = "Storage bucket created successfully"
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"bucket":  services.AvatarBucket,
	})
}
