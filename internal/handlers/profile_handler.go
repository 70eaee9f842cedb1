package handlers

import (
	"io"
	"mime/multipart"

	"miromiro/internal/apperr"
	"miromiro/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProfileHandler handles HTTP requests for profile mutation.
type ProfileHandler struct {
	profileService *services.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// RegisterRoutes registers the profile routes; all of them require a session.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router, sessionRequired fiber.Handler) {
	profileRoutes := router.Group("/profile", sessionRequired)
	profileRoutes.Post("/update", h.HandleUpdate)
	profileRoutes.Post("/upload-avatar", h.HandleUploadAvatar)
}

// UpdateProfileRequest is the profile update request body. Pointer fields
// distinguish "not supplied" from an explicit empty string.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	AvatarURL *string `json:"avatar_url"`
}

// HandleUpdate applies a partial profile update for the caller.
func (h *ProfileHandler) HandleUpdate(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return respondError(c, apperr.Unauthorized("Unauthorized"))
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}

	profile, err := h.profileService.UpdateProfile(userID, services.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"profile": profile,
	})
}

// HandleUploadAvatar accepts a single multipart image, replaces the caller's
// stored avatar object, and writes the new public URL into the profile.
func (h *ProfileHandler) HandleUploadAvatar(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return respondError(c, apperr.Unauthorized("Unable to get user ID"))
	}

	fileHeader, err := formFile(c)
	if err != nil {
		return respondBadRequest(c, "No file uploaded")
	}

	// Size is rejected from the part header so an oversized body is never
	// read into memory, let alone shipped to the object store.
	if fileHeader.Size > services.MaxAvatarSize {
		return respondBadRequest(c, "File too large. Maximum size is 5MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondBadRequest(c, "No file uploaded")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return respondError(c, apperr.Internal("Failed to read uploaded file", err))
	}

	avatarURL, profile, err := h.profileService.UploadAvatar(userID, services.AvatarUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"avatar_url": avatarURL,
		"profile":    profile,
	})
}

// formFile picks the uploaded file: the conventional "file" field when
// present, otherwise the first file of any field.
func formFile(c *fiber.Ctx) (*multipart.FileHeader, error) {
	if fileHeader, err := c.FormFile("file"); err == nil {
		return fileHeader, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	for _, headers := range form.File {
		if len(headers) > 0 {
			return headers[0], nil
		}
	}
	return nil, fiber.ErrBadRequest
}
