package handlers

import (
	"time"

	"miromiro/internal/apperr"
	"miromiro/internal/middleware"
	"miromiro/internal/models"
	"miromiro/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for account signup and sessions.
type AuthHandler struct {
	authService    *services.AuthService
	profileService *services.ProfileService
	validate       *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, profileService *services.ProfileService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the auth routes. sessionRequired guards the
// endpoints that need an authenticated caller.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, sessionRequired fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/signup", h.HandleSignup)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/resend-confirmation", h.HandleResendConfirmation)
	authRoutes.Post("/ensure-profile", sessionRequired, h.HandleEnsureProfile)
}

// SignupRequest is the signup request body.
type SignupRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

// HandleSignup creates a new account. Waitlisted emails get the discount
// flags stamped into the account metadata.
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}

	req.Email = services.NormalizeEmail(req.Email)
	if err := h.validate.Struct(req); err != nil {
		return respondBadRequest(c, "Invalid email address")
	}

	result, err := h.authService.RegisterAccount(req.Email, req.Password, c.BaseURL())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Account created successfully",
		"user": fiber.Map{
			"id":                    result.User.ID,
			"email":                 result.User.Email,
			"has_waitlist_discount": result.HasWaitlistDiscount,
			"discount_percentage":   result.DiscountPercentage,
		},
	})
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and sets the session cookie the
// authenticated endpoints consume. The token is also returned in the body
// for clients using the Authorization header instead.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}

	req.Email = services.NormalizeEmail(req.Email)
	if err := h.validate.Struct(req); err != nil {
		return respondBadRequest(c, "Invalid email address")
	}

	token, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// ResendConfirmationRequest is the resend-confirmation request body.
type ResendConfirmationRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// HandleResendConfirmation asks the identity provider to re-send the signup
// confirmation email, redirecting back to this request's origin.
func (h *AuthHandler) HandleResendConfirmation(c *fiber.Ctx) error {
	var req ResendConfirmationRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}

	req.Email = services.NormalizeEmail(req.Email)
	if err := h.validate.Struct(req); err != nil {
		return respondBadRequest(c, "Invalid email address")
	}

	if err := h.authService.ResendConfirmation(req.Email, c.BaseURL()); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Confirmation email resent successfully",
	})
}

// HandleEnsureProfile idempotently provisions the caller's profile row from
// the authoritative user metadata.
func (h *AuthHandler) HandleEnsureProfile(c *fiber.Ctx) error {
	user, _ := c.Locals("user").(*models.User)
	if user == nil {
		return respondError(c, apperr.Unauthorized("Unauthorized - no user session"))
	}

	profile, message, err := h.profileService.EnsureProfile(user.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"profile": profile,
		"message": message,
	})
}
