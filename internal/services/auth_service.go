package services

import (
	"log"
	"strings"

	"miromiro/internal/apperr"
	"miromiro/internal/identity"
	"miromiro/internal/models"
	"miromiro/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

// WaitlistDiscountPercentage is granted to users whose email was on the
// waitlist before they signed up.
const WaitlistDiscountPercentage = 20

// NormalizeEmail lowercases and trims an email address. The operation is
// idempotent; every email stored or compared by this service goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuthService orchestrates account creation and session issuance against the
// identity provider.
type AuthService struct {
	provider     identity.Provider
	waitlistRepo repositories.WaitlistRepository
	profileRepo  repositories.ProfileRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(provider identity.Provider, waitlistRepo repositories.WaitlistRepository, profileRepo repositories.ProfileRepository) *AuthService {
	return &AuthService{
		provider:     provider,
		waitlistRepo: waitlistRepo,
		profileRepo:  profileRepo,
	}
}

// SignupResult is what the signup endpoint reports back to the client.
type SignupResult struct {
	User                *models.User
	HasWaitlistDiscount bool
	DiscountPercentage  int
}

// RegisterAccount normalizes and validates the credentials, computes the
// waitlist discount, and creates the account with the discount flags as
// metadata. origin is the requesting site's origin, used for the
// confirmation redirect.
func (s *AuthService) RegisterAccount(email, password, origin string) (*SignupResult, error) {
	email = NormalizeEmail(email)

	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("Password must be at least 8 characters")
	}

	// Waitlist membership grants the discount. A lookup miss of any kind
	// counts as "not on the waitlist", matching the original behavior.
	isFromWaitlist := false
	if entry, err := s.waitlistRepo.GetByEmail(email); err == nil && entry != nil {
		isFromWaitlist = true
	}
	discountPercentage := 0
	if isFromWaitlist {
		discountPercentage = WaitlistDiscountPercentage
	}

	user, err := s.provider.SignUp(identity.SignUpParams{
		Email:      email,
		Password:   password,
		RedirectTo: origin + "/confirm",
		Metadata: map[string]any{
			"email":                 email,
			"has_waitlist_discount": isFromWaitlist,
			"discount_percentage":   discountPercentage,
		},
	})
	if err != nil {
		return nil, apperr.Provider(fiber.StatusBadRequest, err.Error(), err)
	}
	if user == nil {
		return nil, apperr.Internal("Failed to create user", nil)
	}

	// Stand-in for the handle_new_user_profile database trigger: provision
	// the profile row right after the account exists. The signup itself has
	// already succeeded, so a failure here only gets logged; the
	// ensure-profile endpoint repairs the gap.
	profile := &models.Profile{
		ID:                  user.ID,
		Email:               user.Email,
		Plan:                "free",
		PremiumStatus:       false,
		HasWaitlistDiscount: isFromWaitlist,
		DiscountPercentage:  discountPercentage,
	}
	if err := s.profileRepo.Create(profile); err != nil {
		log.Printf("Failed to provision profile for user %s: %v", user.ID, err)
	}

	return &SignupResult{
		User:                user,
		HasWaitlistDiscount: isFromWaitlist,
		DiscountPercentage:  discountPercentage,
	}, nil
}

// ResendConfirmation asks the identity provider to re-send the signup
// confirmation email with a redirect back to the requesting origin.
func (s *AuthService) ResendConfirmation(email, origin string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return apperr.Validation("Email is required")
	}
	if err := s.provider.ResendConfirmation(email, origin+"/confirm"); err != nil {
		return apperr.Provider(fiber.StatusBadRequest, err.Error(), err)
	}
	return nil
}

// Login verifies credentials and returns the session token the
// authenticated endpoints consume.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, apperr.Validation("Email and password are required")
	}
	token, user, err := s.provider.PasswordLogin(email, password)
	if err != nil {
		return "", nil, apperr.Unauthorized("Invalid login credentials")
	}
	return token, user, nil
}
