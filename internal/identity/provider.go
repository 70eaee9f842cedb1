// Package identity abstracts the auth provider: account creation, session
// resolution, and confirmation mail. Handlers and services depend on the
// Provider interface only.
package identity

import "miromiro/internal/models"

// SignUpParams carries everything the provider needs to create an account.
// Metadata is an arbitrary key-value bag stored on the account record.
type SignUpParams struct {
	Email      string
	Password   string
	RedirectTo string
	Metadata   map[string]any
}

// Provider is the identity collaborator consumed by the HTTP layer.
type Provider interface {
	// SignUp creates an account and sends a confirmation email.
	SignUp(params SignUpParams) (*models.User, error)
	// ResendConfirmation re-sends the signup confirmation email.
	ResendConfirmation(email, redirectTo string) error
	// PasswordLogin verifies credentials and returns a session token.
	PasswordLogin(email, password string) (string, *models.User, error)
	// UserBySession resolves a session token to its account record.
	UserBySession(token string) (*models.User, error)
	// UserByID fetches the authoritative account record.
	UserByID(id string) (*models.User, error)
}
