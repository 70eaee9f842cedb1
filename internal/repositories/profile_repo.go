package repositories

import "miromiro/internal/models"

// ProfileRepository defines data access for application profiles.
type ProfileRepository interface {
	Create(profile *models.Profile) error
	GetByID(id string) (*models.Profile, error)
	// UpdateFields applies a partial column update to the row with the given
	// id and returns the row as stored afterwards.
	UpdateFields(id string, fields map[string]any) (*models.Profile, error)
}
