package repositories

import "miromiro/internal/models"

// UserRepository defines data access for identity account records.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	Update(user *models.User) error
}
