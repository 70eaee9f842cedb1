package repositories

import "miromiro/internal/models"

// WaitlistRepository defines data access for waitlist entries.
type WaitlistRepository interface {
	Create(entry *models.WaitlistEntry) error
	GetByEmail(email string) (*models.WaitlistEntry, error)
}
