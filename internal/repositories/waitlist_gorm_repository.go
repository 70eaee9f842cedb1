package repositories

import (
	"errors"
	"fmt"

	"miromiro/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMWaitlistRepository is a GORM implementation of WaitlistRepository.
type GORMWaitlistRepository struct {
	db *gorm.DB
}

// NewGORMWaitlistRepository creates a new instance of GORMWaitlistRepository.
func NewGORMWaitlistRepository(db *gorm.DB) *GORMWaitlistRepository {
	return &GORMWaitlistRepository{
		db: db,
	}
}

// Create inserts a new waitlist entry. The unique index on email rejects
// concurrent duplicates that slipped past the existence check.
func (r *GORMWaitlistRepository) Create(entry *models.WaitlistEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	return nil
}

// GetByEmail retrieves a waitlist entry by its normalized email.
func (r *GORMWaitlistRepository) GetByEmail(email string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := r.db.First(&entry, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("waitlist entry for %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get waitlist entry for %s: %w", email, err)
	}
	return &entry, nil
}
