package models

import "time"

// WaitlistEntry is a pre-registration row keyed by normalized email. The
// unique index backs up the application-level existence check, so two
// concurrent submissions cannot both commit.
type WaitlistEntry struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	CreatedAt time.Time `json:"created_at"`
}
