package models

import "time"

// Profile is the application-owned user record, keyed by the identity
// provider's user id. At most one row exists per user.
type Profile struct {
	ID                  string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email               string    `json:"email" gorm:"type:varchar(255)"`
	FirstName           string    `json:"first_name" gorm:"type:varchar(100)"`
	LastName            string    `json:"last_name" gorm:"type:varchar(100)"`
	FullName            string    `json:"full_name" gorm:"type:varchar(200)"`
	AvatarURL           string    `json:"avatar_url" gorm:"type:varchar(512)"`
	Plan                string    `json:"plan" gorm:"type:varchar(50)"`
	PremiumStatus       bool      `json:"premium_status"`
	HasWaitlistDiscount bool      `json:"has_waitlist_discount"`
	DiscountPercentage  int       `json:"discount_percentage"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
