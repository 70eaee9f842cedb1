package models

import "time"

// User is an identity-provider account record. It is created on signup and
// read by handlers; application code never mutates it directly.
type User struct {
	ID           string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string         `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password     string         `json:"-" gorm:"type:varchar(255)"` // bcrypt hash
	Metadata     map[string]any `json:"user_metadata" gorm:"serializer:json"`
	ConfirmedAt  *time.Time     `json:"confirmed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	LastSignInAt *time.Time     `json:"last_sign_in_at"`
}

// MetadataString returns the string value stored under key, or "" when the
// key is absent or not a string.
func (u *User) MetadataString(key string) string {
	if u.Metadata == nil {
		return ""
	}
	if v, ok := u.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// MetadataBool returns the bool value stored under key, defaulting to false.
func (u *User) MetadataBool(key string) bool {
	if u.Metadata == nil {
		return false
	}
	if v, ok := u.Metadata[key].(bool); ok {
		return v
	}
	return false
}

// MetadataInt returns the numeric value stored under key as an int. JSON
// round-trips store numbers as float64, so both forms are accepted.
func (u *User) MetadataInt(key string) int {
	if u.Metadata == nil {
		return 0
	}
	switch v := u.Metadata[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
