package models

import (
	"strings"

	"gorm.io/gorm"
)

// User represents an application account that can authenticate with the platform.
// Email is the login identity and is stored lowercased.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
	Active       bool `gorm:"not null;default:true"`
	Staff        bool `gorm:"not null;default:false"`
	Superuser    bool `gorm:"not null;default:false"`
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the value is acceptable as a login identity.
func ValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return false
	}
	at := strings.Index(normalized, "@")
	return at > 0 && at < len(normalized)-1
}
