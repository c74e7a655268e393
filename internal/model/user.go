package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered identity. The password hash never leaves the
// process: it is excluded from JSON and from default repository lookups.
type User struct {
	ID           string     `json:"id" gorm:"type:char(36);primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:254;not null"`
	Name         string     `json:"name" gorm:"size:100;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	IsActive     bool       `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// BeforeCreate assigns the record ID before the insert.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Public returns the projection safe to embed in responses and token claims.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
