package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a user in the system. Email is set for password accounts,
// Auth0ID for accounts synced from Auth0 bearer tokens.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        *string   `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	Auth0ID      *string   `gorm:"size:255;uniqueIndex" json:"-"`
	Nickname     string    `gorm:"size:100" json:"nickname,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	FlashcardSets []FlashcardSet `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
