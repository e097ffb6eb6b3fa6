package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Upload records an image written to the object store.
type Upload struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Key         string    `gorm:"not null;size:300;uniqueIndex" json:"path"`
	PublicURL   string    `gorm:"not null;size:1000;index" json:"public_url"`
	ContentType string    `gorm:"size:100" json:"content_type"`
	Size        int64     `json:"size"`
	UserID      string    `gorm:"not null;size:36;index" json:"user_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (u *Upload) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
