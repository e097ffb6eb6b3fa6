package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlashcardSet represents a collection of flashcards
type FlashcardSet struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"not null;size:200" json:"title"`
	Description string    `gorm:"size:2000" json:"description"`
	Slug        string    `gorm:"not null;size:220;uniqueIndex" json:"slug"`
	UserID      string    `gorm:"not null;size:36;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	IsPublic    bool      `gorm:"default:false;index" json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Flashcards []Flashcard `gorm:"foreignKey:FlashcardSetID;constraint:OnDelete:CASCADE" json:"flashcards,omitempty"`
}

func (s *FlashcardSet) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
