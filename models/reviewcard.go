package models

import (
	"time"

	"github.com/andrewpaige1/flashcards-api/review"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewCard is a personal front/back card that carries spaced-repetition state.
// LastReviewed and NextReview stay nil until the first review.
type ReviewCard struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	Front        string            `gorm:"not null;size:2000" json:"front"`
	Back         string            `gorm:"size:4000" json:"back"`
	Category     string            `gorm:"size:100" json:"category"`
	UserID       string            `gorm:"not null;size:36;index" json:"user_id"`
	User         *User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Difficulty   review.Difficulty `gorm:"size:10" json:"difficulty,omitempty"`
	LastReviewed *time.Time        `json:"last_reviewed"`
	NextReview   *time.Time        `gorm:"index" json:"next_review"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (c *ReviewCard) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
