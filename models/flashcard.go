package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Flashcard represents an individual flashcard
type Flashcard struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	QuestionText string `gorm:"not null;size:2000" json:"question_text"`
	AnswerText   string `gorm:"size:4000" json:"answer_text"`
	ImageURL     string `gorm:"size:1000" json:"image_url"`
	// Display position inside the set. Not unique.
	Order int `gorm:"column:order;default:0" json:"order"`

	FlashcardSetID string        `gorm:"not null;size:36;index" json:"flashcard_set_id"`
	FlashcardSet   *FlashcardSet `gorm:"foreignKey:FlashcardSetID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Flashcard) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
