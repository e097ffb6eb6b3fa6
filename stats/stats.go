// Package stats answers dashboard queries with hand-written SQL.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Dashboard summarizes what a user owns and what is due for review.
type Dashboard struct {
	SetCount        int `db:"set_count" json:"set_count"`
	PublicSetCount  int `db:"public_set_count" json:"public_set_count"`
	FlashcardCount  int `db:"flashcard_count" json:"flashcard_count"`
	ReviewCardCount int `db:"review_card_count" json:"review_card_count"`
	DueCount        int `db:"due_count" json:"due_count"`
}

// Repository shares the connection pool opened by gorm.
type Repository struct {
	db *sqlx.DB
}

// New wraps an open pool. driverName selects the bind variable style.
func New(db *sql.DB, driverName string) *Repository {
	return &Repository{db: sqlx.NewDb(db, driverName)}
}

const dashboardQuery = `
	SELECT
		(SELECT COUNT(*) FROM flashcard_sets WHERE user_id = ?) AS set_count,
		(SELECT COUNT(*) FROM flashcard_sets WHERE user_id = ? AND is_public = ?) AS public_set_count,
		(SELECT COUNT(*) FROM flashcards f
			JOIN flashcard_sets s ON s.id = f.flashcard_set_id
			WHERE s.user_id = ?) AS flashcard_count,
		(SELECT COUNT(*) FROM review_cards WHERE user_id = ?) AS review_card_count,
		(SELECT COUNT(*) FROM review_cards
			WHERE user_id = ? AND next_review IS NOT NULL AND next_review <= ?) AS due_count
`

func (r *Repository) Dashboard(ctx context.Context, userID string, now time.Time) (*Dashboard, error) {
	var d Dashboard
	query := r.db.Rebind(dashboardQuery)
	err := r.db.GetContext(ctx, &d, query, userID, userID, true, userID, userID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return &d, nil
}
