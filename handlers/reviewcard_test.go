package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/andrewpaige1/flashcards-api/models"
	"github.com/andrewpaige1/flashcards-api/review"
)

func createReviewCard(t *testing.T, env *testEnv, cookie *http.Cookie, front string) models.ReviewCard {
	t.Helper()
	rec := env.do(http.MethodPost, "/api/review-cards", map[string]string{"front": front, "back": "back of " + front, "category": "misc"}, cookie)
	expectStatus(t, rec, http.StatusCreated)
	var card models.ReviewCard
	decode(t, rec, &card)
	return card
}

func TestCreateReviewCard(t *testing.T) {
	env := newTestEnv(t)
	user, cookie := env.signIn("me@example.com")

	expectError(t, env.do(http.MethodPost, "/api/review-cards", map[string]string{"back": "b"}, cookie),
		http.StatusBadRequest, "Front is required")

	card := createReviewCard(t, env, cookie, "hola")
	if card.UserID != user.ID || card.Front != "hola" || card.Category != "misc" {
		t.Fatalf("card = %+v", card)
	}
	if card.LastReviewed != nil || card.NextReview != nil {
		t.Fatalf("new card already scheduled: %+v", card)
	}
}

func TestReviewCardSchedules(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.signIn("me@example.com")
	_, other := env.signIn("other@example.com")
	card := createReviewCard(t, env, cookie, "gato")
	path := "/api/review-cards/" + card.ID + "/review"

	expectError(t, env.do(http.MethodPost, path, map[string]string{"difficulty": "impossible"}, cookie),
		http.StatusBadRequest, "Difficulty must be easy, medium or hard")
	expectError(t, env.do(http.MethodPost, path, map[string]string{"difficulty": "easy"}, other),
		http.StatusNotFound, "Not Found")

	tests := []struct {
		difficulty string
		days       int
	}{
		{"easy", 7},
		{"medium", 3},
		{"Hard", 1},
	}
	for _, tt := range tests {
		t.Run(tt.difficulty, func(t *testing.T) {
			rec := env.do(http.MethodPost, path, map[string]string{"difficulty": tt.difficulty}, cookie)
			expectStatus(t, rec, http.StatusOK)

			var stored models.ReviewCard
			if err := env.db.First(&stored, "id = ?", card.ID).Error; err != nil {
				t.Fatalf("reload: %v", err)
			}
			want, _ := review.ParseDifficulty(tt.difficulty)
			if stored.Difficulty != want {
				t.Fatalf("difficulty = %q, want %q", stored.Difficulty, want)
			}
			if stored.LastReviewed == nil || !stored.LastReviewed.Equal(env.now) {
				t.Fatalf("last_reviewed = %v, want %v", stored.LastReviewed, env.now)
			}
			if stored.NextReview == nil || !stored.NextReview.Equal(env.now.AddDate(0, 0, tt.days)) {
				t.Fatalf("next_review = %v, want +%d days", stored.NextReview, tt.days)
			}
		})
	}
}

func TestDueReviewCards(t *testing.T) {
	env := newTestEnv(t)
	user, cookie := env.signIn("me@example.com")
	other, _ := env.signIn("other@example.com")

	at := func(d time.Duration) *time.Time {
		ts := env.now.Add(d)
		return &ts
	}
	cards := []models.ReviewCard{
		{Front: "later", UserID: user.ID, NextReview: at(time.Hour)},
		{Front: "recent", UserID: user.ID, NextReview: at(-time.Hour)},
		{Front: "oldest", UserID: user.ID, NextReview: at(-48 * time.Hour)},
		{Front: "exactly now", UserID: user.ID, NextReview: at(0)},
		{Front: "never reviewed", UserID: user.ID},
		{Front: "someone else", UserID: other.ID, NextReview: at(-time.Hour)},
	}
	for i := range cards {
		if err := env.db.Create(&cards[i]).Error; err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rec := env.do(http.MethodGet, "/api/review-cards/due", nil, cookie)
	expectStatus(t, rec, http.StatusOK)
	var due []models.ReviewCard
	decode(t, rec, &due)

	var fronts []string
	for _, c := range due {
		fronts = append(fronts, c.Front)
	}
	want := []string{"oldest", "recent", "exactly now"}
	if len(fronts) != len(want) {
		t.Fatalf("due = %v, want %v", fronts, want)
	}
	for i := range want {
		if fronts[i] != want[i] {
			t.Fatalf("due = %v, want %v", fronts, want)
		}
	}

	rec = env.do(http.MethodGet, "/api/review-cards", nil, cookie)
	expectStatus(t, rec, http.StatusOK)
	var all []models.ReviewCard
	decode(t, rec, &all)
	if len(all) != 5 {
		t.Fatalf("own cards = %d, want 5", len(all))
	}
}

func TestUpdateAndDeleteReviewCard(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.signIn("me@example.com")
	_, other := env.signIn("other@example.com")
	card := createReviewCard(t, env, cookie, "perro")
	path := "/api/review-cards/" + card.ID

	expectError(t, env.do(http.MethodPut, path, map[string]string{"back": "x"}, other), http.StatusNotFound, "Not Found")
	expectError(t, env.do(http.MethodPut, path, map[string]string{"front": " "}, cookie), http.StatusBadRequest, "Front is required")

	rec := env.do(http.MethodPut, path, map[string]string{"back": "dog"}, cookie)
	expectStatus(t, rec, http.StatusOK)
	var updated models.ReviewCard
	decode(t, rec, &updated)
	if updated.Front != "perro" || updated.Back != "dog" {
		t.Fatalf("updated = %+v", updated)
	}

	expectError(t, env.do(http.MethodDelete, path, nil, other), http.StatusNotFound, "Not Found")
	expectStatus(t, env.do(http.MethodDelete, path, nil, cookie), http.StatusOK)
	expectError(t, env.do(http.MethodDelete, path, nil, cookie), http.StatusNotFound, "Not Found")
}
