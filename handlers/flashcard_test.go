package handlers

import (
	"net/http"
	"testing"

	"github.com/andrewpaige1/flashcards-api/models"
)

func createFlashcard(t *testing.T, env *testEnv, cookie *http.Cookie, body map[string]interface{}) models.Flashcard {
	t.Helper()
	rec := env.do(http.MethodPost, "/api/flashcards", body, cookie)
	expectStatus(t, rec, http.StatusCreated)
	var card models.Flashcard
	decode(t, rec, &card)
	return card
}

func TestCreateFlashcard(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.signIn("owner@example.com")
	_, other := env.signIn("other@example.com")
	set := createSet(t, env, owner, map[string]interface{}{"title": "Capitals"})

	expectError(t, env.do(http.MethodPost, "/api/flashcards", map[string]interface{}{"question_text": "q"}, owner),
		http.StatusBadRequest, "Missing flashcard_set_id")
	expectError(t, env.do(http.MethodPost, "/api/flashcards", map[string]interface{}{"flashcard_set_id": set.ID, "question_text": "q"}, other),
		http.StatusNotFound, "Not Found")
	expectError(t, env.do(http.MethodPost, "/api/flashcards", map[string]interface{}{"flashcard_set_id": set.ID}, nil),
		http.StatusUnauthorized, "Unauthorized")

	first := createFlashcard(t, env, owner, map[string]interface{}{
		"flashcard_set_id": set.ID, "question_text": "France?", "answer_text": "Paris", "image_url": "http://img/1.png",
	})
	if first.ID == "" || first.FlashcardSetID != set.ID || first.AnswerText != "Paris" || first.ImageURL != "http://img/1.png" || first.Order != 0 {
		t.Fatalf("first = %+v", first)
	}

	second := createFlashcard(t, env, owner, map[string]interface{}{"flashcard_set_id": set.ID, "question_text": "Spain?"})
	if second.Order != 1 {
		t.Fatalf("second order = %d, want 1", second.Order)
	}

	explicit := createFlashcard(t, env, owner, map[string]interface{}{"flashcard_set_id": set.ID, "question_text": "Peru?", "order": 10})
	if explicit.Order != 10 {
		t.Fatalf("explicit order = %d, want 10", explicit.Order)
	}
}

func TestFlashcardOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.signIn("owner@example.com")
	_, other := env.signIn("other@example.com")
	set := createSet(t, env, owner, map[string]interface{}{"title": "Private"})
	card := createFlashcard(t, env, owner, map[string]interface{}{"flashcard_set_id": set.ID, "question_text": "Q", "answer_text": "A"})
	path := "/api/flashcards/" + card.ID

	expectError(t, env.do(http.MethodGet, path, nil, other), http.StatusUnauthorized, "Unauthorized")
	expectError(t, env.do(http.MethodGet, "/api/flashcards/missing", nil, owner), http.StatusNotFound, "Not Found")
	expectError(t, env.do(http.MethodPut, path, map[string]interface{}{"answer_text": "hijacked"}, other), http.StatusNotFound, "Not Found")
	expectError(t, env.do(http.MethodDelete, path, nil, other), http.StatusNotFound, "Not Found")
	expectError(t, env.do(http.MethodPut, "/api/flashcards", map[string]interface{}{"id": card.ID, "answer_text": "hijacked"}, other), http.StatusNotFound, "Not Found")
	expectError(t, env.do(http.MethodDelete, "/api/flashcards", map[string]interface{}{"id": card.ID}, other), http.StatusNotFound, "Not Found")

	var stored models.Flashcard
	env.db.First(&stored, "id = ?", card.ID)
	if stored.AnswerText != "A" {
		t.Fatalf("non-owner changed the card: %+v", stored)
	}

	rec := env.do(http.MethodGet, path, nil, owner)
	expectStatus(t, rec, http.StatusOK)
	var got models.Flashcard
	decode(t, rec, &got)
	if got.ID != card.ID || got.QuestionText != "Q" {
		t.Fatalf("got = %+v", got)
	}
}

func TestUpdateFlashcard(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.signIn("owner@example.com")
	set := createSet(t, env, owner, map[string]interface{}{"title": "Words"})
	card := createFlashcard(t, env, owner, map[string]interface{}{"flashcard_set_id": set.ID, "question_text": "Q", "answer_text": "A"})

	rec := env.do(http.MethodPut, "/api/flashcards/"+card.ID, map[string]interface{}{"answer_text": "B", "order": 4}, owner)
	expectStatus(t, rec, http.StatusOK)
	var updated models.Flashcard
	decode(t, rec, &updated)
	if updated.QuestionText != "Q" || updated.AnswerText != "B" || updated.Order != 4 {
		t.Fatalf("updated = %+v", updated)
	}

	rec = env.do(http.MethodPut, "/api/flashcards", map[string]interface{}{"id": card.ID, "question_text": "Q2"}, owner)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &updated)
	if updated.QuestionText != "Q2" || updated.AnswerText != "B" {
		t.Fatalf("legacy update = %+v", updated)
	}

	expectError(t, env.do(http.MethodPut, "/api/flashcards", map[string]interface{}{"question_text": "x"}, owner),
		http.StatusBadRequest, "Missing id")
}

func TestDeleteFlashcard(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.signIn("owner@example.com")
	set := createSet(t, env, owner, map[string]interface{}{"title": "Words"})
	a := createFlashcard(t, env, owner, map[string]interface{}{"flashcard_set_id": set.ID, "question_text": "a"})
	b := createFlashcard(t, env, owner, map[string]interface{}{"flashcard_set_id": set.ID, "question_text": "b"})

	expectStatus(t, env.do(http.MethodDelete, "/api/flashcards/"+a.ID, nil, owner), http.StatusOK)
	expectStatus(t, env.do(http.MethodDelete, "/api/flashcards", map[string]string{"id": b.ID}, owner), http.StatusOK)
	expectError(t, env.do(http.MethodDelete, "/api/flashcards/"+a.ID, nil, owner), http.StatusNotFound, "Not Found")

	var count int64
	env.db.Model(&models.Flashcard{}).Where("flashcard_set_id = ?", set.ID).Count(&count)
	if count != 0 {
		t.Fatalf("%d flashcards left", count)
	}
}
