package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andrewpaige1/flashcards-api/models"
	"github.com/andrewpaige1/flashcards-api/review"
	"github.com/andrewpaige1/flashcards-api/utils"
)

type reviewCardRequest struct {
	Front    *string `json:"front"`
	Back     *string `json:"back"`
	Category *string `json:"category"`
}

type reviewRequest struct {
	Difficulty string `json:"difficulty"`
}

// GET /api/review-cards
func (db *DBHandler) GetReviewCards(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	cards := []models.ReviewCard{}
	err := db.WithContext(r.Context()).Where("user_id = ?", user.ID).Order("created_at desc").Find(&cards).Error
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("GetReviewCards: failed to load cards")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, cards)
}

// GET /api/review-cards/due
func (db *DBHandler) GetDueReviewCards(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	// Cards never reviewed have no next_review and are not due.
	cards := []models.ReviewCard{}
	err := db.WithContext(r.Context()).
		Where("user_id = ? AND next_review <= ?", user.ID, db.now()).
		Order("next_review asc").
		Find(&cards).Error
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("GetDueReviewCards: failed to load cards")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, cards)
}

// POST /api/review-cards
func (db *DBHandler) CreateReviewCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req reviewCardRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("CreateReviewCard: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Front == nil || strings.TrimSpace(*req.Front) == "" {
		utils.WriteError(w, http.StatusBadRequest, "Front is required")
		return
	}

	card := models.ReviewCard{UserID: user.ID}
	applyReviewCardFields(&card, req)

	if err := db.WithContext(r.Context()).Create(&card).Error; err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("CreateReviewCard: failed to create card")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, card)
}

// PUT /api/review-cards/{id}
func (db *DBHandler) UpdateReviewCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var req reviewCardRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("UpdateReviewCard: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Front != nil && strings.TrimSpace(*req.Front) == "" {
		utils.WriteError(w, http.StatusBadRequest, "Front is required")
		return
	}

	var card models.ReviewCard
	err := db.WithContext(r.Context()).Where("id = ? AND user_id = ?", id, user.ID).First(&card).Error
	if isNotFound(err) {
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("review_card_id", id).Msg("UpdateReviewCard: failed to load card")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	applyReviewCardFields(&card, req)
	if err := db.WithContext(r.Context()).Save(&card).Error; err != nil {
		log.Error().Err(err).Str("review_card_id", id).Msg("UpdateReviewCard: failed to update card")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, card)
}

// DELETE /api/review-cards/{id}
func (db *DBHandler) DeleteReviewCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	result := db.WithContext(r.Context()).Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.ReviewCard{})
	if result.Error != nil {
		log.Error().Err(result.Error).Str("review_card_id", id).Msg("DeleteReviewCard: failed to delete card")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeSuccess(w)
}

// POST /api/review-cards/{id}/review records a difficulty rating and
// schedules the next review.
func (db *DBHandler) ReviewCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("ReviewCard: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	difficulty, err := review.ParseDifficulty(req.Difficulty)
	if errors.Is(err, review.ErrInvalidDifficulty) {
		utils.WriteError(w, http.StatusBadRequest, "Difficulty must be easy, medium or hard")
		return
	}

	var card models.ReviewCard
	err = db.WithContext(r.Context()).Where("id = ? AND user_id = ?", id, user.ID).First(&card).Error
	if isNotFound(err) {
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("review_card_id", id).Msg("ReviewCard: failed to load card")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	lastReviewed, nextReview := review.Schedule(db.now(), difficulty)
	card.Difficulty = difficulty
	card.LastReviewed = &lastReviewed
	card.NextReview = &nextReview

	err = db.WithContext(r.Context()).Model(&card).
		Where("user_id = ?", user.ID).
		Select("difficulty", "last_reviewed", "next_review", "updated_at").
		Updates(&card).Error
	if err != nil {
		log.Error().Err(err).Str("review_card_id", id).Msg("ReviewCard: failed to save review")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	log.Debug().Str("review_card_id", id).Str("difficulty", difficulty.String()).Time("next_review", nextReview).Msg("ReviewCard: scheduled next review")
	utils.WriteJSON(w, http.StatusOK, card)
}

func applyReviewCardFields(card *models.ReviewCard, req reviewCardRequest) {
	if req.Front != nil {
		card.Front = strings.TrimSpace(*req.Front)
	}
	if req.Back != nil {
		card.Back = *req.Back
	}
	if req.Category != nil {
		card.Category = *req.Category
	}
}
