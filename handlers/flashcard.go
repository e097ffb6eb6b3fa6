package handlers

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/andrewpaige1/flashcards-api/models"
	"github.com/andrewpaige1/flashcards-api/utils"
)

type flashcardRequest struct {
	// Only read by the legacy body-addressed routes.
	ID             string  `json:"id"`
	FlashcardSetID string  `json:"flashcard_set_id"`
	QuestionText   *string `json:"question_text"`
	AnswerText     *string `json:"answer_text"`
	ImageURL       *string `json:"image_url"`
	Order          *int    `json:"order"`
}

// ownedSetIDs is a subquery of the ids of every set userID owns.
func (db *DBHandler) ownedSetIDs(userID string) *gorm.DB {
	return db.Model(&models.FlashcardSet{}).Select("id").Where("user_id = ?", userID)
}

// nextOrder is one past the highest order in the set.
func nextOrder(tx *gorm.DB, setID string) (int, error) {
	var highest sql.NullInt64
	err := tx.Model(&models.Flashcard{}).
		Select(`MAX("order")`).
		Where("flashcard_set_id = ?", setID).
		Row().Scan(&highest)
	if err != nil {
		return 0, err
	}
	if !highest.Valid {
		return 0, nil
	}
	return int(highest.Int64) + 1, nil
}

// POST /api/flashcards
func (db *DBHandler) CreateFlashcard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req flashcardRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("CreateFlashcard: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FlashcardSetID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing flashcard_set_id")
		return
	}

	ctx := r.Context()
	var set models.FlashcardSet
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", req.FlashcardSetID, user.ID).First(&set).Error
	if isNotFound(err) {
		log.Debug().Str("set_id", req.FlashcardSetID).Str("user_id", user.ID).Msg("CreateFlashcard: set not found or not owned")
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("set_id", req.FlashcardSetID).Msg("CreateFlashcard: failed to check set")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	card := models.Flashcard{FlashcardSetID: set.ID}
	applyFlashcardFields(&card, req)
	if req.Order == nil {
		order, err := nextOrder(db.WithContext(ctx), set.ID)
		if err != nil {
			log.Error().Err(err).Str("set_id", set.ID).Msg("CreateFlashcard: failed to compute order")
			utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		card.Order = order
	}

	if err := db.WithContext(ctx).Create(&card).Error; err != nil {
		log.Error().Err(err).Str("set_id", set.ID).Msg("CreateFlashcard: failed to create flashcard")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, card)
}

// GET /api/flashcards/{id}
func (db *DBHandler) GetFlashcardByID(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var card models.Flashcard
	err := db.WithContext(r.Context()).Preload("FlashcardSet").Where("id = ?", id).First(&card).Error
	if isNotFound(err) {
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("flashcard_id", id).Msg("GetFlashcardByID: failed to load flashcard")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if card.FlashcardSet == nil || card.FlashcardSet.UserID != user.ID {
		log.Debug().Str("flashcard_id", id).Str("user_id", user.ID).Msg("GetFlashcardByID: user does not own this flashcard")
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	utils.WriteJSON(w, http.StatusOK, card)
}

// PUT /api/flashcards/{id}
func (db *DBHandler) UpdateFlashcardByID(w http.ResponseWriter, r *http.Request) {
	var req flashcardRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("UpdateFlashcardByID: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	db.updateFlashcard(w, r, r.PathValue("id"), req)
}

// PUT /api/flashcards, addressed by the id in the body.
func (db *DBHandler) UpdateFlashcardFromBody(w http.ResponseWriter, r *http.Request) {
	var req flashcardRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("UpdateFlashcardFromBody: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing id")
		return
	}
	db.updateFlashcard(w, r, req.ID, req)
}

func (db *DBHandler) updateFlashcard(w http.ResponseWriter, r *http.Request, id string, req flashcardRequest) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	card, err := db.ownedFlashcard(r.Context(), id, user.ID)
	if isNotFound(err) {
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("flashcard_id", id).Msg("UpdateFlashcard: failed to load flashcard")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	applyFlashcardFields(card, req)
	if err := db.WithContext(r.Context()).Save(card).Error; err != nil {
		log.Error().Err(err).Str("flashcard_id", id).Msg("UpdateFlashcard: failed to update flashcard")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, card)
}

// DELETE /api/flashcards/{id}
func (db *DBHandler) DeleteFlashcardByID(w http.ResponseWriter, r *http.Request) {
	db.deleteFlashcard(w, r, r.PathValue("id"))
}

// DELETE /api/flashcards, addressed by the id in the body.
func (db *DBHandler) DeleteFlashcardFromBody(w http.ResponseWriter, r *http.Request) {
	var req flashcardRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("DeleteFlashcardFromBody: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing id")
		return
	}
	db.deleteFlashcard(w, r, req.ID)
}

func (db *DBHandler) deleteFlashcard(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result := db.WithContext(r.Context()).
		Where("id = ? AND flashcard_set_id IN (?)", id, db.ownedSetIDs(user.ID)).
		Delete(&models.Flashcard{})
	if result.Error != nil {
		log.Error().Err(result.Error).Str("flashcard_id", id).Msg("DeleteFlashcard: failed to delete flashcard")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeSuccess(w)
}

func (db *DBHandler) ownedFlashcard(ctx context.Context, id, userID string) (*models.Flashcard, error) {
	var card models.Flashcard
	err := db.WithContext(ctx).
		Where("id = ? AND flashcard_set_id IN (?)", id, db.ownedSetIDs(userID)).
		First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func applyFlashcardFields(card *models.Flashcard, req flashcardRequest) {
	if req.QuestionText != nil {
		card.QuestionText = *req.QuestionText
	}
	if req.AnswerText != nil {
		card.AnswerText = *req.AnswerText
	}
	if req.ImageURL != nil {
		card.ImageURL = *req.ImageURL
	}
	if req.Order != nil {
		card.Order = *req.Order
	}
}
