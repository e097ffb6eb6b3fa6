package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrewpaige1/flashcards-api/middleware"
	"github.com/andrewpaige1/flashcards-api/models"
	"github.com/andrewpaige1/flashcards-api/utils"
)

const slugAttempts = 5

var errSlugUnavailable = errors.New("could not find a free slug")

type setRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	IsPublic      *bool   `json:"is_public"`
	IsPublicCamel *bool   `json:"isPublic"`
}

// visibility returns the requested public flag. Older clients send it as
// isPublic; is_public wins when both are present.
func (req setRequest) visibility() *bool {
	if req.IsPublic != nil {
		return req.IsPublic
	}
	return req.IsPublicCamel
}

type setResponse struct {
	models.FlashcardSet
	IsOwner bool `json:"is_owner"`
}

// byOrder sorts preloaded flashcards into display order.
func byOrder(tx *gorm.DB) *gorm.DB {
	return tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).Order("created_at")
}

// GET /api/flashcard-sets
func (db *DBHandler) GetPublicSets(w http.ResponseWriter, r *http.Request) {
	sets := []models.FlashcardSet{}
	err := db.WithContext(r.Context()).
		Preload("Flashcards", byOrder).
		Where("is_public = ?", true).
		Order("created_at desc").
		Find(&sets).Error
	if err != nil {
		log.Error().Err(err).Msg("GetPublicSets: failed to load sets")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, sets)
}

// GET /api/users/me/flashcard-sets
func (db *DBHandler) GetMySets(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	sets := []models.FlashcardSet{}
	err := db.WithContext(r.Context()).
		Preload("Flashcards", byOrder).
		Where("user_id = ?", user.ID).
		Order("created_at desc").
		Find(&sets).Error
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("GetMySets: failed to load sets")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, sets)
}

// GET /api/flashcard-sets/{slug}
func (db *DBHandler) GetSetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var set models.FlashcardSet
	err := db.WithContext(r.Context()).Preload("Flashcards", byOrder).Where("slug = ?", slug).First(&set).Error
	if isNotFound(err) {
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("GetSetBySlug: failed to load set")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user, ok := middleware.CurrentUser(r)
	isOwner := ok && user.ID == set.UserID

	// Private sets are invisible to everyone but their owner.
	if !set.IsPublic && !isOwner {
		log.Debug().Str("slug", slug).Msg("GetSetBySlug: private set requested by non-owner")
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}

	utils.WriteJSON(w, http.StatusOK, setResponse{FlashcardSet: set, IsOwner: isOwner})
}

// POST /api/flashcard-sets
func (db *DBHandler) CreateFlashcardSet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req setRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("CreateFlashcardSet: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		utils.WriteError(w, http.StatusBadRequest, "Title is required")
		return
	}
	title := strings.TrimSpace(*req.Title)

	slug, err := db.uniqueSlug(r.Context(), title)
	if err != nil {
		log.Error().Err(err).Str("title", title).Msg("CreateFlashcardSet: failed to pick slug")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	set := models.FlashcardSet{
		Title:  title,
		Slug:   slug,
		UserID: user.ID,
	}
	if req.Description != nil {
		set.Description = *req.Description
	}
	if public := req.visibility(); public != nil {
		set.IsPublic = *public
	}

	if err := db.WithContext(r.Context()).Create(&set).Error; err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("CreateFlashcardSet: failed to create set")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	log.Info().Str("slug", set.Slug).Str("user_id", user.ID).Msg("CreateFlashcardSet: created set")
	utils.WriteJSON(w, http.StatusCreated, set)
}

// uniqueSlug derives a slug from title, adding a random suffix while the
// plain one is taken.
func (db *DBHandler) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := utils.Slugify(title)
	slug := base
	if slug == "" {
		slug = "set"
		base = "set"
	}

	for i := 0; i < slugAttempts; i++ {
		var count int64
		if err := db.WithContext(ctx).Model(&models.FlashcardSet{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		next, err := utils.SlugWithSuffix(base)
		if err != nil {
			return "", err
		}
		slug = next
	}
	return "", errSlugUnavailable
}

// PUT /api/flashcard-sets/{slug}
func (db *DBHandler) UpdateSetBySlug(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	slug := r.PathValue("slug")

	var req setRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("UpdateSetBySlug: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		utils.WriteError(w, http.StatusBadRequest, "Title is required")
		return
	}

	var set models.FlashcardSet
	err := db.WithContext(r.Context()).Where("slug = ? AND user_id = ?", slug, user.ID).First(&set).Error
	if isNotFound(err) {
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("UpdateSetBySlug: failed to load set")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	// Renaming keeps the slug.
	if req.Title != nil {
		set.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		set.Description = *req.Description
	}
	if public := req.visibility(); public != nil {
		set.IsPublic = *public
	}

	if err := db.WithContext(r.Context()).Save(&set).Error; err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("UpdateSetBySlug: failed to update set")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, set)
}

// DELETE /api/flashcard-sets/{slug}
func (db *DBHandler) DeleteSetBySlug(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	slug := r.PathValue("slug")

	err := db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var set models.FlashcardSet
		if err := tx.Where("slug = ? AND user_id = ?", slug, user.ID).First(&set).Error; err != nil {
			return err
		}
		if err := tx.Where("flashcard_set_id = ?", set.ID).Delete(&models.Flashcard{}).Error; err != nil {
			return err
		}
		return tx.Delete(&set).Error
	})
	if isNotFound(err) {
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("DeleteSetBySlug: failed to delete set")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	log.Info().Str("slug", slug).Str("user_id", user.ID).Msg("DeleteSetBySlug: deleted set")
	writeSuccess(w)
}
