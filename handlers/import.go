package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/andrewpaige1/flashcards-api/importer"
	"github.com/andrewpaige1/flashcards-api/models"
	"github.com/andrewpaige1/flashcards-api/utils"
)

const maxImportSize = 10 << 20

type importResponse struct {
	Imported   int                `json:"imported"`
	Errors     []string           `json:"errors"`
	Flashcards []models.Flashcard `json:"flashcards"`
}

// POST /api/flashcard-sets/{slug}/import
func (db *DBHandler) ImportFlashcards(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	slug := r.PathValue("slug")
	ctx := r.Context()

	var set models.FlashcardSet
	err := db.WithContext(ctx).Where("slug = ? AND user_id = ?", slug, user.ID).First(&set).Error
	if isNotFound(err) {
		utils.WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("ImportFlashcards: failed to load set")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		log.Debug().Err(err).Msg("ImportFlashcards: no file in request")
		utils.WriteError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	parsed, err := importer.Parse(file, header.Filename)
	if errors.Is(err, importer.ErrUnsupportedFormat) {
		utils.WriteError(w, http.StatusBadRequest, "File must be .xlsx or .csv")
		return
	}
	if err != nil {
		log.Debug().Err(err).Str("filename", header.Filename).Msg("ImportFlashcards: failed to parse file")
		utils.WriteError(w, http.StatusBadRequest, "Could not read file")
		return
	}
	if len(parsed.Rows) == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, importResponse{
			Errors:     append([]string{"No flashcards found in file"}, parsed.Errors...),
			Flashcards: []models.Flashcard{},
		})
		return
	}

	cards := make([]models.Flashcard, 0, len(parsed.Rows))
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := nextOrder(tx, set.ID)
		if err != nil {
			return err
		}
		for _, row := range parsed.Rows {
			cards = append(cards, models.Flashcard{
				QuestionText:   row.QuestionText,
				AnswerText:     row.AnswerText,
				ImageURL:       row.ImageURL,
				Order:          order,
				FlashcardSetID: set.ID,
			})
			order++
		}
		return tx.Create(&cards).Error
	})
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("ImportFlashcards: failed to save flashcards")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	errs := parsed.Errors
	if errs == nil {
		errs = []string{}
	}
	log.Info().Str("slug", slug).Int("imported", len(cards)).Int("skipped", len(errs)).Msg("ImportFlashcards: imported file")
	utils.WriteJSON(w, http.StatusCreated, importResponse{
		Imported:   len(cards),
		Errors:     errs,
		Flashcards: cards,
	})
}
