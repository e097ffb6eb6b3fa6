package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/andrewpaige1/flashcards-api/models"
	"github.com/andrewpaige1/flashcards-api/storage"
	"github.com/andrewpaige1/flashcards-api/utils"
)

// Multipart overhead allowed on top of the image itself.
const uploadSlack = 1 << 20

type uploadResponse struct {
	Path      string `json:"path"`
	PublicURL string `json:"public_url"`
}

// POST /api/uploads/images
func (db *DBHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+uploadSlack)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			utils.WriteError(w, http.StatusBadRequest, "File size must be less than 5MB")
			return
		}
		log.Debug().Err(err).Msg("UploadImage: no file in request")
		utils.WriteError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	switch err := storage.ValidateImage(header.Size, contentType); {
	case errors.Is(err, storage.ErrTooLarge):
		utils.WriteError(w, http.StatusBadRequest, "File size must be less than 5MB")
		return
	case errors.Is(err, storage.ErrNotImage):
		utils.WriteError(w, http.StatusBadRequest, "File must be an image")
		return
	}

	key, err := storage.NewImageKey(header.Filename)
	if err != nil {
		log.Error().Err(err).Msg("UploadImage: failed to generate key")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx := r.Context()
	if err := db.Store.Upload(ctx, key, file, header.Size, contentType); err != nil {
		log.Error().Err(err).Str("key", key).Msg("UploadImage: failed to store image")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to upload image")
		return
	}

	upload := models.Upload{
		Key:         key,
		PublicURL:   db.Store.PublicURL(key),
		ContentType: contentType,
		Size:        header.Size,
		UserID:      user.ID,
	}
	if err := db.WithContext(ctx).Create(&upload).Error; err != nil {
		log.Error().Err(err).Str("key", key).Msg("UploadImage: failed to record upload")
		if err := db.Store.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("UploadImage: failed to remove unrecorded image")
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to upload image")
		return
	}

	log.Info().Str("key", key).Str("user_id", user.ID).Int64("size", header.Size).Msg("UploadImage: stored image")
	utils.WriteJSON(w, http.StatusCreated, uploadResponse{Path: upload.Key, PublicURL: upload.PublicURL})
}
