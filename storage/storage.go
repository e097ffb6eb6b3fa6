// Package storage keeps flashcard images in an object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MaxImageSize is the largest accepted image, 5 MB.
const MaxImageSize = 5 * 1024 * 1024

// KeyPrefix is the folder every flashcard image lives under.
const KeyPrefix = "flashcards/"

var (
	ErrTooLarge = errors.New("file size must be less than 5MB")
	ErrNotImage = errors.New("file must be an image")
	ErrExists   = errors.New("object already exists")
	ErrBadKey   = errors.New("invalid object key")
)

// ObjectStore is where uploaded images are written and served from.
type ObjectStore interface {
	// Upload stores r under key. It never overwrites an existing object.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// ValidateImage enforces the upload size limit and the image/ content type.
func ValidateImage(size int64, contentType string) error {
	if size > MaxImageSize {
		return ErrTooLarge
	}
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotImage
	}
	return nil
}

// NewImageKey builds flashcards/<random>.<ext> from the uploaded file name.
func NewImageKey(filename string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		return KeyPrefix + id, nil
	}
	return KeyPrefix + id + "." + ext, nil
}

// cleanKey rejects keys that could escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrBadKey
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrBadKey
	}
	return cleaned, nil
}
