package utils

import (
	"net/http"
	"regexp"
	"strings"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

func GetAuth0ID(r *http.Request) (string, bool) {
	claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok || claims.RegisteredClaims.Subject == "" {
		return "", false
	}
	return claims.RegisteredClaims.Subject, true
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases the title and collapses every run of characters outside
// [a-z0-9] into a single dash, trimming dashes at both ends.
func Slugify(title string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

const slugSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// SlugWithSuffix appends a short random suffix, used when the plain slug is taken.
func SlugWithSuffix(slug string) (string, error) {
	suffix, err := gonanoid.Generate(slugSuffixAlphabet, 6)
	if err != nil {
		return "", err
	}
	if slug == "" {
		return suffix, nil
	}
	return slug + "-" + suffix, nil
}
