package middleware

import (
	"context"
	"errors"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/andrewpaige1/flashcards-api/auth"
	"github.com/andrewpaige1/flashcards-api/models"
	"github.com/andrewpaige1/flashcards-api/utils"
)

type contextKey string

const userKey contextKey = "user"

// CurrentUser returns the user attached by Session, if any.
func CurrentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userKey).(*models.User)
	return user, ok && user != nil
}

// WithUser attaches user to the request context.
func WithUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userKey, user))
}

// Session attaches the current user to the request. The auth_token cookie
// wins; otherwise validated Auth0 claims are synced into the users table.
// Anonymous requests pass through untouched.
func Session(authService *auth.Service, db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
				session, err := authService.Session(r.Context(), cookie.Value)
				if err == nil {
					next.ServeHTTP(w, WithUser(r, session.User))
					return
				}
				if !errors.Is(err, auth.ErrInvalidSession) {
					log.Error().Err(err).Msg("Session: failed to resolve session")
					utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
					return
				}
				log.Debug().Err(err).Msg("Session: ignoring invalid session cookie")
			}

			if auth0ID, ok := utils.GetAuth0ID(r); ok {
				claims, _ := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
				user, err := syncAuth0User(r.Context(), db, auth0ID, nicknameFrom(claims))
				if err != nil {
					log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Session: failed to sync Auth0 user")
					utils.WriteError(w, http.StatusInternalServerError, "Failed to sync user")
					return
				}
				next.ServeHTTP(w, WithUser(r, user))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// syncAuth0User ensures the Auth0 user exists in the DB
func syncAuth0User(ctx context.Context, db *gorm.DB, auth0ID, nickname string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// User does not exist, create a new one
		user = models.User{
			Auth0ID:  &auth0ID,
			Nickname: nickname,
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		log.Info().Str("user_id", user.ID).Str("nickname", user.Nickname).Msg("Created new user from Auth0")
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	// User exists, update nickname only if non-empty and changed
	if nickname != "" && user.Nickname != nickname {
		if err := db.WithContext(ctx).Model(&user).Update("nickname", nickname).Error; err != nil {
			return nil, err
		}
		log.Info().Str("user_id", user.ID).Str("nickname", nickname).Msg("Updated user nickname")
	}
	return &user, nil
}

func nicknameFrom(claims *validator.ValidatedClaims) string {
	if claims == nil {
		return ""
	}
	if customClaims, ok := claims.CustomClaims.(*CustomClaims); ok && customClaims != nil {
		return customClaims.Nickname
	}
	return ""
}

// RequireUser rejects requests that have no authenticated user.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}
