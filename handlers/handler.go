package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/andrewpaige1/flashcards-api/auth"
	"github.com/andrewpaige1/flashcards-api/config"
	"github.com/andrewpaige1/flashcards-api/middleware"
	"github.com/andrewpaige1/flashcards-api/models"
	"github.com/andrewpaige1/flashcards-api/stats"
	"github.com/andrewpaige1/flashcards-api/storage"
	"github.com/andrewpaige1/flashcards-api/utils"
)

type DBHandler struct {
	*gorm.DB
	Auth  *auth.Service
	Store storage.ObjectStore
	Stats *stats.Repository
	Env   config.Environment
	// Applied to sign-in and sign-up. Nil disables limiting.
	SignInLimiter *middleware.RateLimiter
	Now           func() time.Time
}

func (db *DBHandler) now() time.Time {
	if db.Now != nil {
		return db.Now().UTC()
	}
	return time.Now().UTC()
}

// Routes registers every endpoint on a new mux.
func (db *DBHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	user := middleware.RequireUser
	limit := func(next http.HandlerFunc) http.HandlerFunc {
		if db.SignInLimiter == nil {
			return next
		}
		return db.SignInLimiter.Middleware(next)
	}

	// Auth
	mux.HandleFunc("POST /api/auth/signup", limit(db.SignUp))
	mux.HandleFunc("POST /api/auth/signin", limit(db.SignIn))
	mux.HandleFunc("POST /api/auth/signout", db.SignOut)
	mux.HandleFunc("GET /api/auth/session", db.GetSession)

	// Sets
	mux.HandleFunc("GET /api/flashcard-sets", db.GetPublicSets)
	mux.HandleFunc("POST /api/flashcard-sets", user(db.CreateFlashcardSet))
	mux.HandleFunc("GET /api/users/me/flashcard-sets", user(db.GetMySets))
	mux.HandleFunc("GET /api/flashcard-sets/{slug}", db.GetSetBySlug)
	mux.HandleFunc("PUT /api/flashcard-sets/{slug}", user(db.UpdateSetBySlug))
	mux.HandleFunc("DELETE /api/flashcard-sets/{slug}", user(db.DeleteSetBySlug))
	mux.HandleFunc("POST /api/flashcard-sets/{slug}/import", user(db.ImportFlashcards))

	// Flashcards
	mux.HandleFunc("POST /api/flashcards", user(db.CreateFlashcard))
	mux.HandleFunc("PUT /api/flashcards", user(db.UpdateFlashcardFromBody))
	mux.HandleFunc("DELETE /api/flashcards", user(db.DeleteFlashcardFromBody))
	mux.HandleFunc("GET /api/flashcards/{id}", user(db.GetFlashcardByID))
	mux.HandleFunc("PUT /api/flashcards/{id}", user(db.UpdateFlashcardByID))
	mux.HandleFunc("DELETE /api/flashcards/{id}", user(db.DeleteFlashcardByID))

	// Images
	mux.HandleFunc("POST /api/uploads/images", user(db.UploadImage))
	if local, ok := db.Store.(*storage.Local); ok {
		mux.Handle("GET "+storage.LocalRoute, local.Handler())
	}

	// Review cards
	mux.HandleFunc("GET /api/review-cards", user(db.GetReviewCards))
	mux.HandleFunc("POST /api/review-cards", user(db.CreateReviewCard))
	mux.HandleFunc("GET /api/review-cards/due", user(db.GetDueReviewCards))
	mux.HandleFunc("PUT /api/review-cards/{id}", user(db.UpdateReviewCard))
	mux.HandleFunc("DELETE /api/review-cards/{id}", user(db.DeleteReviewCard))
	mux.HandleFunc("POST /api/review-cards/{id}/review", user(db.ReviewCard))

	mux.HandleFunc("GET /api/dashboard", user(db.GetDashboard))
	mux.HandleFunc("GET /healthz", db.Health)

	return mux
}

// currentUser writes a 401 when the request carries no user.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return user, true
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeSuccess(w http.ResponseWriter) {
	utils.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}
