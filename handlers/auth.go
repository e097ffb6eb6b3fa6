package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/andrewpaige1/flashcards-api/auth"
	"github.com/andrewpaige1/flashcards-api/middleware"
	"github.com/andrewpaige1/flashcards-api/utils"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authError maps auth sentinels to a status and the message shown to users.
func authError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusBadRequest, "Please enter a valid email address"
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, "Password must be at least 6 characters long"
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, "Email is already registered"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// POST /api/auth/signup
func (db *DBHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("SignUp: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := db.Auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		status, msg := authError(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Msg("SignUp: failed to create account")
		}
		utils.WriteError(w, status, msg)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("SignUp: created account")
	utils.WriteJSON(w, http.StatusCreated, user)
}

// POST /api/auth/signin
func (db *DBHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("SignIn: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := db.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		status, msg := authError(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Msg("SignIn: failed to sign in")
		}
		utils.WriteError(w, status, msg)
		return
	}

	http.SetCookie(w, db.sessionCookie(session.Token, session.ExpiresAt.Unix()-db.now().Unix()))
	utils.WriteJSON(w, http.StatusOK, session)
}

// POST /api/auth/signout
func (db *DBHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
		if session, err := db.Auth.Session(r.Context(), cookie.Value); err == nil {
			db.Auth.SignOut(r.Context(), session)
		}
	}

	http.SetCookie(w, db.sessionCookie("", -1))
	writeSuccess(w)
}

// GET /api/auth/session
func (db *DBHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if session, err := db.Auth.Session(r.Context(), cookie.Value); err == nil {
			utils.WriteJSON(w, http.StatusOK, session)
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, auth.Session{User: user})
}

// sessionCookie builds the auth cookie. A negative maxAge deletes it.
func (db *DBHandler) sessionCookie(token string, maxAge int64) *http.Cookie {
	cookie := &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge),
		HttpOnly: true,
		Secure:   db.Env.CookieSecure,
		SameSite: db.Env.SameSite,
	}
	if !db.Env.IsDevelopment {
		cookie.Domain = db.Env.Domain
	}
	return cookie
}
