package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/andrewpaige1/flashcards-api/auth"
	"github.com/andrewpaige1/flashcards-api/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// whoami echoes the attached user id, or "anonymous".
func whoami(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(user.ID))
}

func TestSessionFromCookie(t *testing.T) {
	db := newTestDB(t)
	svc := auth.NewService(db, []byte("k"), auth.WithBcryptCost(bcrypt.MinCost))
	ctx := context.Background()
	user, err := svc.SignUp(ctx, "cookie@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	session, err := svc.SignIn(ctx, "cookie@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	h := Session(svc, db)(http.HandlerFunc(whoami))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: session.Token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.String() != user.ID {
		t.Fatalf("body = %q, want %q", rec.Body.String(), user.ID)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "not-a-token"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.String() != "anonymous" {
		t.Fatalf("invalid cookie body = %q, want anonymous", rec.Body.String())
	}
}

func TestSessionSyncsAuth0User(t *testing.T) {
	db := newTestDB(t)
	svc := auth.NewService(db, []byte("k"))
	h := Session(svc, db)(http.HandlerFunc(whoami))

	serve := func(nickname string) string {
		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|42"},
			CustomClaims:     &CustomClaims{Nickname: nickname},
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), jwtmiddleware.ContextKey{}, claims))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Body.String()
	}

	first := serve("ada")
	second := serve("lovelace")
	if first == "" || first == "anonymous" || first != second {
		t.Fatalf("ids = %q, %q; want the same synced user", first, second)
	}

	var user models.User
	if err := db.Where("auth0_id = ?", "auth0|42").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Nickname != "lovelace" {
		t.Fatalf("nickname = %q, want lovelace", user.Nickname)
	}
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("users = %d, want 1", count)
	}
}

func TestRequireUser(t *testing.T) {
	h := RequireUser(whoami)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] != "Unauthorized" {
		t.Fatalf("body = %v, err = %v", body, err)
	}

	rec = httptest.NewRecorder()
	req := WithUser(httptest.NewRequest(http.MethodGet, "/", nil), &models.User{ID: "u1"})
	h(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u1" {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestEnsureValidTokenDisabled(t *testing.T) {
	mw, err := EnsureValidToken("", "")
	if err != nil {
		t.Fatalf("EnsureValidToken: %v", err)
	}
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(whoami)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.String() != "anonymous" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(60, 2)
	l.now = func() time.Time { return now }

	if !l.Allow("1.2.3.4") || !l.Allow("1.2.3.4") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("5.6.7.8") {
		t.Fatal("other clients have their own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("1.2.3.4") {
		t.Fatal("one token should refill after a second")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	l := NewRateLimiter(1, 1)
	h := l.Middleware(whoami)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
}
