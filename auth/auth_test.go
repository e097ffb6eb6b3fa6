package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andrewpaige1/flashcards-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testSecret = []byte("test-secret")

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

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithBcryptCost(bcrypt.MinCost)}, opts...)
	return NewService(newTestDB(t), testSecret, opts...)
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	token, expiresAt, err := CreateToken(testSecret, "user-1", now, time.Hour)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expiresAt = %v", expiresAt)
	}

	claims, err := VerifyToken(testSecret, token, func() time.Time { return now.Add(30 * time.Minute) })
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q", claims.Subject)
	}

	if _, err := VerifyToken(testSecret, token, func() time.Time { return now.Add(2 * time.Hour) }); err == nil {
		t.Fatal("expected expired token to fail")
	}
	if _, err := VerifyToken([]byte("other"), token, time.Now); err == nil {
		t.Fatal("expected wrong secret to fail")
	}
	if _, _, err := CreateToken(nil, "user-1", now, time.Hour); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestSignUpValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "not-an-email", "secret1"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("bad email err = %v", err)
	}
	if _, err := svc.SignUp(ctx, "a@example.com", "12345"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password err = %v", err)
	}

	user, err := svc.SignUp(ctx, " Ada@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.Email == nil || *user.Email != "ada@example.com" {
		t.Fatalf("email = %v", user.Email)
	}
	if user.Nickname != "ada" || user.PasswordHash == "secret1" || user.ID == "" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := svc.SignUp(ctx, "ada@example.com", "another1"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate err = %v", err)
	}
}

func TestSignInAndSession(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithClock(func() time.Time { return now }), WithSessionTTL(2*time.Hour))
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "grace@example.com", "hopper1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if _, err := svc.SignIn(ctx, "grace@example.com", "wrongpw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@example.com", "hopper1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}

	session, err := svc.SignIn(ctx, "GRACE@example.com", "hopper1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.User.ID != user.ID || !session.ExpiresAt.Equal(now.Add(2*time.Hour)) {
		t.Fatalf("session = %+v", session)
	}

	got, err := svc.Session(ctx, session.Token)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.User.ID != user.ID {
		t.Fatalf("session user = %s, want %s", got.User.ID, user.ID)
	}

	if _, err := svc.Session(ctx, ""); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("empty token err = %v", err)
	}
	if _, err := svc.Session(ctx, "garbage"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("garbage token err = %v", err)
	}

	now = now.Add(3 * time.Hour)
	if _, err := svc.Session(ctx, session.Token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expired token err = %v", err)
	}
}

func TestSessionForDeletedUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, "temp@example.com", "secret1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	session, err := svc.SignIn(ctx, "temp@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if err := svc.db.Delete(&models.User{}, "id = ?", session.User.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := svc.Session(ctx, session.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("err = %v, want ErrInvalidSession", err)
	}
}

func TestAuthStateListeners(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var first, second []Event
	unsubscribe := svc.OnAuthStateChange(func(e Event, _ *Session) { first = append(first, e) })
	svc.OnAuthStateChange(func(e Event, _ *Session) { second = append(second, e) })

	if _, err := svc.SignUp(ctx, "lin@example.com", "secret1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	session, err := svc.SignIn(ctx, "lin@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	unsubscribe()
	svc.SignOut(ctx, session)
	svc.SignOut(ctx, nil)

	if len(first) != 2 || first[0] != EventSignedUp || first[1] != EventSignedIn {
		t.Errorf("first listener saw %v", first)
	}
	want := []Event{EventSignedUp, EventSignedIn, EventSignedOut}
	if len(second) != len(want) {
		t.Fatalf("second listener saw %v, want %v", second, want)
	}
	for i := range want {
		if second[i] != want[i] {
			t.Errorf("second[%d] = %s, want %s", i, second[i], want[i])
		}
	}
}
