package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/andrewpaige1/flashcards-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters long")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrInvalidSession     = errors.New("invalid session")
)

const minPasswordLength = 6

// Session is a signed-in user plus the token that proves it.
type Session struct {
	Token     string       `json:"-"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Service is the email/password auth provider backed by the users table.
type Service struct {
	db         *gorm.DB
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time

	mu        sync.RWMutex
	listeners []subscription
	nextSubID int
}

type Option func(*Service)

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(db *gorm.DB, secret []byte, opts ...Option) *Service {
	s := &Service{
		db:         db,
		secret:     secret,
		ttl:        24 * time.Hour,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// SignUp creates a password account.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        &email,
		PasswordHash: string(hash),
		Nickname:     strings.SplitN(email, "@", 2)[0],
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.emit(EventSignedUp, &Session{User: user})
	return user, nil
}

// SignIn checks the password and issues a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := s.issue(&user)
	if err != nil {
		return nil, err
	}
	s.emit(EventSignedIn, session)
	return session, nil
}

// SignOut announces the end of a session. Tokens are stateless, so the
// caller is responsible for discarding the cookie.
func (s *Service) SignOut(ctx context.Context, session *Session) {
	if session == nil {
		return
	}
	s.emit(EventSignedOut, session)
}

// Session resolves a token back into its user.
func (s *Service) Session(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims, err := VerifyToken(s.secret, token, s.now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", claims.Subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s no longer exists", ErrInvalidSession, claims.Subject)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	session := &Session{Token: token, User: &user}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func (s *Service) issue(user *models.User) (*Session, error) {
	token, expiresAt, err := CreateToken(s.secret, user.ID, s.now(), s.ttl)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &Session{Token: token, User: user, ExpiresAt: expiresAt}, nil
}
