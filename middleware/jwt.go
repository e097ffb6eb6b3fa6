package middleware

import (
	"context"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/rs/zerolog/log"

	"github.com/andrewpaige1/flashcards-api/utils"
)

// CustomClaims contains custom data we want from the Auth0 token.
type CustomClaims struct {
	Nickname string `json:"nickname"`
}

func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// EnsureValidToken validates Auth0 bearer tokens when a domain is configured.
// Requests without a bearer token pass through so cookie sessions and public
// routes keep working; requests with a bad token are rejected.
func EnsureValidToken(domain, audience string) (func(http.Handler) http.Handler, error) {
	if domain == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("EnsureValidToken: failed to validate JWT")
		utils.WriteError(w, http.StatusUnauthorized, "Failed to validate JWT")
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithCredentialsOptional(true),
	)

	return func(next http.Handler) http.Handler {
		return middleware.CheckJWT(next)
	}, nil
}
