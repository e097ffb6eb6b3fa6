package config

import "net/http"

// Environment holds the cookie policy that follows from where the API runs.
type Environment struct {
	IsDevelopment bool
	Domain        string
	CookieSecure  bool
	// Production frontends live on another site and need SameSite=None.
	SameSite http.SameSite
}

// Environment derives cookie settings from the configured cookie domain.
// No domain means development.
func (c Config) Environment() Environment {
	if c.CookieDomain == "" {
		return Environment{
			IsDevelopment: true,
			Domain:        "localhost",
			SameSite:      http.SameSiteLaxMode,
		}
	}
	return Environment{
		Domain:       c.CookieDomain,
		CookieSecure: true,
		SameSite:     http.SameSiteNoneMode,
	}
}
