package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

type Config struct {
	Port     string         `yaml:"port"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Janitor  JanitorConfig  `yaml:"janitor"`

	AllowedOrigins []string `yaml:"allowed_origins"`
	// Empty means development: cookies are host-only and not Secure.
	CookieDomain string `yaml:"cookie_domain"`
}

type DatabaseConfig struct {
	// postgres or sqlite
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	// Auth0 bearer validation is only enabled when Auth0Domain is set.
	Auth0Domain   string `yaml:"auth0_domain"`
	Auth0Audience string `yaml:"auth0_audience"`
	// Sign-in and sign-up attempts per client IP.
	SignInPerMinute int `yaml:"signin_per_minute"`
	SignInBurst     int `yaml:"signin_burst"`
}

type StorageConfig struct {
	// local or s3
	Driver        string `yaml:"driver"`
	LocalDir      string `yaml:"local_dir"`
	PublicBaseURL string `yaml:"public_base_url"`

	S3Endpoint  string `yaml:"s3_endpoint"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3UseSSL    bool   `yaml:"s3_use_ssl"`
	// Where bucket objects are publicly reachable, e.g. a CDN. Defaults to
	// the bucket URL on the endpoint.
	S3PublicURL string `yaml:"s3_public_url"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// console or json
	Format string `yaml:"format"`
}

type JanitorConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval"`
	OrphanTTL time.Duration `yaml:"orphan_ttl"`
}

func Default() Config {
	return Config{
		Port: "8080",
		Database: DatabaseConfig{
			Driver: "postgres",
		},
		Auth: AuthConfig{
			SessionTTL:      24 * time.Hour,
			SignInPerMinute: 10,
			SignInBurst:     5,
		},
		Storage: StorageConfig{
			Driver:        "local",
			LocalDir:      "data/storage",
			PublicBaseURL: "http://localhost:8080",
			S3UseSSL:      true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Janitor: JanitorConfig{
			Enabled:   true,
			Interval:  time.Hour,
			OrphanTTL: 24 * time.Hour,
		},
		AllowedOrigins: []string{"http://localhost:3000"},
	}
}

// Load starts from Default, applies the YAML file at path when path is not
// empty, then applies environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("config: database url is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET_KEY not set")
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Endpoint == "" || c.Storage.S3Bucket == "" {
			return fmt.Errorf("config: s3 storage needs endpoint and bucket")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func applyEnv(c *Config) error {
	setString(&c.Port, "PORT")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DB_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET_KEY")
	setString(&c.Auth.Auth0Domain, "AUTH0_DOMAIN")
	setString(&c.Auth.Auth0Audience, "AUTH0_AUDIENCE")
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.LocalDir, "STORAGE_LOCAL_DIR")
	setString(&c.Storage.PublicBaseURL, "STORAGE_PUBLIC_BASE_URL")
	setString(&c.Storage.S3Endpoint, "S3_ENDPOINT")
	setString(&c.Storage.S3Bucket, "S3_BUCKET")
	setString(&c.Storage.S3AccessKey, "S3_ACCESS_KEY")
	setString(&c.Storage.S3SecretKey, "S3_SECRET_KEY")
	setString(&c.Storage.S3PublicURL, "S3_PUBLIC_URL")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.CookieDomain, "COOKIE_DOMAIN")

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	}

	if err := setDuration(&c.Auth.SessionTTL, "SESSION_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.Janitor.Interval, "JANITOR_INTERVAL"); err != nil {
		return err
	}
	if err := setDuration(&c.Janitor.OrphanTTL, "JANITOR_ORPHAN_TTL"); err != nil {
		return err
	}
	if err := setInt(&c.Auth.SignInPerMinute, "SIGNIN_PER_MINUTE"); err != nil {
		return err
	}
	if err := setInt(&c.Auth.SignInBurst, "SIGNIN_BURST"); err != nil {
		return err
	}
	if err := setBool(&c.Storage.S3UseSSL, "S3_USE_SSL"); err != nil {
		return err
	}
	return setBool(&c.Janitor.Enabled, "JANITOR_ENABLED")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = b
	return nil
}
