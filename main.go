package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/andrewpaige1/flashcards-api/auth"
	"github.com/andrewpaige1/flashcards-api/config"
	"github.com/andrewpaige1/flashcards-api/handlers"
	"github.com/andrewpaige1/flashcards-api/jobs"
	"github.com/andrewpaige1/flashcards-api/middleware"
	"github.com/andrewpaige1/flashcards-api/stats"
	"github.com/andrewpaige1/flashcards-api/storage"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		if err := godotenv.Load(); err != nil {
			log.Warn().Err(err).Msg(".env file not found, environment variables might not be loaded")
		}
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// run wires the server and blocks until shutdown. Deferred cleanup runs
// before main decides the exit status.
func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.SetupLogging(cfg.Logging)

	db, err := config.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect %s database: %w", cfg.Database.Driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()

	authService := auth.NewService(db, []byte(cfg.Auth.JWTSecret), auth.WithSessionTTL(cfg.Auth.SessionTTL))
	authService.OnAuthStateChange(func(event auth.Event, session *auth.Session) {
		e := log.Info().Str("event", string(event))
		if session != nil && session.User != nil {
			e = e.Str("user_id", session.User.ID)
		}
		e.Msg("Auth state changed")
	})

	store, err := newObjectStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("set up %s object store: %w", cfg.Storage.Driver, err)
	}

	authMiddleware, err := middleware.EnsureValidToken(cfg.Auth.Auth0Domain, cfg.Auth.Auth0Audience)
	if err != nil {
		return fmt.Errorf("set up Auth0 validation: %w", err)
	}

	DBHandler := &handlers.DBHandler{
		DB:            db,
		Auth:          authService,
		Store:         store,
		Stats:         stats.New(sqlDB, config.SQLDriverName(cfg.Database.Driver)),
		Env:           cfg.Environment(),
		SignInLimiter: middleware.NewRateLimiter(cfg.Auth.SignInPerMinute, cfg.Auth.SignInBurst),
	}
	mux := DBHandler.Routes()

	if cfg.Janitor.Enabled {
		janitor := jobs.NewImageJanitor(db, store, cfg.Janitor.OrphanTTL)
		if err := janitor.Start(cfg.Janitor.Interval); err != nil {
			return fmt.Errorf("start image janitor: %w", err)
		}
		defer janitor.Stop()
	}

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(accessLog(logger, authMiddleware(middleware.Session(authService, db)(mux))))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("development", cfg.Environment().IsDevelopment).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	return waitForShutdown(srv, stop, serveErr, 10*time.Second)
}

// waitForShutdown blocks until a signal arrives or the server fails, then
// drains open requests.
func waitForShutdown(srv *http.Server, stop <-chan os.Signal, serveErr <-chan error, timeout time.Duration) error {
	select {
	case err := <-serveErr:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newObjectStore(cfg config.StorageConfig) (storage.ObjectStore, error) {
	if cfg.Driver == "s3" {
		s3, err := storage.NewS3(storage.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			UseSSL:        cfg.S3UseSSL,
			PublicBaseURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	local, err := storage.NewLocal(cfg.LocalDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	return local, nil
}

// accessLog attaches a request-scoped logger and writes one line per request.
func accessLog(logger zerolog.Logger, next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(next)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	return hlog.NewHandler(logger)(h)
}
