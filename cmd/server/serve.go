package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"Pressroom/internal/api/middleware"
	"Pressroom/internal/api/routes"
	"Pressroom/internal/config"
	"Pressroom/internal/core/posts"
	"Pressroom/internal/db/postgres"
	"Pressroom/internal/events"
	"Pressroom/internal/telemetry"
	"Pressroom/internal/uploads"
)

// publisher is a post event sink that holds a connection
type publisher interface {
	posts.EventPublisher
	Close() error
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.OTELServiceName)
	if err != nil {
		return err
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(c); err != nil {
			log.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	sqlDB, gormDB, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	log.Info().Msg("connected to database")

	if migrate {
		if err := postgres.Migrate(sqlDB, postgres.MigrateUp); err != nil {
			return err
		}
		log.Info().Msg("migrations completed")
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	pub := newPublisher(cfg)
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()

	postRepo := postgres.NewPostRepository(gormDB)
	postService := posts.NewPostService(postRepo, images, pub, posts.NewOwnerOrAdmin())

	var sessionStore sessions.Store
	if cfg.SessionSecret != "" {
		sessionStore = sessions.NewCookieStore([]byte(cfg.SessionSecret))
	}
	identity := middleware.NewIdentityMiddleware(cfg.JWTSecret, sessionStore, cfg.AdminUserIDs)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(identity.Resolve)

	if cfg.RateLimitRequests > 0 {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		r.Use(rateLimiter.Middleware)
	}

	routes.RegisterPostRoutes(r, postService, identity.RequireAuth, cfg.MaxUploadBytes)
	if local, ok := images.(*uploads.LocalStore); ok {
		routes.RegisterImageRoutes(r, local.Dir())
	}

	r.Get("/health", healthHandler(sqlDB))
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           telemetry.Handler(r, "pressroom"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("upload_backend", cfg.UploadBackend).Msg("pressroom starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func newImageStore(ctx context.Context, cfg *config.Config) (posts.ImageStore, error) {
	if cfg.UploadBackend != config.BackendS3 {
		return uploads.NewLocalStore(cfg.UploadDir)
	}

	store, err := uploads.NewS3Store(uploads.S3Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func newPublisher(cfg *config.Config) publisher {
	if cfg.KafkaBrokers == "" {
		log.Info().Msg("KAFKA_BROKERS not set, post events are disabled")
		return events.NoopPublisher{}
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
