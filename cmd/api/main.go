// Package main is the entry point for the trip planner API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/config"
	"github.com/pkordes/trip-planner/internal/docstore"
	"github.com/pkordes/trip-planner/internal/geocode"
	"github.com/pkordes/trip-planner/internal/handler"
	"github.com/pkordes/trip-planner/internal/live"
	"github.com/pkordes/trip-planner/internal/metrics"
	"github.com/pkordes/trip-planner/internal/middleware"
	"github.com/pkordes/trip-planner/internal/repo"
	"github.com/pkordes/trip-planner/internal/service"
	"github.com/pkordes/trip-planner/internal/weather"
	"github.com/pkordes/trip-planner/migrations"
)

// feedBackoff is the pause before the Postgres change feed reconnects.
const feedBackoff = 2 * time.Second

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stores -----------------------------------------------------------
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer st.close()
	slog.Info("store ready", "driver", cfg.StoreDriver)

	// The broker outlives requests; it stops when ctx is cancelled.
	broker := live.NewBroker(st.trips, logger)
	go func() {
		if err := broker.Run(ctx, st.feed); err != nil {
			slog.Error("change feed stopped", "error", err)
		}
	}()

	// --- Documents --------------------------------------------------------
	var encoder docstore.Encoder = docstore.Inline{}
	if cfg.DocumentStorage == config.DocumentsMinIO {
		client, err := docstore.NewMinIOClient(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.UseSSL)
		if err != nil {
			slog.Error("failed to create minio client", "error", err)
			os.Exit(1)
		}
		m, err := docstore.NewMinIO(ctx, client, cfg.MinIO.Bucket)
		if err != nil {
			slog.Error("failed to prepare document bucket", "bucket", cfg.MinIO.Bucket, "error", err)
			os.Exit(1)
		}
		encoder = m
	}

	// --- Services ---------------------------------------------------------
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	forecaster := weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, nil)
	geocoder := geocode.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocoderRPS, nil)
	if cfg.WeatherAPIKey == "" {
		slog.Warn("WEATHER_API_KEY not set; forecasts will fail upstream")
	}

	services := handler.Services{
		Trips:         service.NewTripService(st.trips, cfg.TrackCollaboratorMetadata),
		Itinerary:     service.NewItineraryService(st.trips),
		Export:        service.NewExportService(st.trips),
		Expenses:      service.NewExpenseService(st.trips),
		Packing:       service.NewPackingService(st.trips),
		Reviews:       service.NewReviewService(st.trips),
		Documents:     service.NewDocumentService(st.trips, encoder, cfg.DocumentMaxBytes),
		Collaborators: service.NewCollaboratorService(st.trips, st.users, cfg.TrackCollaboratorMetadata),
		Users:         service.NewUserService(st.users, tokens),
		Weather:       service.NewWeatherService(st.trips, forecaster, geocoder),
		Live:          broker,
	}
	server := handler.NewServer(services, handler.Options{
		MaxBodyBytes:   cfg.MaxBodyBytes,
		MaxUploadBytes: cfg.DocumentMaxBytes,
	}, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → rate limit → authentication.
	// RealIP runs before the rate limiter so clients are keyed by their own
	// address behind a proxy. Authentication never rejects anonymous requests;
	// services decide what needs a signed-in user.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.Use(middleware.NewAuthenticator(tokens))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Mount("/", server.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Event streams lift the write deadline per response, so WriteTimeout only
	// bounds ordinary requests and uploads.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Close the broker first: it ends every open event stream, which
	// Shutdown would otherwise wait on until the timeout.
	broker.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// stores is the persistence selected by STORE_DRIVER.
type stores struct {
	trips repo.TripStore
	users repo.UserStore
	feed  repo.ChangeFeed
	close func()
}

// openStores connects to the configured backend and prepares its schema.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		// pgxpool.New does not open connections; the ping below does.
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return stores{}, fmt.Errorf("create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("connect: %w", err)
		}
		// goose runs on database/sql; borrow a handle backed by the pool.
		db := stdlib.OpenDBFromPool(pool)
		applied, err := migrations.Up(ctx, db)
		_ = db.Close()
		if err != nil {
			pool.Close()
			return stores{}, err
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", "versions", applied)
		}
		return stores{
			trips: repo.NewPGTripStore(pool),
			users: repo.NewPGUserStore(pool),
			feed:  repo.NewPGChangeFeed(pool, logger, feedBackoff),
			close: pool.Close,
		}, nil

	case config.StoreMongo:
		client, err := repo.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return stores{}, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := repo.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return stores{}, err
		}
		trips := repo.NewMongoTripStore(db, logger)
		return stores{
			trips: trips,
			users: repo.NewMongoUserStore(db),
			feed:  trips,
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		trips := repo.NewMemoryTripStore()
		return stores{
			trips: trips,
			users: repo.NewMemoryUserStore(),
			feed:  trips,
			close: func() {},
		}, nil
	}
}
