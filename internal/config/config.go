// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// Document storage modes accepted in DOCUMENT_STORAGE.
const (
	DocumentsInline = "inline"
	DocumentsMinIO  = "minio"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// StoreDriver selects the trip and user store: postgres, mongo or memory.
	StoreDriver string

	// DatabaseURL is the Postgres connection string. Required for postgres.
	DatabaseURL string

	// MongoURI and MongoDatabase locate the Mongo store. Required for mongo.
	MongoURI      string
	MongoDatabase string

	// JWTSecret signs access tokens. Required.
	JWTSecret string
	TokenTTL  time.Duration

	// TrackCollaboratorMetadata keeps each collaborator's email on the trip.
	TrackCollaboratorMetadata bool

	// DocumentStorage selects how uploads are stored: inline or minio.
	DocumentStorage  string
	DocumentMaxBytes int64
	MinIO            MinIOConfig

	WeatherAPIKey  string
	WeatherBaseURL string

	GeocoderBaseURL   string
	GeocoderUserAgent string
	// GeocoderRPS caps outbound geocoder requests per second.
	GeocoderRPS float64

	// RateLimitRPS and RateLimitBurst bound requests per client address.
	// RateLimitRPS <= 0 disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int

	// MaxBodyBytes caps every request body except document uploads.
	MaxBodyBytes int64
}

// MinIOConfig locates the bucket used when DocumentStorage is minio.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory, if present, seeds variables that are
// not already set. Returns an error listing any required variables that are
// not set and any values that fail to parse.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config.Load: read .env: %w", err)
	}

	p := &parser{}
	cfg := Config{
		Port:                      getEnv("PORT", "8080"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		CORSOrigins:               splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StoreDriver:               strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		MongoURI:                  os.Getenv("MONGO_URI"),
		MongoDatabase:             getEnv("MONGO_DATABASE", "trip_planner"),
		JWTSecret:                 os.Getenv("JWT_SECRET"),
		TokenTTL:                  p.duration("TOKEN_TTL", 24*time.Hour),
		TrackCollaboratorMetadata: p.boolean("TRACK_COLLABORATOR_METADATA", true),
		DocumentStorage:           strings.ToLower(getEnv("DOCUMENT_STORAGE", DocumentsInline)),
		DocumentMaxBytes:          p.int64("DOCUMENT_MAX_BYTES", 5<<20),
		MinIO: MinIOConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "trip-documents"),
			UseSSL:    p.boolean("MINIO_USE_SSL", false),
		},
		WeatherAPIKey:     os.Getenv("WEATHER_API_KEY"),
		WeatherBaseURL:    os.Getenv("WEATHER_BASE_URL"),
		GeocoderBaseURL:   os.Getenv("GEOCODER_BASE_URL"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "trip-planner/1.0"),
		GeocoderRPS:       p.float("GEOCODER_RPS", 1),
		RateLimitRPS:      p.float("RATE_LIMIT_RPS", 10),
		RateLimitBurst:    int(p.int64("RATE_LIMIT_BURST", 20)),
		MaxBodyBytes:      p.int64("MAX_BODY_BYTES", 1<<20),
	}

	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	switch cfg.StoreDriver {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreMongo:
		if cfg.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
	case StoreMemory:
	default:
		p.invalid = append(p.invalid, "STORE_DRIVER")
	}
	switch cfg.DocumentStorage {
	case DocumentsInline:
	case DocumentsMinIO:
		if cfg.MinIO.Endpoint == "" {
			missing = append(missing, "MINIO_ENDPOINT")
		}
	default:
		p.invalid = append(p.invalid, "DOCUMENT_STORAGE")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}
	if len(p.invalid) > 0 {
		errs = append(errs, fmt.Errorf("invalid environment variables: %s", strings.Join(p.invalid, ", ")))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parser reads typed variables and remembers the names of those that fail
// to parse, so Load can report them all at once.
type parser struct {
	invalid []string
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return d
}

func (p *parser) boolean(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return b
}

func (p *parser) int64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return f
}
