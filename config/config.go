package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds every setting of the application.
type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	ServerPort     int

	JWTSecretKey          string
	OrganizerPasswordHash string
	TokenTTL              time.Duration

	SportsFile       string
	DefaultCourts    int
	AllowSinglesSlot bool

	CORSAllowedOrigins []string
	MetricsEnabled     bool

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from environment variables.
// A .env file is loaded first when present.
func Load() (*Config, error) {
	// a missing .env is not an error
	_ = godotenv.Load()

	driver := strings.ToLower(envOr("DATABASE_DRIVER", DriverPostgres))
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, driver)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(envOr("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	ttl, err := time.ParseDuration(envOr("TOKEN_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL environment variable: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", ttl)
	}

	courts, err := strconv.Atoi(envOr("DEFAULT_COURTS", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_COURTS environment variable: %w", err)
	}
	if courts < 1 {
		return nil, fmt.Errorf("DEFAULT_COURTS must be at least 1, got %d", courts)
	}

	singles, err := strconv.ParseBool(envOr("ALLOW_SINGLES_SLOT", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOW_SINGLES_SLOT environment variable: %w", err)
	}

	metrics, err := strconv.ParseBool(envOr("METRICS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED environment variable: %w", err)
	}

	cfg := &Config{
		DatabaseDriver:        driver,
		DatabaseURL:           dbURL,
		ServerPort:            port,
		JWTSecretKey:          jwtKey,
		OrganizerPasswordHash: os.Getenv("ORGANIZER_PASSWORD_HASH"),
		TokenTTL:              ttl,
		SportsFile:            os.Getenv("SPORTS_FILE"),
		DefaultCourts:         courts,
		AllowSinglesSlot:      singles,
		CORSAllowedOrigins:    splitList(envOr("CORS_ALLOWED_ORIGINS", "*")),
		MetricsEnabled:        metrics,
		LogLevel:              envOr("LOG_LEVEL", "info"),
		LogFormat:             envOr("LOG_FORMAT", "json"),
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
