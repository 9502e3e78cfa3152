package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrKobisKeyRequired = errors.New("KOBIS_API_KEY is required")

// Config holds the runtime configuration loaded from the environment.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string

	// DatabasePath is the sqlite database file location.
	DatabasePath string

	// DataDir holds JSON-persisted state (accounts, sessions).
	DataDir string

	// LogFile, when set, routes logs through a rotating file writer.
	LogFile string

	// KobisAPIKey authenticates box-office and movie-detail requests.
	KobisAPIKey string

	// KMDBAPIKey authenticates free-text movie search requests. Optional;
	// without it enrichment still saves the canonical record, just without
	// poster/plot fields.
	KMDBAPIKey string

	// AdminEmail and AdminPassword bootstrap the admin account on first run.
	AdminEmail    string
	AdminPassword string

	// DedupCacheTTL bounds how long duplicate-scan results are memoized.
	DedupCacheTTL time.Duration

	// IngestWorkers caps concurrent per-movie pipelines during batch ingest.
	IngestWorkers int

	// AutoIngest enables the daily box-office ingest job.
	AutoIngest bool

	// AutoIngestHour is the local hour (0-23) the daily job fires at.
	AutoIngestHour int
}

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "data/cinebase.db"),
		DataDir:        getEnv("DATA_DIR", "data"),
		LogFile:        os.Getenv("LOG_FILE"),
		KobisAPIKey:    os.Getenv("KOBIS_API_KEY"),
		KMDBAPIKey:     os.Getenv("KMDB_API_KEY"),
		AdminEmail:     getEnv("ADMIN_EMAIL", "admin@localhost"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", "admin1234"),
		DedupCacheTTL:  getDuration("DEDUP_CACHE_TTL", 5*time.Minute),
		IngestWorkers:  getInt("INGEST_WORKERS", 5),
		AutoIngest:     getBool("AUTO_INGEST", false),
		AutoIngestHour: getInt("AUTO_INGEST_HOUR", 6),
	}

	if strings.TrimSpace(cfg.KobisAPIKey) == "" {
		return Config{}, ErrKobisKeyRequired
	}
	if cfg.IngestWorkers < 1 {
		cfg.IngestWorkers = 1
	}
	if cfg.AutoIngestHour < 0 || cfg.AutoIngestHour > 23 {
		cfg.AutoIngestHour = 6
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
