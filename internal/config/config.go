package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	DBPath            string
	LogLevel          string
	ExtractionBaseURL string
	ExtractionTimeout int // seconds
	IngestWorkerCount int
	IngestQueueSize   int
	LevelTestPerTier  int
	TestHistoryLimit  int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:              envOr("ADDR", ":8080"),
		DBPath:            envOr("DB_PATH", "file:physioprep.db"),
		LogLevel:          envOr("LOG_LEVEL", "INFO"),
		ExtractionBaseURL: envOr("EXTRACTION_BASE_URL", "http://localhost:9090"),
		ExtractionTimeout: envIntOr("EXTRACTION_TIMEOUT_SECONDS", 60),
		IngestWorkerCount: envIntOr("INGEST_WORKER_COUNT", 2),
		IngestQueueSize:   envIntOr("INGEST_QUEUE_SIZE", 32),
		LevelTestPerTier:  envIntOr("LEVEL_TEST_PER_TIER", 10),
		TestHistoryLimit:  envIntOr("TEST_HISTORY_LIMIT", 10),
	}
}

// Validate checks the configuration for values that would prevent the server
// from starting correctly. All problems are reported at once.
func (c Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q is not a valid level", c.LogLevel))
	}
	if c.ExtractionBaseURL == "" {
		problems = append(problems, "EXTRACTION_BASE_URL cannot be empty")
	}
	if c.ExtractionTimeout <= 0 {
		problems = append(problems, "EXTRACTION_TIMEOUT_SECONDS must be positive")
	}
	if c.IngestWorkerCount <= 0 {
		problems = append(problems, "INGEST_WORKER_COUNT must be positive")
	}
	if c.IngestQueueSize <= 0 {
		problems = append(problems, "INGEST_QUEUE_SIZE must be positive")
	}
	if c.LevelTestPerTier <= 0 {
		problems = append(problems, "LEVEL_TEST_PER_TIER must be positive")
	}
	if c.TestHistoryLimit <= 0 {
		problems = append(problems, "TEST_HISTORY_LIMIT must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
