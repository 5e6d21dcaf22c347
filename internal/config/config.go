package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                string
	DBPath              string
	LogLevel            string
	GeneratorURL        string
	GeneratorTimeoutSec int
	PrefetchWorkerCount int
	PrefetchQueueSize   int
	CacheSize           int
	MemorizeSec         int
	AnswerSec           int
	ItemPoints          int
	ItemCount           int
	Locale              string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                envOr("ADDR", ":8080"),
		DBPath:              envOr("DB_PATH", "file:trainer.db"),
		LogLevel:            envOr("LOG_LEVEL", "INFO"),
		GeneratorURL:        envOr("GENERATOR_URL", "http://localhost:8000"),
		GeneratorTimeoutSec: envIntOr("GENERATOR_TIMEOUT_SEC", 15),
		PrefetchWorkerCount: envIntOr("PREFETCH_WORKER_COUNT", 2),
		PrefetchQueueSize:   envIntOr("PREFETCH_QUEUE_SIZE", 16),
		CacheSize:           envIntOr("CACHE_SIZE", 32),
		MemorizeSec:         envIntOr("MEMORIZE_SEC", 20),
		AnswerSec:           envIntOr("ANSWER_SEC", 10),
		ItemPoints:          envIntOr("ITEM_POINTS", 1000),
		ItemCount:           envIntOr("ITEM_COUNT", 5),
		Locale:              envOr("LOCALE", "id-ID"),
	}
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
