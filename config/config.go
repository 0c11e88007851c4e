// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the flow's services need at construction time.
// Nothing is read from ambient state after startup: the API credential goes
// to the recognition client explicitly, the DB path to the store, and so on.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string // empty means the recognition client's default
	GeminiURL    string // empty means the public endpoint
	DBPath       string

	// KeepZeroNutrients stores a user-entered 0 nutrient as 0 instead of
	// the historical behavior of treating it as absent.
	KeepZeroNutrients bool
}

// Load reads configuration from the environment, with a .env file as a
// development fallback. FOODLOG_GEMINI_API_KEY is required.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; real environment wins

	cfg := &Config{
		GeminiAPIKey: os.Getenv("FOODLOG_GEMINI_API_KEY"),
		GeminiModel:  os.Getenv("FOODLOG_GEMINI_MODEL"),
		GeminiURL:    os.Getenv("FOODLOG_GEMINI_URL"),
		DBPath:       os.Getenv("FOODLOG_DB_PATH"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("FOODLOG_GEMINI_API_KEY is required")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "foodlog.db"
	}
	if v := os.Getenv("FOODLOG_KEEP_ZERO_NUTRIENTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FOODLOG_KEEP_ZERO_NUTRIENTS: %w", err)
		}
		cfg.KeepZeroNutrients = b
	}

	return cfg, nil
}
