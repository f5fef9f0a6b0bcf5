package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken    string
	WebhookPublicURL string
	OpenAIKey        string // optional, enables /explain
	Port             string
	DBPath           string

	UniversePath   string
	BenchmarksPath string // optional YAML catalogue
	MarketSuffix   string
	CalendarMIC    string
	IconBaseURL    string

	LogLevel  string
	LogPretty bool
}

// Load reads the configuration from the environment, after loading a .env
// file when one is present.
func Load() (Config, error) {
	_ = godotenv.Load()

	var missing []string
	mustEnv := func(k string) string {
		v := os.Getenv(k)
		if v == "" {
			missing = append(missing, k)
		}
		return v
	}

	cfg := Config{
		TelegramToken:    mustEnv("TELEGRAM_BOT_TOKEN"),
		WebhookPublicURL: mustEnv("WEBHOOK_PUBLIC_URL"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		Port:             getEnv("PORT", "9095"),
		DBPath:           getEnv("DB_PATH", "/app/data/usage.db"),
		UniversePath:     getEnv("UNIVERSE_PATH", "tickers.csv"),
		BenchmarksPath:   os.Getenv("BENCHMARKS_PATH"),
		MarketSuffix:     getEnv("MARKET_SUFFIX", ".SA"),
		CalendarMIC:      getEnv("CALENDAR_MIC", "bvmf"),
		IconBaseURL:      os.Getenv("ICON_BASE_URL"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        isTrue(os.Getenv("LOG_PRETTY")),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing env %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
