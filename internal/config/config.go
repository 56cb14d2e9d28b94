package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL      string
	RedisURL         string
	TelegramBotToken string
	APIKey           string

	Currency            string
	MinCallIntervalSecs int
	PriceRefreshSecs    int

	PriceTTLSecs int
	OHLCTTLSecs  int
	MetaTTLSecs  int

	HistoryDays int

	AnalysisItemDelaySecs int
	AnalysisCooldownSecs  int

	OpenAIAPIKey string
	OpenAIModel  string

	HTTPPort int
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIKey:           os.Getenv("API_KEY"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, running without persistence")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, bot disabled")
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, API auth disabled")
	}

	cfg.Currency = strings.ToLower(strings.TrimSpace(os.Getenv("CURRENCY")))
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}

	cfg.MinCallIntervalSecs = 3
	if v := os.Getenv("MIN_CALL_INTERVAL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MinCallIntervalSecs = n
		}
	}

	cfg.PriceRefreshSecs = 60
	if v := os.Getenv("PRICE_REFRESH_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PriceRefreshSecs = n
		}
	}

	cfg.PriceTTLSecs = 60
	if v := os.Getenv("PRICE_TTL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PriceTTLSecs = n
		}
	}

	cfg.OHLCTTLSecs = 300
	if v := os.Getenv("OHLC_TTL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.OHLCTTLSecs = n
		}
	}

	cfg.MetaTTLSecs = 600
	if v := os.Getenv("META_TTL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MetaTTLSecs = n
		}
	}

	cfg.HistoryDays = 30
	if v := os.Getenv("HISTORY_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryDays = n
		}
	}

	cfg.AnalysisItemDelaySecs = 12
	if v := os.Getenv("ANALYSIS_ITEM_DELAY_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnalysisItemDelaySecs = n
		}
	}

	cfg.AnalysisCooldownSecs = 15
	if v := os.Getenv("ANALYSIS_COOLDOWN_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.AnalysisCooldownSecs = n
		}
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, advisor will be disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	return cfg
}
