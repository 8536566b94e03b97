package config

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Config struct {
	HTTPPort string

	// Upstream base URLs; empty means the provider's public default.
	CoinGeckoBaseURL string
	DefiLlamaBaseURL string
	FearGreedBaseURL string
	HTTPTimeoutSecs  int

	// RefreshIntervalSecs of 0 disables the background refresh job.
	RefreshIntervalSecs int
	FearGreedLimit      int

	RedisURL     string
	RedisChannel string

	CORSAllowedOrigins string
	MetricsEnabled     bool
}

func Load() *Config {
	log := zap.S()

	cfg := &Config{
		HTTPPort:           strings.TrimSpace(os.Getenv("HTTP_PORT")),
		CoinGeckoBaseURL:   strings.TrimSpace(os.Getenv("COINGECKO_BASE_URL")),
		DefiLlamaBaseURL:   strings.TrimSpace(os.Getenv("DEFILLAMA_BASE_URL")),
		FearGreedBaseURL:   strings.TrimSpace(os.Getenv("FEAR_GREED_BASE_URL")),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		RedisChannel:       strings.TrimSpace(os.Getenv("REDIS_CHANNEL")),
		CORSAllowedOrigins: strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, dashboard publishing disabled")
	}
	if cfg.RedisChannel == "" {
		cfg.RedisChannel = "market-pulse:dashboard"
	}
	if cfg.CORSAllowedOrigins == "" {
		cfg.CORSAllowedOrigins = "*"
	}

	cfg.HTTPTimeoutSecs = 5
	if v := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeoutSecs = n
		} else {
			log.Warnw("invalid HTTP_TIMEOUT_SECS, using default", "value", v, "default", cfg.HTTPTimeoutSecs)
		}
	}

	cfg.RefreshIntervalSecs = 60
	if v := strings.TrimSpace(os.Getenv("REFRESH_INTERVAL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RefreshIntervalSecs = n
		} else {
			log.Warnw("invalid REFRESH_INTERVAL_SECS, using default", "value", v, "default", cfg.RefreshIntervalSecs)
		}
	}
	if cfg.RefreshIntervalSecs == 0 {
		log.Info("REFRESH_INTERVAL_SECS=0, background refresh disabled")
	}

	cfg.FearGreedLimit = 2
	if v := strings.TrimSpace(os.Getenv("FEAR_GREED_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FearGreedLimit = n
		}
	}

	cfg.MetricsEnabled = true
	if v := strings.TrimSpace(os.Getenv("METRICS_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MetricsEnabled = b
		}
	}

	return cfg
}
