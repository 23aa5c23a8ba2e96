package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the judge API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	JudgeURL         string
	JudgeAuthToken   string
	JudgePollMs      time.Duration
	JudgePollMax     time.Duration
	JudgeWaitBudget  time.Duration
	ProgressCacheTTL time.Duration
	EventChannelBase string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ARENA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CodeArena Judge API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("judge.poll_interval_ms", 500)
	v.SetDefault("judge.poll_max_ms", 3000)
	v.SetDefault("judge.wait_budget_ms", 60000)
	v.SetDefault("progress.cache_ttl", "5m")
	v.SetDefault("events.channel_base", "codearena")

	ttlString := v.GetString("progress.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	pollMs := v.GetInt("judge.poll_interval_ms")
	if pollMs <= 0 {
		pollMs = 500
	}
	pollMaxMs := v.GetInt("judge.poll_max_ms")
	if pollMaxMs <= 0 {
		pollMaxMs = 3000
	}
	waitBudgetMs := v.GetInt("judge.wait_budget_ms")
	if waitBudgetMs <= 0 {
		waitBudgetMs = 60000
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		JudgeURL:         strings.TrimRight(v.GetString("judge.url"), "/"),
		JudgeAuthToken:   v.GetString("judge.auth_token"),
		JudgePollMs:      time.Duration(pollMs) * time.Millisecond,
		JudgePollMax:     time.Duration(pollMaxMs) * time.Millisecond,
		JudgeWaitBudget:  time.Duration(waitBudgetMs) * time.Millisecond,
		ProgressCacheTTL: ttl,
		EventChannelBase: v.GetString("events.channel_base"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.JudgeURL == "" {
		return Config{}, fmt.Errorf("judge url must be provided")
	}

	return cfg, nil
}
