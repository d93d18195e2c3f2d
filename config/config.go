package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	str2duration "github.com/xhit/go-str2duration/v2"

	"pocketSignalBot/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Telegram
	TelegramToken string
	PollTimeout   time.Duration // Long-poll timeout for the Bot API

	// Broker session
	BrokerEndpoint string
	SessionID      string
	Demo           bool

	// Trading Parameters
	TradeAmount float64 // Initial stake for every signal chain

	// Per-channel signal sources with their loss-recovery settings.
	// Keyed by Telegram channel ID.
	Channels map[int64]domain.MartingaleConfig

	// Database
	DBPath string

	// Reporting
	ReportInterval time.Duration
	CSVExportPath  string // Session CSV written on shutdown; empty disables export

	// Logging
	LogLevel string

	// Connection Settings
	OutcomePollInterval  time.Duration // Delay between settlement checks on an open order
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// LoadConfig loads configuration from environment variables (.env file) and
// the channels file.
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Telegram
	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	if cfg.TelegramToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN must be set")
	}

	cfg.PollTimeout, err = getEnvAsDuration("TELEGRAM_POLL_TIMEOUT", "10s")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TELEGRAM_POLL_TIMEOUT: %v", err))
	}

	// Broker session
	cfg.BrokerEndpoint = getEnv("BROKER_ENDPOINT", "")
	cfg.SessionID = getEnv("BROKER_SESSION_ID", "")
	if cfg.SessionID == "" {
		errs = append(errs, "BROKER_SESSION_ID must be set")
	}
	cfg.Demo = getEnvAsBool("BROKER_DEMO", true) // Default to demo for safety

	// Trading Parameters
	cfg.TradeAmount, err = getEnvAsFloatRequired("TRADE_AMOUNT", 1.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TRADE_AMOUNT: %v", err))
	} else if cfg.TradeAmount <= 0 {
		errs = append(errs, "TRADE_AMOUNT must be positive")
	}

	// Channels
	channelsPath := getEnv("CHANNELS_PATH", "./channels.json")
	cfg.Channels, err = loadChannels(channelsPath)
	if err != nil {
		errs = append(errs, fmt.Sprintf("loading channels from %s: %v", channelsPath, err))
	} else if len(cfg.Channels) == 0 {
		errs = append(errs, fmt.Sprintf("no channels configured in %s", channelsPath))
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/signal_bot.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Reporting
	cfg.ReportInterval, err = getEnvAsDuration("REPORT_INTERVAL", "1s")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REPORT_INTERVAL: %v", err))
	}
	cfg.CSVExportPath = getEnv("CSV_EXPORT_PATH", "")

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "INFO")

	// Connection Settings
	cfg.OutcomePollInterval, err = getEnvAsDuration("OUTCOME_POLL_INTERVAL", "1s")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid OUTCOME_POLL_INTERVAL: %v", err))
	}

	cfg.ReconnectDelay, err = getEnvAsDuration("RECONNECT_DELAY", "5s")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RECONNECT_DELAY: %v", err))
	}

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 5)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// AllowedChats returns the configured channel IDs.
func (c *Config) AllowedChats() []int64 {
	ids := make([]int64, 0, len(c.Channels))
	for id := range c.Channels {
		ids = append(ids, id)
	}
	return ids
}

// loadChannels reads the per-channel martingale settings file. The file maps
// channel IDs (as JSON object keys) to their settings:
//
//	{"-1001234567890": {"mtgl_enabled": true, "mtgl_level": 2, "mtgl_increment_percent": 2.3}}
func loadChannels(path string) (map[int64]domain.MartingaleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]domain.MartingaleConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing channels file: %w", err)
	}

	channels := make(map[int64]domain.MartingaleConfig, len(raw))
	for key, mtgl := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid channel ID %q: %w", key, err)
		}
		if mtgl.MaxLevel <= 0 {
			mtgl.MaxLevel = domain.DefaultMartingaleConfig().MaxLevel
		}
		if mtgl.IncrementPercent <= 0 {
			mtgl.IncrementPercent = domain.DefaultMartingaleConfig().IncrementPercent
		}
		channels[id] = mtgl
	}
	return channels, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts compound duration strings like "1m30s" or "90s".
func getEnvAsDuration(key, defaultValue string) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	value, err := str2duration.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value '%s' for key %s: %w", valueStr, key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("duration for key %s must be positive", key)
	}
	return value, nil
}
