package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// LINE Messaging API
	LineChannelSecret      string
	LineChannelAccessToken string
	LineAPIBaseURL         string

	// Replies
	TypingDelay     time.Duration
	TypingImageURL  string
	FrontendBaseURL string
	Timezone        string

	// Classifier overrides (YAML or JSON)
	ClassifierConfigFile string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration

	// Webhook processing
	EventConcurrency int
	CategoryCacheTTL time.Duration
}

var validBackends = []string{"memory", "sqlite"}

// Load reads the configuration from the environment. Values bound to
// viper (for example cobra flags) take precedence over the environment.
func Load() *Config {
	viper.AutomaticEnv()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineAPIBaseURL:         getEnv("LINE_API_BASE_URL", "https://api.line.me"),

		TypingDelay:     getEnvDuration("TYPING_DELAY", 700*time.Millisecond),
		TypingImageURL:  getEnv("TYPING_IMAGE_URL", ""),
		FrontendBaseURL: getEnv("FRONTEND_BASE_URL", ""),
		Timezone:        getEnv("APP_TIMEZONE", "Asia/Bangkok"),

		ClassifierConfigFile: getEnv("CLASSIFIER_CONFIG_FILE", ""),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/pocketbot.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pocketbot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_transactions"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 50),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),

		EventConcurrency: getEnvInt("EVENT_CONCURRENCY", 8),
		CategoryCacheTTL: getEnvDuration("CATEGORY_CACHE_TTL", 5*time.Minute),
	}

	return cfg
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the settings the webhook server needs.
func (c *Config) Validate() error {
	errs := c.validateCommon()

	if c.LineChannelSecret == "" {
		errs = append(errs, "LINE_CHANNEL_SECRET is required")
	}
	if c.LineChannelAccessToken == "" {
		errs = append(errs, "LINE_CHANNEL_ACCESS_TOKEN is required")
	}
	if u, err := url.Parse(c.LineAPIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid LINE API base URL '%s'", c.LineAPIBaseURL))
	}

	if c.TypingDelay < 0 {
		errs = append(errs, fmt.Sprintf("invalid typing delay %v: must not be negative", c.TypingDelay))
	} else if c.TypingDelay > 10*time.Second {
		errs = append(errs, fmt.Sprintf("invalid typing delay %v: must be at most 10 seconds", c.TypingDelay))
	}

	if c.ClassifierConfigFile != "" {
		if _, err := os.Stat(c.ClassifierConfigFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("classifier config file does not exist: %s", c.ClassifierConfigFile))
		}
	}

	if c.EventConcurrency < 1 {
		errs = append(errs, fmt.Sprintf("invalid event concurrency %d: must be at least 1", c.EventConcurrency))
	}
	if c.CategoryCacheTTL < 0 {
		errs = append(errs, fmt.Sprintf("invalid category cache TTL %v: must not be negative", c.CategoryCacheTTL))
	}

	return joinErrors(errs)
}

// ValidateWorker checks the settings the sync worker needs.
func (c *Config) ValidateWorker() error {
	errs := c.validateCommon()

	if c.DataBackend != "sqlite" {
		errs = append(errs, "sync worker requires the sqlite backend")
	}
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP_URL is required for the sync worker")
	}
	// without a spreadsheet the worker mirrors in memory
	if c.GoogleSpreadsheetID == "" && (c.GoogleCredentialsFile != "" || c.GoogleCredentialsJSON != "") {
		errs = append(errs, "GOOGLE_SPREADSHEET_ID is required when Google credentials are set")
	}
	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}

	if c.SyncBatchSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	return joinErrors(errs)
}

func (c *Config) validateCommon() []string {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	return errs
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := viper.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := viper.GetString(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := viper.GetString(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
