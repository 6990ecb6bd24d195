package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// Telegram
	BotToken string `toml:"bot_token"`

	// Storage
	DataBackend  string `toml:"data_backend"`
	SQLiteDBPath string `toml:"sqlite_db_path"`
	PostgresURL  string `toml:"postgres_url"`

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Health endpoint
	HealthPort string `toml:"health_port"`

	// Conversation
	FlowTTL       time.Duration `toml:"-"`
	FlowCacheSize int           `toml:"flow_cache_size"`
	HistoryLimit  int           `toml:"history_limit"`
	Categories    []string      `toml:"categories"`

	// Import
	MaxImportBytes int64 `toml:"max_import_bytes"`

	LogLevel string `toml:"log_level"`

	// Google Sheets mirror, disabled when GoogleSpreadsheetID is empty
	GoogleSpreadsheetID      string `toml:"google_spreadsheet_id"`
	GoogleSheetName          string `toml:"google_sheet_name"`
	GoogleServiceAccountJSON string `toml:"-"`
	GoogleServiceAccountFile string `toml:"google_service_account_file"`
}

// fileConfig mirrors Config for the TOML overlay; durations are strings there.
type fileConfig struct {
	Config
	FlowTTL string `toml:"flow_ttl"`
}

var DefaultCategories = []string{"Food", "Transport", "Shopping", "Bills", "Other"}

var validBackends = []string{"memory", "sqlite", "postgres"}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		DataBackend:     "sqlite",
		SQLiteDBPath:    "./data/fintrack.db",
		AMQPExchange:    "fintrack",
		AMQPQueue:       "expense_events",
		HealthPort:      "8081",
		FlowTTL:         30 * time.Minute,
		FlowCacheSize:   10000,
		HistoryLimit:    5,
		Categories:      append([]string(nil), DefaultCategories...),
		MaxImportBytes:  5 << 20,
		LogLevel:        "info",
		GoogleSheetName: "Expenses",
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// CONFIG_FILE if any, then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.BotToken = getEnv("BOT_TOKEN", cfg.BotToken)
	cfg.DataBackend = getEnv("DATA_BACKEND", cfg.DataBackend)
	cfg.SQLiteDBPath = getEnv("SQLITE_DB_PATH", cfg.SQLiteDBPath)
	cfg.PostgresURL = getEnv("POSTGRES_URL", cfg.PostgresURL)
	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", cfg.AMQPQueue)
	cfg.HealthPort = getEnv("HEALTH_PORT", cfg.HealthPort)
	cfg.FlowTTL = getEnvDuration("FLOW_TTL", cfg.FlowTTL)
	cfg.FlowCacheSize = getEnvInt("FLOW_CACHE_SIZE", cfg.FlowCacheSize)
	cfg.HistoryLimit = getEnvInt("HISTORY_LIMIT", cfg.HistoryLimit)
	cfg.MaxImportBytes = int64(getEnvInt("MAX_IMPORT_BYTES", int(cfg.MaxImportBytes)))
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", cfg.GoogleSpreadsheetID)
	cfg.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", cfg.GoogleSheetName)
	cfg.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", cfg.GoogleServiceAccountJSON)
	cfg.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", cfg.GoogleServiceAccountFile)
	if v := os.Getenv("CATEGORIES"); v != "" {
		cfg.Categories = splitList(v)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	fc := fileConfig{Config: *c}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	*c = fc.Config
	if fc.FlowTTL != "" {
		d, err := time.ParseDuration(fc.FlowTTL)
		if err != nil {
			return fmt.Errorf("parsing config: flow_ttl: %w", err)
		}
		c.FlowTTL = d
	}
	return nil
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	return joinProblems(c.problems())
}

// ValidateBot is Validate plus the settings only the bot binary needs.
func (c *Config) ValidateBot() error {
	problems := c.problems()
	if strings.TrimSpace(c.BotToken) == "" {
		problems = append(problems, "BOT_TOKEN is required")
	}
	return joinProblems(problems)
}

// ValidateWorker checks what the event worker needs: the broker to consume
// from and a bot token to deliver alerts with.
func (c *Config) ValidateWorker() error {
	problems := c.problems()
	if strings.TrimSpace(c.BotToken) == "" {
		problems = append(problems, "BOT_TOKEN is required")
	}
	if c.AMQPURL == "" {
		problems = append(problems, "AMQP_URL is required for the worker")
	}
	return joinProblems(problems)
}

func (c *Config) problems() []string {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.HealthPort); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.HealthPort))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if c.SQLiteDBPath != ":memory:" {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "postgres" {
		if c.PostgresURL == "" {
			errors = append(errors, "POSTGRES_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.FlowTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid flow TTL %v: must not be negative", c.FlowTTL))
	}
	if c.FlowCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid flow cache size %d: must be at least 1", c.FlowCacheSize))
	}
	if c.HistoryLimit < 1 || c.HistoryLimit > 50 {
		errors = append(errors, fmt.Sprintf("invalid history limit %d: must be between 1 and 50", c.HistoryLimit))
	}
	if c.MaxImportBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid max import size %d: must be positive", c.MaxImportBytes))
	}
	if len(c.Categories) == 0 {
		errors = append(errors, "at least one category is required")
	}

	// Validate the Sheets mirror if enabled
	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	return errors
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
