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
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// State storage
	StorageBackend string
	StorageKey     string
	SQLiteDBPath   string
	FileStoreDir   string
	PersistTimeout time.Duration

	// IDScheme selects the generator for new entities.
	IDScheme string

	// AMQP (optional change events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	EventBuffer  int

	// Dashboard
	DashboardCacheSize int
	DashboardCacheTTL  time.Duration

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

var (
	validBackends  = []string{"memory", "file", "sqlite"}
	validIDSchemes = []string{"ulid", "uuid"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		StorageBackend: getEnv("STORAGE_BACKEND", "sqlite"),
		StorageKey:     getEnv("STORAGE_KEY", "finance-store"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),
		FileStoreDir:   getEnv("FILE_STORE_DIR", "./data"),
		PersistTimeout: getEnvDuration("PERSIST_TIMEOUT", 2*time.Second),

		IDScheme: strings.ToLower(getEnv("ID_SCHEME", "ulid")),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack.events"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "fintrack.export"),
		EventBuffer:  getEnvInt("EVENT_BUFFER", 256),

		DashboardCacheSize: getEnvInt("DASHBOARD_CACHE_SIZE", 64),
		DashboardCacheTTL:  getEnvDuration("DASHBOARD_CACHE_TTL", 5*time.Minute),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if !slices.Contains(validBackends, c.StorageBackend) {
		errors = append(errors, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.StorageBackend, validBackends))
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	}

	switch c.StorageBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(filepath.Dir(c.SQLiteDBPath)); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create SQLite database directory: %v", err))
		}
	case "file":
		if c.FileStoreDir == "" {
			errors = append(errors, "file store directory cannot be empty when using file backend")
		} else if err := ensureDir(c.FileStoreDir); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create file store directory: %v", err))
		}
	}

	if c.PersistTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid persist timeout %v: must be positive", c.PersistTimeout))
	}

	if !slices.Contains(validIDSchemes, c.IDScheme) {
		errors = append(errors, fmt.Sprintf("invalid id scheme '%s': must be one of %v", c.IDScheme, validIDSchemes))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.EventBuffer < 1 {
			errors = append(errors, fmt.Sprintf("invalid event buffer %d: must be at least 1", c.EventBuffer))
		}
	}

	if c.DashboardCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache size %d: must be at least 1", c.DashboardCacheSize))
	}
	if c.DashboardCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache TTL %v: must be at least 1 second", c.DashboardCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateExport checks the settings the spreadsheet export needs on top of
// Validate.
func (c *Config) ValidateExport() error {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for export")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for export")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("export configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func ensureDir(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
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
