package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Backend
	BackendURL string
	BackendKey string
	UserID     string

	// Gallery paging
	PageSize int

	// Sync engine
	Debounce         time.Duration // quiet period before a reconciliation runs
	RetryBaseDelay   time.Duration // first retry delay, doubled per attempt
	RetryMaxAttempts int           // load attempts before surfacing the error
	PollInterval     time.Duration // fallback poll while placeholders pending
	MetadataCacheTTL time.Duration // folder list / total count cache

	// Server
	ServerPort string

	// Paths
	SnapshotFile string // $DATA_DIR/gallery.db
	PrefsFile    string // $DATA_DIR/prefs.db

	// Telemetry
	TraceStdout bool

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("PAGE_SIZE", 20)
	viper.SetDefault("DEBOUNCE_MS", 300)
	viper.SetDefault("RETRY_BASE_DELAY_MS", 1000)
	viper.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	viper.SetDefault("POLL_INTERVAL_SECONDS", 30)
	viper.SetDefault("METADATA_CACHE_TTL_SECONDS", 30)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("TRACE_STDOUT", false)
	viper.SetDefault("LOG_LEVEL", "info")

	dataDir := viper.GetString("DATA_DIR")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".config", "gallerysync")
	} else {
		absPath, err := filepath.Abs(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for DATA_DIR: %w", err)
		}
		dataDir = absPath
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	config := &Config{
		BackendURL: viper.GetString("BACKEND_URL"),
		BackendKey: viper.GetString("BACKEND_KEY"),
		UserID:     viper.GetString("USER_ID"),

		PageSize: viper.GetInt("PAGE_SIZE"),

		Debounce:         time.Duration(viper.GetInt("DEBOUNCE_MS")) * time.Millisecond,
		RetryBaseDelay:   time.Duration(viper.GetInt("RETRY_BASE_DELAY_MS")) * time.Millisecond,
		RetryMaxAttempts: viper.GetInt("RETRY_MAX_ATTEMPTS"),
		PollInterval:     time.Duration(viper.GetInt("POLL_INTERVAL_SECONDS")) * time.Second,
		MetadataCacheTTL: time.Duration(viper.GetInt("METADATA_CACHE_TTL_SECONDS")) * time.Second,

		ServerPort: viper.GetString("SERVER_PORT"),

		SnapshotFile: filepath.Join(dataDir, "gallery.db"),
		PrefsFile:    filepath.Join(dataDir, "prefs.db"),

		TraceStdout: viper.GetBool("TRACE_STDOUT"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}
	if config.BackendKey == "" {
		return nil, fmt.Errorf("BACKEND_KEY is required")
	}
	if config.UserID == "" {
		return nil, fmt.Errorf("USER_ID is required")
	}
	if config.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive")
	}

	return config, nil
}
