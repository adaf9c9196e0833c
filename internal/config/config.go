package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DBConfig holds the optional generation history database configuration
type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether a history database was configured
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

// Config holds all configuration for the application
type Config struct {
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	ImageModel           string
	CatalogPath          string
	OutputDir            string
	HTTPTimeout          time.Duration
	ListenAddr           string
	SessionTTL           time.Duration
	GenerationsPerMinute int
	OutputRetention      time.Duration
	PruneSchedule        string
	DB                   DBConfig
}

// Load loads the configuration from environment variables.
// A .env file is read when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:        os.Getenv("OPENAI_BASE_URL"),
		ImageModel:           getEnv("IMAGE_MODEL", "dall-e-3"),
		CatalogPath:          getEnv("CATALOG_PATH", "config.json"),
		OutputDir:            getEnv("OUTPUT_DIR", "images"),
		HTTPTimeout:          getSeconds("HTTP_TIMEOUT", 2*time.Minute),
		ListenAddr:           getEnv("LISTEN_ADDR", ":8080"),
		SessionTTL:           getSeconds("SESSION_TTL", time.Hour),
		GenerationsPerMinute: getInt("GENERATIONS_PER_MINUTE", 0),
		OutputRetention:      time.Duration(getInt("OUTPUT_RETENTION", 0)) * time.Hour,
		PruneSchedule:        getEnv("PRUNE_SCHEDULE", "0 0 * * * *"),
	}

	// Load database configuration
	config.DB = DBConfig{
		Host:            os.Getenv("DB_HOST"),
		Port:            getInt("DB_PORT", 5432),
		User:            os.Getenv("DB_USER"),
		Password:        os.Getenv("DB_PASSWORD"),
		Database:        os.Getenv("DB_NAME"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 5),
		MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getSeconds("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.CatalogPath == "" {
		return fmt.Errorf("CATALOG_PATH is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.GenerationsPerMinute < 0 {
		return fmt.Errorf("GENERATIONS_PER_MINUTE cannot be negative")
	}
	if c.OutputRetention < 0 {
		return fmt.Errorf("OUTPUT_RETENTION cannot be negative")
	}

	// Validate database configuration
	if c.DB.Enabled() {
		if c.DB.User == "" {
			return fmt.Errorf("DB_USER is required when DB_HOST is set")
		}
		if c.DB.Database == "" {
			return fmt.Errorf("DB_NAME is required when DB_HOST is set")
		}
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getSeconds(key string, def time.Duration) time.Duration {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return time.Duration(v) * time.Second
	}
	return def
}
