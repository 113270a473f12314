// Package config loads server configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gameshelf/gameshelf-server/internal/logger"
	"github.com/gameshelf/gameshelf-server/internal/storage"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Catalog CatalogConfig
	Server  ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json or pretty; empty picks by environment
}

// StorageConfig selects where the collection snapshot lives.
type StorageConfig struct {
	Backend   storage.Backend
	DataPath  string // directory for the badger, sqlite and file backends
	Key       string // key the collection snapshot is stored under
	Namespace string // optional key prefix, for sharing one redis between servers
	RedisURL  string
	// Watch reloads the collection when the file backend is edited externally.
	Watch bool
}

// CatalogConfig configures the RAWG client and its response cache.
type CatalogConfig struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	RPS       float64
	Burst     int
	CacheTTL  time.Duration // 0 disables the cache
	CacheSize int
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port            string
	CORSOrigins     []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    float64 // per client IP; 0 disables
	RateLimitBurst  int
}

var validEnvironments = []string{"development", "staging", "production"}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("gameshelf", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, pretty)")

	backend := fs.String("storage", "", "Storage backend (badger, sqlite, file, redis, memory)")
	dataPath := fs.String("data-path", "", "Directory for collection data")
	key := fs.String("collection-key", "", "Storage key of the collection snapshot")
	namespace := fs.String("namespace", "", "Storage key namespace")
	redisURL := fs.String("redis-url", "", "Redis URL for the redis backend")
	watch := fs.String("watch", "", "Reload the collection when the file backend changes (default: true)")

	apiKey := fs.String("rawg-api-key", "", "RAWG API key")
	baseURL := fs.String("rawg-base-url", "", "RAWG API base URL")
	catalogTimeout := fs.String("rawg-timeout", "", "RAWG request timeout (default: 15s)")
	catalogRPS := fs.String("rawg-rps", "", "Outbound RAWG requests per second (default: 4)")
	catalogBurst := fs.String("rawg-burst", "", "Outbound RAWG burst (default: 8)")
	cacheTTL := fs.String("catalog-cache-ttl", "", "Catalog response cache TTL, 0 to disable (default: 10m)")
	cacheSize := fs.String("catalog-cache-size", "", "Catalog response cache entries (default: 2048)")

	port := fs.String("port", "", "Server port (default: 8080)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	shutdownTimeout := fs.String("shutdown-timeout", "", "Graceful shutdown timeout (default: 10s)")
	rateRPS := fs.String("rate-limit-rps", "", "Inbound requests per second per client, 0 to disable (default: 20)")
	rateBurst := fs.String("rate-limit-burst", "", "Inbound burst per client (default: 40)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue(*logFormat, "LOG_FORMAT", ""),
		},
		Storage: StorageConfig{
			Backend:   storage.Backend(getConfigValue(*backend, "STORAGE_BACKEND", string(storage.BackendBadger))),
			DataPath:  getConfigValue(*dataPath, "DATA_PATH", ""),
			Key:       getConfigValue(*key, "COLLECTION_KEY", "gameCollection"),
			Namespace: getConfigValue(*namespace, "STORAGE_NAMESPACE", ""),
			RedisURL:  getConfigValue(*redisURL, "REDIS_URL", ""),
			Watch:     getBoolConfigValue(*watch, "WATCH_STORAGE", true),
		},
		Catalog: CatalogConfig{
			APIKey:    getConfigValue(*apiKey, "RAWG_API_KEY", ""),
			BaseURL:   getConfigValue(*baseURL, "RAWG_BASE_URL", "https://api.rawg.io/api"),
			Burst:     getIntConfigValue(*catalogBurst, "RAWG_BURST", 8),
			RPS:       getFloatConfigValue(*catalogRPS, "RAWG_RPS", 4),
			CacheSize: getIntConfigValue(*cacheSize, "CATALOG_CACHE_SIZE", 2048),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*port, "SERVER_PORT", "8080"),
			CORSOrigins:    splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
			RateLimitRPS:   getFloatConfigValue(*rateRPS, "RATE_LIMIT_RPS", 20),
			RateLimitBurst: getIntConfigValue(*rateBurst, "RATE_LIMIT_BURST", 40),
		},
	}

	durations := []struct {
		dst      *time.Duration
		flag     string
		envKey   string
		fallback string
	}{
		{&cfg.Catalog.Timeout, *catalogTimeout, "RAWG_TIMEOUT", "15s"},
		{&cfg.Catalog.CacheTTL, *cacheTTL, "CATALOG_CACHE_TTL", "10m"},
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Server.ShutdownTimeout, *shutdownTimeout, "SHUTDOWN_TIMEOUT", "10s"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}
	if !slices.Contains(validEnvironments, c.App.Environment) {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	if _, err := logger.ParseLevel(c.Logger.Level); err != nil || c.Logger.Level == "" {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if !logger.ValidFormat(c.Logger.Format) {
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if !c.Storage.Backend.Valid() {
		return fmt.Errorf("invalid storage backend: %s (must be one of %v)", c.Storage.Backend, storage.Backends())
	}
	if c.Storage.Key == "" {
		return errors.New("collection key cannot be empty")
	}
	switch c.Storage.Backend {
	case storage.BackendRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis backend")
		}
	case storage.BackendMemory:
	default:
		if c.Storage.DataPath == "" {
			return errors.New("data path cannot be empty after expansion")
		}
	}

	if c.Catalog.RPS <= 0 || c.Catalog.Burst <= 0 {
		return errors.New("RAWG rate limit must be positive")
	}
	if c.Catalog.CacheTTL < 0 {
		return errors.New("catalog cache TTL cannot be negative")
	}
	if c.Server.RateLimitRPS < 0 {
		return errors.New("rate limit cannot be negative")
	}

	// An empty RAWG API key is allowed: the collection works offline and
	// catalog routes report the missing key.

	return nil
}

// BackendPath returns where the selected backend keeps its data: a directory
// for badger and file, a database file for sqlite, and "" otherwise.
func (s StorageConfig) BackendPath() string {
	switch s.Backend {
	case storage.BackendBadger:
		return filepath.Join(s.DataPath, "badger")
	case storage.BackendSQLite:
		return filepath.Join(s.DataPath, "gameshelf.db")
	case storage.BackendFile:
		return filepath.Join(s.DataPath, "collection")
	default:
		return ""
	}
}

// ListenAddr returns the address the HTTP server binds.
func (c *Config) ListenAddr() string {
	return ":" + c.Server.Port
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data directory to ~/GameShelf/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "GameShelf", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
