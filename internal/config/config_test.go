package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshelf/gameshelf-server/internal/storage"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Storage: StorageConfig{
			Backend:  storage.BackendBadger,
			DataPath: "/some/path",
			Key:      "gameCollection",
		},
		Catalog: CatalogConfig{RPS: 4, Burst: 8, CacheTTL: time.Minute},
		Server:  ServerConfig{Port: "8080"},
	}
}

// noEnvFile points Load at a file that does not exist so a developer's .env
// cannot leak into the test.
func noEnvFile(t *testing.T) string {
	t.Helper()
	return "-env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty env", func(c *Config) { c.App.Environment = "" }, "ENV is required"},
		{"unknown env", func(c *Config) { c.App.Environment = "test" }, "invalid environment"},
		{"env is case sensitive", func(c *Config) { c.App.Environment = "PRODUCTION" }, "invalid environment"},
		{"bad level", func(c *Config) { c.Logger.Level = "verbose" }, "invalid log level"},
		{"empty level", func(c *Config) { c.Logger.Level = "" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Logger.Format = "xml" }, "invalid log format"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "mongo" }, "invalid storage backend"},
		{"empty key", func(c *Config) { c.Storage.Key = "" }, "collection key"},
		{"redis without url", func(c *Config) { c.Storage.Backend = storage.BackendRedis }, "REDIS_URL"},
		{"no data path", func(c *Config) { c.Storage.DataPath = "" }, "data path"},
		{"zero catalog rps", func(c *Config) { c.Catalog.RPS = 0 }, "rate limit"},
		{"negative ttl", func(c *Config) { c.Catalog.CacheTTL = -time.Second }, "cache TTL"},
		{"negative inbound limit", func(c *Config) { c.Server.RateLimitRPS = -1 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_MemoryNeedsNoPath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = storage.BackendMemory
	cfg.Storage.DataPath = ""
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"ENV", "LOG_LEVEL", "STORAGE_BACKEND", "DATA_PATH", "RAWG_API_KEY", "SERVER_PORT", "CORS_ORIGINS", "CATALOG_CACHE_TTL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, storage.BackendBadger, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(home, "GameShelf", "data"), cfg.Storage.DataPath)
	assert.Equal(t, "gameCollection", cfg.Storage.Key)
	assert.True(t, cfg.Storage.Watch)
	assert.Equal(t, "https://api.rawg.io/api", cfg.Catalog.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("RAWG_RPS", "2.5")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://shelf.example.com")

	cfg, err := Load([]string{noEnvFile(t), "-port", "9100", "-data-path", "/srv/gameshelf"})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "flag wins over env")
	assert.Equal(t, storage.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/srv/gameshelf", cfg.Storage.DataPath)
	assert.InDelta(t, 2.5, cfg.Catalog.RPS, 0.001)
	assert.Equal(t, []string{"http://localhost:5173", "https://shelf.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RAWG_API_KEY", "")
	t.Setenv("LOG_LEVEL", "")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RAWG_API_KEY=from-file\nexport LOG_LEVEL=debug\n"), 0o644))

	cfg, err := Load([]string{"-env-file", envFile})
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Catalog.APIKey)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CATALOG_CACHE_TTL", "")

	_, err := Load([]string{noEnvFile(t), "-catalog-cache-ttl", "forever"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_CACHE_TTL")
}

func TestLoad_UnknownFlag(t *testing.T) {
	_, err := Load([]string{"-no-such-flag"})
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		def  string
		want string
	}{
		{"empty uses default", "", "/default", "/default"},
		{"tilde", "~/games", "", filepath.Join(home, "games")},
		{"absolute", "/data/../srv", "", "/srv"},
		{"relative", "data", "", filepath.Join(cwd, "data")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.in, tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))
	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestTypedConfigValues(t *testing.T) {
	t.Setenv("TEST_BOOL", "YES")
	t.Setenv("TEST_INT", "not-a-number")
	t.Setenv("TEST_FLOAT", "0.5")

	assert.True(t, getBoolConfigValue("", "TEST_BOOL", false))
	assert.False(t, getBoolConfigValue("off", "TEST_BOOL", true))
	assert.Equal(t, 7, getIntConfigValue("", "TEST_INT", 7))
	assert.Equal(t, 3, getIntConfigValue("3", "TEST_INT", 7))
	assert.InDelta(t, 0.5, getFloatConfigValue("", "TEST_FLOAT", 1), 0.0001)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# comment
GS_TEST_PLAIN=value1

GS_TEST_QUOTED="some value"
  GS_TEST_SPACED  =  spaced value  
GS_TEST_KEEP=from-file
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	t.Setenv("GS_TEST_KEEP", "original")
	for _, k := range []string{"GS_TEST_PLAIN", "GS_TEST_QUOTED", "GS_TEST_SPACED"} {
		t.Setenv(k, "")
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "value1", os.Getenv("GS_TEST_PLAIN"))
	assert.Equal(t, "some value", os.Getenv("GS_TEST_QUOTED"))
	assert.Equal(t, "spaced value", os.Getenv("GS_TEST_SPACED"))
	assert.Equal(t, "original", os.Getenv("GS_TEST_KEEP"), "real env wins over the file")
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VALID=1\nINVALID LINE\n"), 0o644))
	t.Setenv("VALID", "")

	err := loadEnvFile(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format at line 2")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestStorageConfig_BackendPath(t *testing.T) {
	tests := []struct {
		backend storage.Backend
		want    string
	}{
		{storage.BackendBadger, filepath.Join("/data", "badger")},
		{storage.BackendSQLite, filepath.Join("/data", "gameshelf.db")},
		{storage.BackendFile, filepath.Join("/data", "collection")},
		{storage.BackendRedis, ""},
		{storage.BackendMemory, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			s := StorageConfig{Backend: tt.backend, DataPath: "/data"}
			assert.Equal(t, tt.want, s.BackendPath())
		})
	}
}
