package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

// TestLoadMissingFile expects the defaults when no configuration file exists.
func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultSQLitePath, cfg.Database.Path)
	assert.True(t, cfg.Bootstrap.Enabled)
	assert.Equal(t, DefaultShutdownTimeout, cfg.Server.ShutdownTimeout.Duration)
}

// TestLoadFile expects that values from the file replace the defaults and that missing values keep
// their defaults.
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[log]
level = "debug"
format = "json"

[server]
addr = ":9090"
shutdown_timeout = "3s"

[database]
driver = "mysql"
host = "db:3306"
user = "dirk"
password = "secret"
name = "contacts"

[bootstrap]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout.Duration)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "db:3306", cfg.Database.Host)
	assert.False(t, cfg.Bootstrap.Enabled)
}

// TestLoadInvalidFile expects an error for a file that is not valid TOML.
func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\naddr = "), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envFrom(map[string]string{
		"PORT":        "8181",
		"GIN_LOGGING": "OFF",
		"DBDRIVER":    "mysql",
		"DBHOST":      "localhost:3307",
		"DBUSER":      "dirk",
		"DBPWD":       "bullo92",
		"LOG_LEVEL":   "warn",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":8181", cfg.Server.Addr)
	assert.False(t, cfg.Server.RequestLogging)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "localhost:3307", cfg.Database.Host)
	assert.Equal(t, "dirk", cfg.Database.User)
	assert.Equal(t, "bullo92", cfg.Database.Password)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnvInvalidPort(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envFrom(map[string]string{"PORT": "eighty"}))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = DriverMySQL
	cfg.Database.Name = ""
	assert.Error(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	sqlite := DatabaseConfig{Driver: DriverSQLite, Path: "contacts.db"}
	assert.True(t, strings.HasPrefix(sqlite.DSN(), "file:contacts.db?"))
	assert.Contains(t, sqlite.DSN(), "_time_format=sqlite")

	mysqlCfg := DatabaseConfig{
		Driver:   DriverMySQL,
		Host:     "localhost:3306",
		User:     "dirk",
		Password: "bullo92",
		Name:     "test",
	}
	dsn := mysqlCfg.DSN()
	assert.True(t, strings.HasPrefix(dsn, "dirk:bullo92@tcp(localhost:3306)/test?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.NotContains(t, dsn, "multiStatements")
}
