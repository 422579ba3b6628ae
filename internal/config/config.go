// Package config loads the application configuration from a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-sql-driver/mysql"
)

// Default configuration values used when a field is missing in the TOML file.
const (
	DefaultConfigPath      = "config.toml"
	DefaultHTTPAddr        = ":8080"
	DefaultDriver          = DriverSQLite
	DefaultSQLitePath      = "contacts.db"
	DefaultMySQLHost       = "localhost:3306"
	DefaultMySQLDatabase   = "test"
	DefaultShutdownTimeout = 10 * time.Second
)

// Supported database drivers. The values are the names the drivers register with database/sql.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config is the root application configuration.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Bootstrap BootstrapConfig `toml:"bootstrap"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP listen address and gin settings.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	GinMode         string   `toml:"gin_mode"`
	RequestLogging  bool     `toml:"request_logging"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// DatabaseConfig selects the driver and holds its connection parameters. Path is only used by
// SQLite, Host/User/Password/Name only by MySQL.
type DatabaseConfig struct {
	Driver          string   `toml:"driver"`
	Path            string   `toml:"path"`
	Host            string   `toml:"host"`
	User            string   `toml:"user"`
	Password        string   `toml:"password"`
	Name            string   `toml:"name"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
}

// BootstrapConfig controls the startup seeding routine.
type BootstrapConfig struct {
	Enabled bool `toml:"enabled"`
}

// Duration is a time.Duration that decodes from TOML strings such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when neither a file nor environment variables are present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:            DefaultHTTPAddr,
			GinMode:         "release",
			RequestLogging:  true,
			ShutdownTimeout: Duration{DefaultShutdownTimeout},
		},
		Database: DatabaseConfig{
			Driver: DefaultDriver,
			Path:   DefaultSQLitePath,
			Host:   DefaultMySQLHost,
			Name:   DefaultMySQLDatabase,
		},
		Bootstrap: BootstrapConfig{
			Enabled: true,
		},
	}
}

// Load reads the TOML file at path on top of the defaults and then applies environment overrides.
// A missing file is not an error; the defaults and the environment are used instead.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides configuration values with the environment variables known from earlier
// versions of the service (PORT, DBUSER, DBPWD, DBHOST, GIN_LOGGING, ...).
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("could not parse PORT env variable: %w", err)
		}
		c.Server.Addr = ":" + v
	}
	if v, ok := lookup("GIN_MODE"); ok && v != "" {
		c.Server.GinMode = v
	}
	if v, ok := lookup("GIN_LOGGING"); ok {
		c.Server.RequestLogging = !strings.EqualFold(v, "off")
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		c.Log.Format = v
	}
	if v, ok := lookup("DBDRIVER"); ok && v != "" {
		c.Database.Driver = v
	}
	if v, ok := lookup("DBPATH"); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup("DBHOST"); ok && v != "" {
		c.Database.Host = v
	}
	if v, ok := lookup("DBUSER"); ok && v != "" {
		c.Database.User = v
	}
	if v, ok := lookup("DBPWD"); ok {
		c.Database.Password = v
	}
	if v, ok := lookup("DBNAME"); ok && v != "" {
		c.Database.Name = v
	}
	return nil
}

// Validate checks the values that cannot be defaulted sensibly.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path must not be empty for the sqlite driver")
		}
	case DriverMySQL:
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("database.host and database.name must not be empty for the mysql driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q (use %q or %q)", c.Database.Driver, DriverSQLite, DriverMySQL)
	}
	return nil
}

// DSN returns the data source name for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == DriverMySQL {
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = c.Host
		mc.DBName = c.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		// An update that writes identical values must still report the row as affected.
		mc.ClientFoundRows = true
		return mc.FormatDSN()
	}
	return SQLiteDSN(c.Path)
}

// SQLiteDSN returns a modernc.org/sqlite DSN for the database file at path. Timestamps are written
// in a sortable format so that ORDER BY on them works on the stored text.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}
