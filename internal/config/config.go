package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

// Supported values for Database.Driver.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Server struct {
	Addr               string        `yaml:"addr"`
	ReadHeaderTimeout  time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	ExposeErrorDetails bool          `yaml:"expose_error_details"`
}

type Database struct {
	Driver      string `yaml:"driver"`
	URL         string `yaml:"url" env:"DB_URL"`
	Host        string `yaml:"host" env:"DB_HOST"`
	Port        int    `yaml:"port" env:"DB_PORT"`
	User        string `yaml:"user" env:"DB_USER"`
	Password    string `yaml:"password" env:"DB_PASSWORD"`
	DBName      string `yaml:"dbname" env:"DB_NAME"`
	SSLMode     string `yaml:"sslmode" env:"DB_SSLMODE"`
	Path        string `yaml:"path"`
	Table       string `yaml:"table"`
	MaxConns    int32  `yaml:"max_conns"`
	MinConns    int32  `yaml:"min_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type Client struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
	Client   Client   `yaml:"client"`
}

// Default returns a configuration that runs against a local SQLite file.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
		Database: Database{
			Driver:   DriverSQLite,
			Port:     5432,
			SSLMode:  "disable",
			Path:     "tasks.db",
			Table:    "tasks",
			MaxConns: 10,
			MinConns: 2,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Client: Client{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
	}
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal([]byte(expandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("error parsing config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnv replaces ${NAME} placeholders with environment values.
// Unknown placeholders are left as they are.
func expandEnv(content string) string {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		placeholder := "${" + pair[0] + "}"
		content = strings.ReplaceAll(content, placeholder, pair[1])
	}
	return content
}

func applyEnv(cfg *Config) error {
	// Convert DB_PORT from string to int if it's an environment variable
	if portStr := os.Getenv("DB_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT value: %w", err)
		}
		cfg.Database.Port = port
	}
	for env, field := range map[string]*string{
		"DB_URL":      &cfg.Database.URL,
		"DB_HOST":     &cfg.Database.Host,
		"DB_USER":     &cfg.Database.User,
		"DB_PASSWORD": &cfg.Database.Password,
		"DB_NAME":     &cfg.Database.DBName,
		"DB_SSLMODE":  &cfg.Database.SSLMode,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = def.Server.ReadHeaderTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.Table == "" {
		c.Database.Table = def.Database.Table
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = def.Database.SSLMode
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = def.Database.MaxConns
	}
	if c.Database.MinConns < 0 {
		c.Database.MinConns = 0
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = def.Client.BaseURL
	}
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = def.Client.Timeout
	}
}

// Validate checks that the selected driver has the settings it needs.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPgx, DriverPostgres:
		if c.Database.URL != "" {
			break
		}
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required for driver %q", c.Database.Driver)
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database.dbname is required for driver %q", c.Database.Driver)
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("database.port out of range: %d", c.Database.Port)
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format: %q", c.Log.Format)
	}
	return nil
}

// ConnString returns the postgres connection URL, preferring an explicit url.
func (d Database) ConnString() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// DSN returns the data source name for database/sql drivers.
func (d Database) DSN() string {
	switch d.Driver {
	case DriverSQLite:
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", d.Path)
	default:
		return d.ConnString()
	}
}
