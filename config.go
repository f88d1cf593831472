package sqlmig

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/james-darko/gort"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost = "localhost"
	defaultPort = 3306
)

// Credentials describe how to reach the database.
type Credentials struct {
	// Driver is the database/sql driver name. Defaults to "mysql".
	Driver   string `yaml:"driver,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	// URL is a complete DSN. When set it is used verbatim by DSN.
	URL string `yaml:"url,omitempty"`
	// Params are extra DSN parameters such as charset or tls.
	Params map[string]string `yaml:"params,omitempty"`
}

// Empty reports whether no connection target has been supplied.
func (c *Credentials) Empty() bool {
	return c == nil || (c.URL == "" && c.User == "" && c.Host == "" && c.Database == "")
}

func (c *Credentials) DriverName() string {
	if c == nil || c.Driver == "" {
		return "mysql"
	}
	return c.Driver
}

// DSN renders the data source name. parseTime is always enabled so TIMESTAMP
// columns scan into time.Time.
func (c *Credentials) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	host := c.Host
	if host == "" {
		host = defaultHost
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = c.Database
	cfg.ParseTime = true
	if len(c.Params) > 0 {
		cfg.Params = make(map[string]string, len(c.Params))
		for k, v := range c.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN()
}

// Config is the on-disk configuration: credentials plus the directories
// migration definitions are discovered in.
type Config struct {
	Credentials *Credentials `yaml:"credentials,omitempty"`
	// MigrationPaths are scanned for migration definition files.
	MigrationPaths []string `yaml:"migration_paths,omitempty"`
	// MainMigrationPath is where make-migration writes new files.
	MainMigrationPath string `yaml:"main_migration_path,omitempty"`
}

// LoadEnv loads .env style files into the process environment. Files that do
// not exist are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("could not load env file %s: %w", file, err)
		}
	}
	return nil
}

// LoadConfig reads the YAML file at path, if path is not empty, and overlays
// environment variables.
//
// Env vars:
//
// DATABASE_URL: optional. A complete DSN, kept as given. For mysql the
// database name is read from it.
//
// DATABASE_DRIVER: optional. Defaults to "mysql".
//
// DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_DATABASE: optional, each
// overrides the matching credential. With a mysql DATABASE_URL they are
// applied to the parsed DSN; its other parameters are kept.
//
// MIGRATION_PATHS: optional. Comma separated list of migration directories.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	creds := c.Credentials
	if creds == nil {
		creds = &Credentials{}
	}
	if v, ok := gort.Env("DATABASE_DRIVER"); ok && v != "" {
		creds.Driver = v
	}
	if v, ok := gort.Env("DATABASE_URL"); ok && v != "" {
		creds.URL = v
	}
	var o dsnOverrides
	if v, ok := gort.Env("DB_HOST"); ok && v != "" {
		o.host = &v
	}
	if v, ok := gort.Env("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_PORT is not a number: %q", v)
		}
		o.port = &port
	}
	if v, ok := gort.Env("DB_USER"); ok && v != "" {
		o.user = &v
	}
	if v, ok := gort.Env("DB_PASSWORD"); ok {
		o.password = &v
	}
	if v, ok := gort.Env("DB_DATABASE"); ok && v != "" {
		o.database = &v
	}
	o.apply(creds)
	if creds.URL != "" && creds.DriverName() == "mysql" {
		if err := o.applyDSN(creds); err != nil {
			return err
		}
	}
	if !creds.Empty() || creds.Driver != "" {
		c.Credentials = creds
	}
	if v, ok := gort.Env("MIGRATION_PATHS"); ok && v != "" {
		c.MigrationPaths = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.MigrationPaths = append(c.MigrationPaths, p)
			}
		}
	}
	return nil
}

// dsnOverrides holds the DB_* variables that were set.
type dsnOverrides struct {
	host, user, password, database *string
	port                           *int
}

func (o dsnOverrides) empty() bool {
	return o.host == nil && o.port == nil && o.user == nil && o.password == nil && o.database == nil
}

func (o dsnOverrides) apply(creds *Credentials) {
	if o.host != nil {
		creds.Host = *o.host
	}
	if o.port != nil {
		creds.Port = *o.port
	}
	if o.user != nil {
		creds.User = *o.user
	}
	if o.password != nil {
		creds.Password = *o.password
	}
	if o.database != nil {
		creds.Database = *o.database
	}
}

// applyDSN parses a mysql URL, fills the database name from it and, when any
// override is set, rewrites the URL with the overrides applied. Network
// type, tls and the other parameters survive the rewrite.
func (o dsnOverrides) applyDSN(creds *Credentials) error {
	parsed, err := mysql.ParseDSN(creds.URL)
	if err != nil {
		return fmt.Errorf("could not parse DATABASE_URL: %w", err)
	}
	if o.empty() {
		creds.Database = parsed.DBName
		return nil
	}
	if o.host != nil || o.port != nil {
		host, port := defaultHost, strconv.Itoa(defaultPort)
		if parsed.Net == "tcp" {
			if h, p, err := net.SplitHostPort(parsed.Addr); err == nil {
				host, port = h, p
			}
		}
		if o.host != nil {
			host = *o.host
		}
		if o.port != nil {
			port = strconv.Itoa(*o.port)
		}
		parsed.Net = "tcp"
		parsed.Addr = net.JoinHostPort(host, port)
	}
	if o.user != nil {
		parsed.User = *o.user
	}
	if o.password != nil {
		parsed.Passwd = *o.password
	}
	if o.database != nil {
		parsed.DBName = *o.database
	}
	creds.URL = parsed.FormatDSN()
	creds.Database = parsed.DBName
	return nil
}

// Validate checks that every configured migration path is an existing
// directory.
func (c *Config) Validate() error {
	paths := c.MigrationPaths
	if c.MainMigrationPath != "" {
		paths = append([]string{c.MainMigrationPath}, paths...)
	}
	for _, dir := range paths {
		if err := CheckDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// CheckDir returns an InvalidMigrationDirectoryError unless dir is a directory.
func CheckDir(dir string) error {
	info, err := os.Stat(filepath.Clean(dir))
	if err != nil {
		return &InvalidMigrationDirectoryError{Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return &InvalidMigrationDirectoryError{Dir: dir}
	}
	return nil
}

// Save writes the configuration back to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
