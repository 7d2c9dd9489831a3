// Package config loads the service configuration from defaults, an optional
// YAML file, SHOWCASE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override config
// keys, e.g. SHOWCASE_AUTH_JWT_SECRET for auth.jwt_secret.
const EnvPrefix = "SHOWCASE"

// Config is the top-level showcase configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string   `yaml:"host" mapstructure:"host"`
	Port            int      `yaml:"port" mapstructure:"port"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxUploadSize   string   `yaml:"max_upload_size" mapstructure:"max_upload_size"`
	// TrustProxyHeaders reads the client IP from proxy headers. Leave off
	// unless a reverse proxy in front of the server sets them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers" mapstructure:"trust_proxy_headers"`
}

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// AuthConfig controls token issuance and password hashing.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	JWTExpiry  string `yaml:"jwt_expiry" mapstructure:"jwt_expiry"`
	Issuer     string `yaml:"issuer" mapstructure:"issuer"`
	BcryptCost int    `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
}

// RateLimitConfig controls per-IP request limits.
type RateLimitConfig struct {
	Enabled               bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute     int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	AuthRequestsPerMinute int  `yaml:"auth_requests_per_minute" mapstructure:"auth_requests_per_minute"`
}

// StorageConfig selects where uploaded file contents are kept.
type StorageConfig struct {
	Backend  string   `yaml:"backend" mapstructure:"backend"`
	LocalDir string   `yaml:"local_dir" mapstructure:"local_dir"`
	MaxFiles int      `yaml:"max_files" mapstructure:"max_files"`
	S3       S3Config `yaml:"s3" mapstructure:"s3"`
}

// S3Config holds the bucket settings for the s3 backend. Empty credentials
// fall back to the AWS default chain.
type S3Config struct {
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Region          string `yaml:"region" mapstructure:"region"`
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns a Config pre-filled with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3001,
			CORSOrigins:     []string{"http://localhost:3000"},
			ShutdownTimeout: "15s",
			MaxUploadSize:   "20MB",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Auth: AuthConfig{
			JWTExpiry:  "24h",
			Issuer:     "showcase",
			BcryptCost: 10,
		},
		RateLimit: RateLimitConfig{
			Enabled:               true,
			RequestsPerMinute:     300,
			AuthRequestsPerMinute: 20,
		},
		Storage: StorageConfig{
			Backend:  "local",
			LocalDir: "./uploads",
			MaxFiles: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// NewViper returns a viper instance with every key defaulted and
// SHOWCASE_* environment overrides enabled. Keys must have a default for
// AutomaticEnv to resolve them during Unmarshal.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_upload_size", d.Server.MaxUploadSize)
	v.SetDefault("server.trust_proxy_headers", d.Server.TrustProxyHeaders)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.jwt_expiry", d.Auth.JWTExpiry)
	v.SetDefault("auth.issuer", d.Auth.Issuer)
	v.SetDefault("auth.bcrypt_cost", d.Auth.BcryptCost)

	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_minute", d.RateLimit.RequestsPerMinute)
	v.SetDefault("rate_limit.auth_requests_per_minute", d.RateLimit.AuthRequestsPerMinute)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.local_dir", d.Storage.LocalDir)
	v.SetDefault("storage.max_files", d.Storage.MaxFiles)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile points v at a config file. An empty path searches ./showcase.yaml
// and $HOME/.showcase/showcase.yaml. A missing file is not an error when
// searching; a named file that cannot be read or parsed is.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("showcase")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home + "/.showcase")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes the effective configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every misconfiguration at once. In dev mode an empty JWT
// secret is allowed; the caller generates a random one.
func (c *Config) Validate(dev bool) error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if _, err := c.Server.ShutdownDuration(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Server.UploadLimit(); err != nil {
		errs = append(errs, err)
	}

	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q: want sqlite, mysql or postgres", c.Database.Driver))
	}
	if c.Database.Driver != "sqlite" && c.Database.DSN == "" {
		errs = append(errs, fmt.Errorf("database.dsn is required for %s", c.Database.Driver))
	}

	if c.Auth.JWTSecret == "" && !dev {
		errs = append(errs, errors.New("auth.jwt_secret is required (set SHOWCASE_AUTH_JWT_SECRET or use --dev)"))
	}
	if _, err := c.Auth.Expiry(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost %d out of range [4, 31]", c.Auth.BcryptCost))
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute < 1 || c.RateLimit.AuthRequestsPerMinute < 1) {
		errs = append(errs, errors.New("rate_limit: per-minute limits must be positive when enabled"))
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			errs = append(errs, errors.New("storage.local_dir is required for the local backend"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q: want local or s3", c.Storage.Backend))
	}
	if c.Storage.MaxFiles < 1 {
		errs = append(errs, fmt.Errorf("storage.max_files %d must be positive", c.Storage.MaxFiles))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q: want text or json", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// ShutdownDuration parses server.shutdown_timeout.
func (s ServerConfig) ShutdownDuration() (time.Duration, error) {
	d, err := parseDuration(s.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	return d, nil
}

// UploadLimit parses server.max_upload_size, e.g. "20MB" or "16MiB".
func (s ServerConfig) UploadLimit() (int64, error) {
	n, err := humanize.ParseBytes(s.MaxUploadSize)
	if err != nil {
		return 0, fmt.Errorf("server.max_upload_size: %w", err)
	}
	if n == 0 {
		return 0, errors.New("server.max_upload_size must be positive")
	}
	return int64(n), nil
}

// Expiry parses auth.jwt_expiry.
func (a AuthConfig) Expiry() (time.Duration, error) {
	d, err := parseDuration(a.JWTExpiry)
	if err != nil {
		return 0, fmt.Errorf("auth.jwt_expiry: %w", err)
	}
	return d, nil
}

// parseDuration accepts Go durations plus a whole-day form such as "1d".
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var d time.Duration
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		var err error
		if d, err = time.ParseDuration(s); err != nil {
			return 0, err
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}

// Masked returns a copy with secrets replaced, for display.
func (c *Config) Masked() *Config {
	m := *c
	m.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	m.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	m.Storage.S3.SecretAccessKey = mask(c.Storage.S3.SecretAccessKey)
	m.Database.DSN = maskDSN(c.Database.DSN)
	return &m
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

// maskDSN hides the password of user:password@ style DSNs.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	userinfo := dsn[:at]
	colon := strings.LastIndex(userinfo, ":")
	if colon < 0 || colon < strings.Index(userinfo, "//") {
		return dsn
	}
	return userinfo[:colon+1] + "********" + dsn[at:]
}

// YAML renders the config as YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
