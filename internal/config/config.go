// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

// Package config loads runtime settings from defaults, a YAML file, the
// environment and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/Aytsuu/Skwela/internal/xdg"
)

// EnvPrefix namespaces environment overrides, e.g. SKWELA_DATABASE_URL.
const EnvPrefix = "SKWELA_"

// EnvironmentDevelopment is the only environment that may run without SMTP
// and with gin in debug mode.
const EnvironmentDevelopment = "development"

// Config is the full runtime configuration.
type Config struct {
	Environment string         `koanf:"environment"`
	HTTP        HTTPConfig     `koanf:"http"`
	Metrics     MetricsConfig  `koanf:"metrics"`
	Log         LogConfig      `koanf:"log"`
	Database    DatabaseConfig `koanf:"database"`
	Redis       RedisConfig    `koanf:"redis"`
	JWT         JWTConfig      `koanf:"jwt"`
	Bcrypt      BcryptConfig   `koanf:"bcrypt"`
	SMTP        SMTPConfig     `koanf:"smtp"`
	Notify      NotifyConfig   `koanf:"notify"`
	Google      GoogleConfig   `koanf:"google"`
	Sentry      SentryConfig   `koanf:"sentry"`
}

// HTTPConfig configures the public API listener and its cookies.
type HTTPConfig struct {
	Addr          string `koanf:"addr"`
	CookieDomain  string `koanf:"cookie_domain"`
	SecureCookies bool   `koanf:"secure_cookies"`
	FrontendURL   string `koanf:"frontend_url"`
}

// MetricsConfig configures the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig selects the log format and minimum level.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL         string `koanf:"url"`
	MaxConns    int32  `koanf:"max_conns"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// RedisConfig configures the OTP cache connection.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// JWTConfig configures access-token signing.
type JWTConfig struct {
	Secret    string        `koanf:"secret"`
	Issuer    string        `koanf:"issuer"`
	Audience  string        `koanf:"audience"`
	AccessTTL time.Duration `koanf:"access_ttl"`
}

// BcryptConfig sets the password hashing work factor.
type BcryptConfig struct {
	Cost int `koanf:"cost"`
}

// SMTPConfig configures outbound mail. An empty Host logs codes instead.
// TLS is "mandatory", "opportunistic" or "none".
type SMTPConfig struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	From     string        `koanf:"from"`
	TLS      string        `koanf:"tls"`
	Timeout  time.Duration `koanf:"timeout"`
}

// NotifyConfig sizes the background delivery pool.
type NotifyConfig struct {
	Workers     int           `koanf:"workers"`
	QueueSize   int           `koanf:"queue_size"`
	SendTimeout time.Duration `koanf:"send_timeout"`
}

// GoogleConfig holds the OAuth client. Google sign-in is off unless ClientID is set.
type GoogleConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url"`
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN string `koanf:"dsn"`
}

// Defaults returns the lowest-precedence layer. Every supported key appears
// here; environment variables for unknown keys are ignored.
func Defaults() map[string]any {
	return map[string]any{
		"environment": EnvironmentDevelopment,

		"http.addr":           ":8080",
		"http.cookie_domain":  "",
		"http.secure_cookies": true,
		"http.frontend_url":   "http://localhost:3000",

		"metrics.addr": "127.0.0.1:9100",
		"log.format":   "json",
		"log.level":    "info",

		"database.url":          "",
		"database.max_conns":    int32(10),
		"database.auto_migrate": false,
		"redis.addr":            "localhost:6379",
		"redis.password":        "",
		"redis.db":              0,

		"jwt.secret":     "",
		"jwt.issuer":     "",
		"jwt.audience":   "",
		"jwt.access_ttl": "60m",
		"bcrypt.cost":    12,

		"smtp.host":     "",
		"smtp.port":     587,
		"smtp.username": "",
		"smtp.password": "",
		"smtp.from":     "",
		"smtp.tls":      "mandatory",
		"smtp.timeout":  "15s",

		"notify.workers":      4,
		"notify.queue_size":   256,
		"notify.send_timeout": "30s",

		"google.client_id":     "",
		"google.client_secret": "",
		"google.redirect_url":  "",
		"sentry.dsn":           "",
	}
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit YAML path. It must exist when set.
	// When empty the XDG config file is read if present.
	ConfigFile string
	// EnvFiles are dotenv files loaded into the process environment first.
	// Missing files are skipped; variables already set are not overridden.
	EnvFiles []string
	// Flags are applied last. Only flags the user changed take effect.
	Flags *pflag.FlagSet
	// FlagKeys maps flag names to config keys, e.g. "http-addr" to "http.addr".
	FlagKeys map[string]string
	// Check replaces (*Config).Validate, for commands that need only part
	// of the configuration.
	Check func(*Config) error
}

// Load builds a Config from all layers and validates it.
func Load(opts Options) (*Config, error) {
	for _, path := range opts.EnvFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_INVALID").With("env_file", path).Wrap(err)
		}
	}

	k := koanf.New(".")
	defaults := Defaults()
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("layer", "defaults").Wrap(err)
	}

	path, required, err := configPath(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return nil, oops.Code("CONFIG_INVALID").With("file", path).Wrap(err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyMapper(defaults)), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("layer", "env").Wrap(err)
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := opts.FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("layer", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("layer", "unmarshal").Wrap(err)
	}
	check := opts.Check
	if check == nil {
		check = (*Config).Validate
	}
	if err := check(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configPath(explicit string) (path string, required bool, err error) {
	if explicit != "" {
		return explicit, true, nil
	}
	path, err = xdg.ConfigFile()
	if err != nil {
		// No home directory is not fatal; env and flags still apply.
		return "", false, nil //nolint:nilerr // optional layer
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return "", false, nil
	}
	return path, false, nil
}

// envKeyMapper turns SKWELA_JWT_ACCESS_TTL into jwt.access_ttl by matching
// against the known keys, since both "." and "_" appear in key names.
func envKeyMapper(known map[string]any) func(string) string {
	byEnv := make(map[string]string, len(known))
	for key := range known {
		byEnv[strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	return func(name string) string {
		return byEnv[strings.TrimPrefix(name, EnvPrefix)]
	}
}

// Validate reports the first missing or malformed setting.
func (c *Config) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("field", field).Errorf(format, args...)
	}

	switch {
	case c.Database.URL == "":
		return invalid("database.url", "database url is required")
	case c.Redis.Addr == "":
		return invalid("redis.addr", "redis address is required")
	case c.JWT.Secret == "":
		return invalid("jwt.secret", "jwt secret is required")
	case c.JWT.Issuer == "":
		return invalid("jwt.issuer", "jwt issuer is required")
	case c.JWT.Audience == "":
		return invalid("jwt.audience", "jwt audience is required")
	case c.JWT.AccessTTL <= 0:
		return invalid("jwt.access_ttl", "jwt access ttl must be positive")
	case c.HTTP.Addr == "":
		return invalid("http.addr", "http address is required")
	case c.Log.Format != "json" && c.Log.Format != "text":
		return invalid("log.format", "log format must be 'json' or 'text', got %q", c.Log.Format)
	case c.SMTP.TLS != "mandatory" && c.SMTP.TLS != "opportunistic" && c.SMTP.TLS != "none":
		return invalid("smtp.tls", "smtp tls must be mandatory, opportunistic or none, got %q", c.SMTP.TLS)
	case c.SMTP.Host != "" && c.SMTP.From == "":
		return invalid("smtp.from", "smtp from address is required when smtp host is set")
	case c.Google.ClientID != "" && (c.Google.ClientSecret == "" || c.Google.RedirectURL == ""):
		return invalid("google", "google client secret and redirect url are required with a client id")
	case c.Notify.Workers < 1:
		return invalid("notify.workers", "notify workers must be at least 1")
	}
	return nil
}

// ValidateDatabase checks only what schema migrations need.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").With("field", "database.url").Errorf("database url is required")
	}
	return nil
}

// SMTPEnabled reports whether codes are emailed rather than logged.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != ""
}

// GoogleEnabled reports whether federated sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.Google.ClientID != ""
}
