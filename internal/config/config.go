package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/wekeepgrowing/chronam-reader/pkg/logger"
)

const defaultConfigPath = "./configs/server.yaml"

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      logger.Config  `mapstructure:"log"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Session  SessionConfig  `mapstructure:"session"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// envBindings maps config keys to the environment variables that feed them.
// The first variable that is set wins.
var envBindings = map[string][]string{
	"service.app_url":           {"APP_URL", "NEXT_PUBLIC_APP_URL"},
	"service.environment":       {"APP_ENV"},
	"supabase.url":              {"SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"},
	"supabase.anon_key":         {"SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"},
	"supabase.service_role_key": {"SUPABASE_SERVICE_ROLE_KEY"},
	"supabase.jwt_secret":       {"SUPABASE_JWT_SECRET"},
	"stripe.secret_key":         {"STRIPE_SECRET_KEY"},
	"stripe.publishable_key":    {"STRIPE_PUBLISHABLE_KEY", "NEXT_PUBLIC_STRIPE_PUBLISHABLE_KEY"},
	"stripe.webhook_secret":     {"STRIPE_WEBHOOK_SECRET"},
	"session.secret":            {"SESSION_SECRET"},
}

// LoadConfig reads CONFIG_PATH (default ./configs/server.yaml) and overlays
// environment variables. A .env file in the working directory is loaded
// first when present. A missing config file is allowed; missing required
// values are not.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load builds a Config from the YAML file at path plus the environment,
// without validating it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate reports every required value that is missing.
func (c *Config) Validate() error {
	required := map[string]string{
		"APP_URL":                   c.Service.AppURL,
		"SUPABASE_URL":              c.Supabase.URL,
		"SUPABASE_ANON_KEY":         c.Supabase.AnonKey,
		"SUPABASE_SERVICE_ROLE_KEY": c.Supabase.ServiceRoleKey,
		"SUPABASE_JWT_SECRET":       c.Supabase.JWTSecret,
		"STRIPE_SECRET_KEY":         c.Stripe.SecretKey,
		"STRIPE_PUBLISHABLE_KEY":    c.Stripe.PublishableKey,
		"STRIPE_WEBHOOK_SECRET":     c.Stripe.WebhookSecret,
		"SESSION_SECRET":            c.Session.Secret,
	}

	var missing []string
	for _, name := range sortedKeys(required) {
		if strings.TrimSpace(required[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Cache.Backend != CacheBackendMemory && c.Cache.Backend != CacheBackendRedis {
		return fmt.Errorf("unsupported cache backend %q", c.Cache.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "chronam-reader")
	v.SetDefault("service.environment", "development")
	v.SetDefault("service.app_url", "")

	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.scoped_role", "authenticated")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "")
	v.SetDefault("log.development", false)

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.anon_key", "")
	v.SetDefault("supabase.service_role_key", "")
	v.SetDefault("supabase.jwt_secret", "")
	v.SetDefault("supabase.timeout", "10s")

	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.publishable_key", "")
	v.SetDefault("stripe.webhook_secret", "")

	v.SetDefault("session.secret", "")
	v.SetDefault("session.name", "sb-session")
	v.SetDefault("session.max_age", "168h")

	v.SetDefault("auth.login_path", "/login")
	v.SetDefault("auth.protected_paths", DefaultProtectedPaths)
	v.SetDefault("auth.public_paths", DefaultPublicPaths)

	v.SetDefault("archive.base_url", "https://chroniclingamerica.loc.gov")
	v.SetDefault("archive.timeout", "15s")

	v.SetDefault("cache.backend", CacheBackendMemory)
	v.SetDefault("cache.coalesce_misses", false)
	v.SetDefault("cache.ttl.search", "15m")
	v.SetDefault("cache.ttl.page", "6h")
	v.SetDefault("cache.ttl.titles", "24h")
	v.SetDefault("cache.ttl.default", "1h")
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "chronam:")
}
