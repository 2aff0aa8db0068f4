package config

import "time"

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	// AppURL is the public base URL of the reader app, used for Stripe
	// redirect targets.
	AppURL string `mapstructure:"app_url"`
}

// IsProduction reports whether the service runs in production.
func (c ServiceConfig) IsProduction() bool {
	return c.Environment == "production"
}

type SupabaseConfig struct {
	URL            string        `mapstructure:"url"`
	AnonKey        string        `mapstructure:"anon_key"`
	ServiceRoleKey string        `mapstructure:"service_role_key"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type StripeConfig struct {
	SecretKey      string `mapstructure:"secret_key"`
	PublishableKey string `mapstructure:"publishable_key"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	Name   string        `mapstructure:"name"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

// DefaultProtectedPaths are the path prefixes that require a signed-in user.
var DefaultProtectedPaths = []string{
	"/dashboard",
	"/account",
	"/api/chronam-proxy",
	"/api/checkout-sessions",
	"/api/portal-links",
}

// DefaultPublicPaths are never gated, even when they fall under a protected prefix.
var DefaultPublicPaths = []string{
	"/api/webhooks/stripe",
}

type AuthConfig struct {
	LoginPath      string   `mapstructure:"login_path"`
	ProtectedPaths []string `mapstructure:"protected_paths"`
	PublicPaths    []string `mapstructure:"public_paths"`
}
