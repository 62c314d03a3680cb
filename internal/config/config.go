/**
 * @description
 * This file handles the configuration management for the membership-service.
 * It uses the 'viper' library to load configuration from environment variables,
 * providing a centralized and consistent way to manage application settings.
 *
 * Missing integration credentials do not prevent startup: the Drupal and
 * Stripe integrations each report whether they are fully configured, and the
 * HTTP layer degrades the corresponding routes instead of crashing.
 */
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	SiteURL     string `mapstructure:"SITE_URL"`

	// Drupal CMS connection (content fetching).
	DrupalBaseURL      string `mapstructure:"DRUPAL_BASE_URL"`
	DrupalClientID     string `mapstructure:"DRUPAL_CLIENT_ID"`
	DrupalClientSecret string `mapstructure:"DRUPAL_CLIENT_SECRET"`

	// Stripe integration (checkout, portal, webhooks).
	StripeSecretKey      string `mapstructure:"STRIPE_SECRET_KEY"`
	StripePublishableKey string `mapstructure:"STRIPE_PUBLISHABLE_KEY"`
	StripePriceID        string `mapstructure:"STRIPE_PRICE_ID"`
	StripeWebhookSecret  string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// Optional subscriber-session signing key. When empty the session
	// cookie is stored as plain JSON.
	SessionSecret string `mapstructure:"SESSION_SECRET"`

	// Optional integrations. When DATABASE_URL is set, webhook-observed
	// entitlement transitions are persisted; when AMQP_URL is set they are
	// also published to a topic exchange.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	AMQPURL     string `mapstructure:"AMQP_URL"`

	// Demo mode serves static sample content and simulates checkout
	// without contacting Drupal or Stripe.
	DemoMode bool `mapstructure:"DEMO_MODE"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("SITE_URL", "http://localhost:3000")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	for _, key := range []string{
		"SERVER_PORT",
		"ENVIRONMENT",
		"SITE_URL",
		"DRUPAL_BASE_URL",
		"DRUPAL_CLIENT_ID",
		"DRUPAL_CLIENT_SECRET",
		"STRIPE_SECRET_KEY",
		"STRIPE_PUBLISHABLE_KEY",
		"STRIPE_PRICE_ID",
		"STRIPE_WEBHOOK_SECRET",
		"SESSION_SECRET",
		"DATABASE_URL",
		"AMQP_URL",
		"DEMO_MODE",
	} {
		_ = viper.BindEnv(key)
	}

	err = viper.Unmarshal(&config)
	return
}

// StripeConfigured reports whether all three values the Stripe integration
// needs are present. Checkout, portal, and subscription verification return
// a service-unavailable response when this is false.
func (c Config) StripeConfigured() bool {
	return c.StripeSecretKey != "" && c.StripePublishableKey != "" && c.StripePriceID != ""
}

// DrupalConfigured reports whether the CMS connection is fully configured.
func (c Config) DrupalConfigured() bool {
	return c.DrupalBaseURL != "" && c.DrupalClientID != "" && c.DrupalClientSecret != ""
}

// IsProduction reports whether the service runs in a production-like
// environment. Controls the Secure flag on the subscriber cookie.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
