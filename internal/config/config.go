package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Database
	DatabaseURL string

	// API Configuration
	APIPort            string
	APIHost            string
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	SyncTimeout        time.Duration

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration
	AdminEmail    string
	AdminPassword string

	// Shopify
	ShopifyShopDomain    string
	ShopifyAccessToken   string
	ShopifyAPIVersion    string
	ShopifyWebhookSecret string

	// Sync
	SyncDefaultLimit int
	SyncSchedule     string

	// Kafka
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Environment
	Env       string
	LogLevel  string
	LogFormat string
}

var defaults = map[string]interface{}{
	"DATABASE_URL":         "sqlite://granito.db",
	"API_PORT":             "8080",
	"API_HOST":             "0.0.0.0",
	"CORS_ALLOWED_ORIGINS": "*",
	"REQUEST_TIMEOUT":      "15s",
	"SYNC_TIMEOUT":         "60s",
	"SESSION_TTL":          "12h",
	"SHOPIFY_API_VERSION":  "2024-04",
	"SYNC_DEFAULT_LIMIT":   50,
	"KAFKA_TOPIC":          "shopify-webhooks",
	"KAFKA_GROUP_ID":       "granito-worker",
	"ENV":                  "development",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "text",
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		DatabaseURL:          v.GetString("DATABASE_URL"),
		APIPort:              v.GetString("API_PORT"),
		APIHost:              v.GetString("API_HOST"),
		CORSAllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RequestTimeout:       v.GetDuration("REQUEST_TIMEOUT"),
		SyncTimeout:          v.GetDuration("SYNC_TIMEOUT"),
		SessionSecret:        v.GetString("SESSION_SECRET"),
		SessionTTL:           v.GetDuration("SESSION_TTL"),
		AdminEmail:           v.GetString("ADMIN_EMAIL"),
		AdminPassword:        v.GetString("ADMIN_PASSWORD"),
		ShopifyShopDomain:    v.GetString("SHOPIFY_SHOP_DOMAIN"),
		ShopifyAccessToken:   v.GetString("SHOPIFY_ACCESS_TOKEN"),
		ShopifyAPIVersion:    v.GetString("SHOPIFY_API_VERSION"),
		ShopifyWebhookSecret: v.GetString("SHOPIFY_WEBHOOK_SECRET"),
		SyncDefaultLimit:     v.GetInt("SYNC_DEFAULT_LIMIT"),
		SyncSchedule:         v.GetString("SYNC_SCHEDULE"),
		KafkaBrokers:         splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:           v.GetString("KAFKA_TOPIC"),
		KafkaGroupID:         v.GetString("KAFKA_GROUP_ID"),
		Env:                  v.GetString("ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
	}
}

// Missing lists the required settings that are not configured. The service
// still starts without them; the system check endpoint reports the gaps.
func (c *Config) Missing() []string {
	required := []struct {
		key   string
		value string
	}{
		{"DATABASE_URL", c.DatabaseURL},
		{"SHOPIFY_SHOP_DOMAIN", c.ShopifyShopDomain},
		{"SHOPIFY_ACCESS_TOKEN", c.ShopifyAccessToken},
		{"SHOPIFY_API_VERSION", c.ShopifyAPIVersion},
		{"SESSION_SECRET", c.SessionSecret},
		{"ADMIN_EMAIL", c.AdminEmail},
		{"ADMIN_PASSWORD", c.AdminPassword},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	return missing
}

// ShopifyConfigured reports whether remote calls can be made at all.
func (c *Config) ShopifyConfigured() bool {
	return c.ShopifyShopDomain != "" && c.ShopifyAccessToken != ""
}

// KafkaEnabled reports whether webhooks go through the broker instead of
// being reconciled inline.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
