package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHOPIFY_SHOP_DOMAIN", "")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("SYNC_DEFAULT_LIMIT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2024-04", cfg.ShopifyAPIVersion)
	assert.Equal(t, 50, cfg.SyncDefaultLimit)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 60*time.Second, cfg.SyncTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.ShopifyConfigured())
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SHOPIFY_SHOP_DOMAIN", "granito-skate")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_test")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("SYNC_DEFAULT_LIMIT", "20")
	t.Setenv("SYNC_TIMEOUT", "2m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.ShopifyConfigured())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, 20, cfg.SyncDefaultLimit)
	assert.Equal(t, 2*time.Minute, cfg.SyncTimeout)
}

func TestMissing(t *testing.T) {
	cfg := &Config{
		DatabaseURL:       "sqlite://test.db",
		ShopifyShopDomain: "granito-skate",
		ShopifyAPIVersion: "2024-04",
		AdminEmail:        "staff@granito.test",
	}

	assert.ElementsMatch(t, []string{
		"SHOPIFY_ACCESS_TOKEN",
		"SESSION_SECRET",
		"ADMIN_PASSWORD",
	}, cfg.Missing())
}
