package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "Normal", cfg.Checkout.ShippingType)
	assert.Equal(t, "storefront.db", cfg.Storage.Path)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
api:
  base_url: https://shop.example.com/api
  timeout: 5s
retry:
  max_attempts: 5
checkout:
  shipping_type: Express
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, "Express", cfg.Checkout.ShippingType)
	// Untouched keys keep defaults.
	assert.Equal(t, "2s", cfg.Retry.MaxDelay.String())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STOREFRONT_API_BASE_URL", "https://env.example.com/api")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/api", cfg.API.BaseURL)
}
