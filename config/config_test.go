package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigUsesDefaultsWithoutEnvironment(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout)
	assert.Contains(t, cfg.GiftNiftyURL, "groww.in")
	assert.Contains(t, cfg.MTFInsightURL, "scanx.trade")
	require.Len(t, cfg.Tickers, 5)
	assert.Equal(t, "Nikkei 225", cfg.Tickers[0].Label)
	assert.Equal(t, "^N225", cfg.Tickers[0].Symbol)
	assert.False(t, cfg.Twitter.Complete())
}

func TestLoadConfigReadsCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TWITTER_API_KEY", "k")
	t.Setenv("TWITTER_API_SECRET", "s")
	t.Setenv("TWITTER_ACCESS_TOKEN", "at")
	t.Setenv("TWITTER_ACCESS_TOKEN_SECRET", "ats")

	cfg := LoadConfig()

	assert.True(t, cfg.Twitter.Complete())
}

func TestLoadConfigAppliesYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yaml := `
gift_nifty_url: "https://mirror.example/gift-nifty"
fetch_timeout_seconds: 5
tickers:
  - label: "Nikkei 225"
    symbol: "^N225"
  - label: "Hang Seng"
    symbol: "^HSI"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o644))
	t.Setenv("CONFIG_FILE", configPath)

	cfg := LoadConfig()

	assert.Equal(t, "https://mirror.example/gift-nifty", cfg.GiftNiftyURL)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	require.Len(t, cfg.Tickers, 2)
	assert.Equal(t, "^HSI", cfg.Tickers[1].Symbol)
	// Untouched keys keep their environment defaults.
	assert.Contains(t, cfg.MTFInsightURL, "scanx.trade")
}

func TestLoadConfigIgnoresMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("tickers: ["), 0o644))
	t.Setenv("CONFIG_FILE", configPath)

	cfg := LoadConfig()

	require.Len(t, cfg.Tickers, 5, "malformed overrides must not clobber defaults")
}
