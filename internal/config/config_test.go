package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Catalog.Driver)
	assert.Equal(t, "https://www.marktplaats.nl", cfg.Scrape.BaseURL)
	assert.Equal(t, 30, cfg.Scrape.TimeoutSecs)
	assert.Equal(t, 5, cfg.Scrape.MaxRedirects)
	assert.Equal(t, 250, cfg.Scrape.DelayMillis)
	assert.Equal(t, 3, cfg.Scrape.Concurrency)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Contains(t, cfg.Scrape.UserAgent, "Mozilla/5.0")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SHOPSYNC_SCRAPE_CONCURRENCY", "7")
	t.Setenv("SHOPSYNC_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Scrape.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger_RejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
