package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")
	t.Setenv("HH_USER_AGENT", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	t.Run("empty path", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.json"))
		require.NoError(t, err)
		assert.Equal(t, "https://api.hh.ru/vacancies", cfg.Source.BaseURL)
		assert.Equal(t, 20, cfg.Source.MaxPages)
		assert.Equal(t, 100, cfg.Source.PerPage)
		assert.Equal(t, "HH-User-Agent", cfg.Source.UserAgent)
		assert.Equal(t, "RUR", cfg.Ranking.ReferenceCurrency)
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadConfigJSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"source": {"max_pages": 5, "area": "2"}, "ranking": {"reference_currency": "USD", "top_n": 3}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Source.MaxPages)
	assert.Equal(t, "2", cfg.Source.Area)
	assert.Equal(t, "USD", cfg.Ranking.ReferenceCurrency)
	assert.Equal(t, 3, cfg.Ranking.TopN)
	// untouched keys keep defaults
	assert.Equal(t, 100, cfg.Source.PerPage)
	assert.Equal(t, "salary", cfg.Ranking.SortKey)
}

func TestLoadConfigYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
source:
  request_timeout: 5s
  rate_limit: 30
storage:
  backend: supabase
collector:
  search_terms: [java, kotlin]
  interval: 15m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "secret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Source.RequestTimeout)
	assert.Equal(t, 30, cfg.Source.RateLimit)
	assert.Equal(t, []string{"java", "kotlin"}, cfg.Collector.SearchTerms)
	assert.Equal(t, 15*time.Minute, cfg.Collector.Interval)
	assert.Equal(t, "https://example.supabase.co", cfg.Storage.SupabaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	badYAML := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(badYAML, []byte("source: [1, 2"), 0644))
	_, err = LoadConfig(badYAML)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Ranking.TopN = 7
			cfg.Collector.Interval = 90 * time.Second

			path := filepath.Join(dir, name)
			require.NoError(t, cfg.SaveConfig(path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HH_USER_AGENT", "my-agent/1.0 (me@example.com)")

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"source": {"user_agent": "from-file"}}`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "my-agent/1.0 (me@example.com)", cfg.Source.UserAgent)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"disabled source", func(c *Config) { c.Source.Enabled = false }},
		{"no base url", func(c *Config) { c.Source.BaseURL = "" }},
		{"per page too large", func(c *Config) { c.Source.PerPage = 101 }},
		{"no pages", func(c *Config) { c.Source.MaxPages = 0 }},
		{"negative retries", func(c *Config) { c.Source.RetryAttempts = -1 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"supabase without credentials", func(c *Config) { c.Storage.Backend = "supabase" }},
		{"no currency", func(c *Config) { c.Ranking.ReferenceCurrency = "" }},
		{"negative top", func(c *Config) { c.Ranking.TopN = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
