package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Source     SourceConfig     `json:"source" yaml:"source"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Ranking    RankingConfig    `json:"ranking" yaml:"ranking"`
	Collector  CollectorConfig  `json:"collector" yaml:"collector"`
	Monitoring MonitoringConfig `json:"monitoring" yaml:"monitoring"`
}

// SourceConfig holds configuration of the hh.ru source
type SourceConfig struct {
	Enabled        bool          `json:"enabled" yaml:"enabled"`
	BaseURL        string        `json:"base_url" yaml:"base_url"`
	UserAgent      string        `json:"user_agent" yaml:"user_agent"`
	Area           string        `json:"area" yaml:"area"`
	PerPage        int           `json:"per_page" yaml:"per_page"`
	MaxPages       int           `json:"max_pages" yaml:"max_pages"`
	RateLimit      int           `json:"rate_limit" yaml:"rate_limit"` // requests per minute
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
	RetryAttempts  int           `json:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay     time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	Backend     string `json:"backend" yaml:"backend"` // file or supabase
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	SupabaseURL string `json:"supabase_url" yaml:"supabase_url"`
	SupabaseKey string `json:"supabase_key" yaml:"supabase_key"`
}

// RankingConfig holds defaults of the ranking pipeline
type RankingConfig struct {
	ReferenceCurrency string `json:"reference_currency" yaml:"reference_currency"`
	SortKey           string `json:"sort_key" yaml:"sort_key"`
	TopN              int    `json:"top_n" yaml:"top_n"`
}

// CollectorConfig holds configuration of the periodic collector
type CollectorConfig struct {
	SearchTerms []string      `json:"search_terms" yaml:"search_terms"`
	Interval    time.Duration `json:"interval" yaml:"interval"`
}

// MonitoringConfig holds logging configuration
type MonitoringConfig struct {
	LogLevel string `json:"log_level" yaml:"log_level"`
	LogFile  string `json:"log_file" yaml:"log_file"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Enabled:        true,
			BaseURL:        "https://api.hh.ru/vacancies",
			UserAgent:      envOr("HH_USER_AGENT", "HH-User-Agent"),
			PerPage:        100,
			MaxPages:       20,
			RateLimit:      60,
			RequestTimeout: 30 * time.Second,
			RetryAttempts:  3,
			RetryDelay:     2 * time.Second,
		},
		Storage: StorageConfig{
			Backend:     "file",
			DataDir:     "data",
			SupabaseURL: os.Getenv("SUPABASE_URL"),
			SupabaseKey: os.Getenv("SUPABASE_KEY"),
		},
		Ranking: RankingConfig{
			ReferenceCurrency: "RUR",
			SortKey:           "salary",
			TopN:              10,
		},
		Collector: CollectorConfig{
			SearchTerms: []string{"python", "golang"},
			Interval:    1 * time.Hour,
		},
		Monitoring: MonitoringConfig{
			LogLevel: "info",
			LogFile:  "",
		},
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// A missing file yields the default configuration.
func LoadConfig(filename string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	if filename == "" {
		return config, nil
	}

	// If file doesn't exist, return default config
	data, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if isYAML(filename) {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	config.applyEnv()
	return config, nil
}

// SaveConfig saves configuration to a JSON or YAML file, chosen by extension
func (c *Config) SaveConfig(filename string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !c.Source.Enabled {
		return fmt.Errorf("the hh source must be enabled")
	}

	if c.Source.BaseURL == "" {
		return fmt.Errorf("source base URL is required")
	}

	if c.Source.PerPage <= 0 || c.Source.PerPage > 100 {
		return fmt.Errorf("per page must be between 1 and 100")
	}

	if c.Source.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}

	if c.Source.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}

	switch c.Storage.Backend {
	case "file":
	case "supabase":
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "" {
			return fmt.Errorf("supabase URL and key are required for the supabase backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Ranking.ReferenceCurrency == "" {
		return fmt.Errorf("reference currency is required")
	}

	if c.Ranking.TopN < 0 {
		return fmt.Errorf("top N cannot be negative")
	}

	return nil
}

// applyEnv lets the environment fill secrets the file leaves empty
func (c *Config) applyEnv() {
	if c.Storage.SupabaseURL == "" {
		c.Storage.SupabaseURL = os.Getenv("SUPABASE_URL")
	}
	if c.Storage.SupabaseKey == "" {
		c.Storage.SupabaseKey = os.Getenv("SUPABASE_KEY")
	}
	if ua := os.Getenv("HH_USER_AGENT"); ua != "" {
		c.Source.UserAgent = ua
	}
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
