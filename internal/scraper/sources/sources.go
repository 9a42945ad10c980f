package sources

import (
	"context"
	"sort"

	"hh-vacancies-go/internal/models"
)

// VacancySource represents a vacancy board that can be searched by keyword
type VacancySource interface {
	GetName() string
	// FetchPages returns one batch per fetched page, in page order. On a transport
	// or decode error the pages collected so far are returned along with the error.
	FetchPages(ctx context.Context, keyword string) ([][]*models.Vacancy, error)
	GetRateLimit() int // requests per minute
	GetBaseURL() string
}

// SourceConfig holds configuration for a registered source
type SourceConfig struct {
	Enabled   bool `json:"enabled"`
	RateLimit int  `json:"rate_limit"`
}

// SourceManager manages all vacancy sources
type SourceManager struct {
	sources map[string]VacancySource
	configs map[string]SourceConfig
}

// NewSourceManager creates a new source manager
func NewSourceManager() *SourceManager {
	return &SourceManager{
		sources: make(map[string]VacancySource),
		configs: make(map[string]SourceConfig),
	}
}

// RegisterSource registers a new vacancy source
func (sm *SourceManager) RegisterSource(source VacancySource, config SourceConfig) {
	sm.sources[source.GetName()] = source
	sm.configs[source.GetName()] = config
}

// GetSource returns a registered source by name
func (sm *SourceManager) GetSource(name string) (VacancySource, bool) {
	source, exists := sm.sources[name]
	return source, exists
}

// GetEnabledSources returns only enabled sources
func (sm *SourceManager) GetEnabledSources() map[string]VacancySource {
	enabled := make(map[string]VacancySource)
	for name, source := range sm.sources {
		if config, exists := sm.configs[name]; exists && config.Enabled {
			enabled[name] = source
		}
	}
	return enabled
}

// GetSourceConfig returns configuration for a source
func (sm *SourceManager) GetSourceConfig(name string) (SourceConfig, bool) {
	config, exists := sm.configs[name]
	return config, exists
}

// Names returns registered source names in alphabetical order
func (sm *SourceManager) Names() []string {
	names := make([]string, 0, len(sm.sources))
	for name := range sm.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
