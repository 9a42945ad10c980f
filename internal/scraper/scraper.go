package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"hh-vacancies-go/internal/config"
	"hh-vacancies-go/internal/models"
	"hh-vacancies-go/internal/scraper/sources"
	"hh-vacancies-go/pkg/httpclient"
)

// Scraper fetches vacancies from a source with retries and records metrics.
// Pages are fetched sequentially by the source; the scraper only adds retry
// and bookkeeping around a whole search.
type Scraper struct {
	sourceManager *sources.SourceManager
	rateLimiter   *RateLimiter
	retryConfig   RetryConfig
	metrics       *ScraperMetrics
	logger        *log.Logger
	sleep         func(ctx context.Context, d time.Duration) error
}

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// RetryConfigFrom derives the retry policy from the source configuration
func RetryConfigFrom(cfg config.SourceConfig) RetryConfig {
	retry := DefaultRetryConfig()
	retry.MaxRetries = cfg.RetryAttempts
	if cfg.RetryDelay > 0 {
		retry.InitialDelay = cfg.RetryDelay
	}
	return retry
}

// DefaultRetryConfig returns the retry policy used when none is configured
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// ScraperMetrics tracks scraper performance
type ScraperMetrics struct {
	TotalSearches     int64
	TotalVacancies    int64
	TotalPages        int64
	TotalErrors       int64
	LastDuration      time.Duration
	SourcePerformance map[string]SourceMetrics
	mu                sync.RWMutex
}

// SourceMetrics tracks performance per source
type SourceMetrics struct {
	Vacancies    int64
	Pages        int64
	Errors       int64
	ResponseTime time.Duration
	LastScraped  time.Time
}

// Result holds the outcome of one search against one source
type Result struct {
	Source   string
	Keyword  string
	Batches  [][]*models.Vacancy
	Error    error
	Duration time.Duration
}

// Vacancies returns the number of vacancies across all batches
func (r Result) Vacancies() int {
	total := 0
	for _, batch := range r.Batches {
		total += len(batch)
	}
	return total
}

// NewScraper creates a new scraper over the registered sources
func NewScraper(sourceManager *sources.SourceManager, retry RetryConfig, logger *log.Logger) *Scraper {
	if logger == nil {
		logger = log.Default()
	}
	return &Scraper{
		sourceManager: sourceManager,
		rateLimiter:   NewRateLimiter(),
		retryConfig:   retry,
		metrics: &ScraperMetrics{
			SourcePerformance: make(map[string]SourceMetrics),
		},
		logger: logger,
		sleep:  sleepContext,
	}
}

// InitializeSources registers the hh.ru source described by cfg
func (s *Scraper) InitializeSources(cfg config.SourceConfig) {
	client := httpclient.NewHttpClient(cfg.RequestTimeout, cfg.UserAgent)
	limiter := s.rateLimiter.For(sources.HeadHunterName, cfg.RateLimit)
	hh := sources.NewHeadHunterSource(client, limiter, s.logger, sources.HeadHunterOptions{
		BaseURL:   cfg.BaseURL,
		PerPage:   cfg.PerPage,
		MaxPages:  cfg.MaxPages,
		Area:      cfg.Area,
		RateLimit: cfg.RateLimit,
	})

	s.sourceManager.RegisterSource(hh, sources.SourceConfig{
		Enabled:   cfg.Enabled,
		RateLimit: hh.GetRateLimit(),
	})

	s.logger.Printf("Initialized %d vacancy sources", len(s.sourceManager.GetEnabledSources()))
}

// Sources returns the scraper's source manager
func (s *Scraper) Sources() *sources.SourceManager {
	return s.sourceManager
}

// Search fetches keyword from the named source. A failed attempt that still
// returned pages is kept: partial results are a valid outcome and are returned
// together with the error of the last attempt.
func (s *Scraper) Search(ctx context.Context, sourceName, keyword string) Result {
	startTime := time.Now()
	result := Result{Source: sourceName, Keyword: keyword}

	source, ok := s.sourceManager.GetSource(sourceName)
	if !ok {
		result.Error = fmt.Errorf("unknown source %q", sourceName)
		s.record(result)
		return result
	}

	for attempt := 0; attempt <= s.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoffDelay(attempt)
			s.logger.Printf("Retrying %s (attempt %d/%d) after %v",
				sourceName, attempt+1, s.retryConfig.MaxRetries+1, delay)

			if err := s.sleep(ctx, delay); err != nil {
				result.Error = err
				break
			}
		}

		batches, err := source.FetchPages(ctx, keyword)
		if len(batches) >= len(result.Batches) {
			result.Batches = batches
		}
		result.Error = err
		if err == nil {
			break
		}

		s.logger.Printf("Attempt %d failed for %s: %v", attempt+1, sourceName, err)
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	result.Duration = time.Since(startTime)
	s.record(result)

	s.logger.Printf("Fetched %d vacancies in %d pages from %s for %q in %v",
		result.Vacancies(), len(result.Batches), sourceName, keyword, result.Duration)
	return result
}

// calculateBackoffDelay calculates exponential backoff delay
func (s *Scraper) calculateBackoffDelay(attempt int) time.Duration {
	delay := time.Duration(float64(s.retryConfig.InitialDelay) *
		float64(attempt) * s.retryConfig.BackoffFactor)

	if delay > s.retryConfig.MaxDelay {
		delay = s.retryConfig.MaxDelay
	}

	return delay
}

func (s *Scraper) record(result Result) {
	s.metrics.mu.Lock()
	defer s.metrics.mu.Unlock()

	s.metrics.TotalSearches++
	s.metrics.TotalVacancies += int64(result.Vacancies())
	s.metrics.TotalPages += int64(len(result.Batches))
	s.metrics.LastDuration = result.Duration

	sourceMetric := s.metrics.SourcePerformance[result.Source]
	sourceMetric.Vacancies += int64(result.Vacancies())
	sourceMetric.Pages += int64(len(result.Batches))
	sourceMetric.ResponseTime = result.Duration
	sourceMetric.LastScraped = time.Now()
	if result.Error != nil {
		s.metrics.TotalErrors++
		sourceMetric.Errors++
	}
	s.metrics.SourcePerformance[result.Source] = sourceMetric
}

// GetMetrics returns current scraper metrics
func (s *Scraper) GetMetrics() ScraperMetrics {
	s.metrics.mu.RLock()
	defer s.metrics.mu.RUnlock()

	// Create a copy to avoid race conditions - without copying the mutex
	sourcePerformance := make(map[string]SourceMetrics)
	for k, v := range s.metrics.SourcePerformance {
		sourcePerformance[k] = v
	}

	return ScraperMetrics{
		TotalSearches:     s.metrics.TotalSearches,
		TotalVacancies:    s.metrics.TotalVacancies,
		TotalPages:        s.metrics.TotalPages,
		TotalErrors:       s.metrics.TotalErrors,
		LastDuration:      s.metrics.LastDuration,
		SourcePerformance: sourcePerformance,
	}
}

// retryable is false for responses that would fail the same way again
func retryable(err error) bool {
	var statusErr *sources.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
