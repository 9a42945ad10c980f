package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hh-vacancies-go/internal/config"
	"hh-vacancies-go/internal/ranking"
	"hh-vacancies-go/internal/scraper"
	"hh-vacancies-go/internal/scraper/sources"
	"hh-vacancies-go/internal/storage"
)

func main() {
	configFile := flag.String("config", "config.json", "Configuration file path (.json, .yaml)")
	once := flag.Bool("once", false, "Collect a single time and exit")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	logger, logFile, err := setupLogging(cfg.Monitoring.LogFile, cfg.Monitoring.LogLevel)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	if logFile != nil && logFile != os.Stdout {
		defer logFile.Close()
	}

	store, err := storage.New(cfg.Storage.Backend, cfg.Storage.DataDir, cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	s := scraper.NewScraper(sources.NewSourceManager(), scraper.RetryConfigFrom(cfg.Source), logger)
	s.InitializeSources(cfg.Source)

	c := &collector{
		scraper:  s,
		store:    store,
		pipeline: ranking.NewPipeline(cfg.Ranking.ReferenceCurrency, logger),
		terms:    cfg.Collector.SearchTerms,
		logger:   logger,
	}

	logger.Printf("Starting vacancy collector for %d search terms", len(c.terms))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go cancelOnSignal(ctx, cancel, sigChan, logger)

	logger.Println("Running initial collection...")
	c.collect(ctx)
	printMetrics(s, logger)

	if *once || cfg.Collector.Interval <= 0 {
		return
	}

	done := make(chan struct{})
	go runPeriodicCollection(ctx, c, cfg.Collector.Interval, done)
	<-done

	logger.Println("Vacancy collector shutdown complete")
}

// cancelOnSignal cancels ctx on the first signal, so an in-flight collection and
// its retry backoff stop as well.
func cancelOnSignal(ctx context.Context, cancel context.CancelFunc, sigChan <-chan os.Signal, logger *log.Logger) {
	select {
	case sig := <-sigChan:
		logger.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case <-ctx.Done():
	}
}

// collector fetches every search term and stores it as a collection named after the term
type collector struct {
	scraper  *scraper.Scraper
	store    storage.Store
	pipeline *ranking.Pipeline
	terms    []string
	logger   *log.Logger
}

func (c *collector) collect(ctx context.Context) {
	for _, term := range c.terms {
		if ctx.Err() != nil {
			return
		}

		result := c.scraper.Search(ctx, sources.HeadHunterName, term)
		if result.Error != nil {
			c.logger.Printf("Collecting %q finished with error: %v", term, result.Error)
		}
		if len(result.Batches) == 0 {
			continue
		}

		vacancies := c.pipeline.RunBatches(result.Batches, ranking.Query{SortKey: ranking.SortByPublishedAt})
		name := collectionName(term)
		if err := c.store.Save(name, vacancies); err != nil {
			c.logger.Printf("Error saving %q: %v", name, err)
			continue
		}
		c.logger.Printf("Saved %d vacancies for %q", len(vacancies), term)
	}
}

// collectionName turns a search term into a storage name: "Go developer" -> "go_developer"
func collectionName(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), "_")
}

// setupLogging configures logging based on the configuration
func setupLogging(logFile, logLevel string) (*log.Logger, *os.File, error) {
	var logOutput *os.File
	var err error

	if logFile != "" {
		// Ensure log directory exists
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		logOutput, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
	} else {
		logOutput = os.Stdout
	}

	flags := log.LstdFlags
	if logLevel == "debug" {
		flags |= log.Lshortfile
	}
	return log.New(logOutput, "[VACANCIES] ", flags), logOutput, nil
}

// runPeriodicCollection collects at regular intervals until ctx is cancelled
func runPeriodicCollection(ctx context.Context, c *collector, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Printf("Starting periodic collection every %v", interval)

	for {
		select {
		case <-ctx.Done():
			c.logger.Println("Periodic collection cancelled")
			return
		case <-ticker.C:
			start := time.Now()
			c.collect(ctx)
			c.logger.Printf("Scheduled collection completed in %v", time.Since(start))
			printMetrics(c.scraper, c.logger)
		}
	}
}

// printMetrics prints current scraper metrics
func printMetrics(s *scraper.Scraper, logger *log.Logger) {
	metrics := s.GetMetrics()

	logger.Printf("=== Collector Metrics ===")
	logger.Printf("Total Searches: %d", metrics.TotalSearches)
	logger.Printf("Total Vacancies: %d", metrics.TotalVacancies)
	logger.Printf("Total Pages: %d", metrics.TotalPages)
	logger.Printf("Total Errors: %d", metrics.TotalErrors)
	logger.Printf("Last Search Duration: %v", metrics.LastDuration)

	for source, perf := range metrics.SourcePerformance {
		logger.Printf("%s: vacancies=%d, pages=%d, errors=%d, response_time=%v, last_scraped=%v",
			source, perf.Vacancies, perf.Pages, perf.Errors,
			perf.ResponseTime, perf.LastScraped.Format("2006-01-02 15:04:05"))
	}

	logger.Printf("=========================")
}
