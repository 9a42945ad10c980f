package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"hh-vacancies-go/internal/config"
	"hh-vacancies-go/internal/models"
	"hh-vacancies-go/internal/printer"
	"hh-vacancies-go/internal/ranking"
	"hh-vacancies-go/internal/scraper"
	"hh-vacancies-go/internal/scraper/sources"
	"hh-vacancies-go/internal/storage"
)

type options struct {
	keyword   string
	filter    string
	phrase    string
	salary    string
	sortKey   string
	ascending bool
	top       int
	save      string
	load      string
	output    string
}

func main() {
	var (
		configFile = flag.String("config", "config.json", "Configuration file path (.json, .yaml)")
		command    = flag.String("cmd", "search", "Command to run: search, load, delete, config, sources")
		help       = flag.Bool("help", false, "Show help message")
		opts       options
	)
	flag.StringVar(&opts.keyword, "keyword", "", "Search query sent to hh.ru")
	flag.StringVar(&opts.filter, "filter", "", "Whitespace separated words every title must contain")
	flag.StringVar(&opts.phrase, "phrase", "", "Phrase the title must contain")
	flag.StringVar(&opts.salary, "salary", "", "Salary range min-max in the reference currency")
	flag.StringVar(&opts.sortKey, "sort", "", "Sort key: salary, published_at")
	flag.BoolVar(&opts.ascending, "asc", false, "Sort ascending")
	flag.IntVar(&opts.top, "top", 0, "Show only the top N vacancies by salary")
	flag.StringVar(&opts.save, "save", "", "Save the result under this name")
	flag.StringVar(&opts.load, "load", "", "Name of a saved collection")
	flag.StringVar(&opts.output, "output", "console", "Output format: console, json")
	flag.Parse()

	// Show help if requested
	if *help {
		printUsage()
		os.Exit(0)
	}

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

	logger := log.New(os.Stderr, "[VACANCIES] ", log.LstdFlags)

	switch *command {
	case "search":
		runSearchCommand(cfg, opts, logger)
	case "load":
		runLoadCommand(cfg, opts, logger)
	case "delete":
		runDeleteCommand(cfg, opts, logger)
	case "config":
		runConfigCommand(cfg, opts.output)
	case "sources":
		runSourcesCommand(cfg, opts.output, logger)
	default:
		fmt.Printf("Unknown command: %s\n", *command)
		printUsage()
		os.Exit(1)
	}
}

func runSearchCommand(cfg *config.Config, opts options, logger *log.Logger) {
	if opts.keyword == "" {
		log.Fatalf("-keyword is required for search")
	}

	s := scraper.NewScraper(sources.NewSourceManager(), scraper.RetryConfigFrom(cfg.Source), logger)
	s.InitializeSources(cfg.Source)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result := s.Search(ctx, sources.HeadHunterName, opts.keyword)
	if result.Error != nil {
		if len(result.Batches) == 0 {
			log.Fatalf("Search failed: %v", result.Error)
		}
		logger.Printf("Search incomplete, using %d fetched pages: %v", len(result.Batches), result.Error)
	}

	pipeline := ranking.NewPipeline(cfg.Ranking.ReferenceCurrency, logger)
	vacancies := pipeline.RunBatches(result.Batches, buildQuery(cfg, opts))

	if opts.save != "" {
		store := openStore(cfg, logger)
		if err := store.Save(opts.save, vacancies); err != nil {
			logger.Printf("Error saving vacancies: %v", err)
		} else {
			logger.Printf("Saved %d vacancies as %q", len(vacancies), opts.save)
		}
	}

	output(vacancies, opts.output)
}

func runLoadCommand(cfg *config.Config, opts options, logger *log.Logger) {
	if opts.load == "" {
		log.Fatalf("-load is required for load")
	}

	vacancies, err := openStore(cfg, logger).Load(opts.load)
	if err != nil {
		log.Fatalf("Failed to load %q: %v", opts.load, err)
	}

	pipeline := ranking.NewPipeline(cfg.Ranking.ReferenceCurrency, logger)
	output(pipeline.Run(vacancies, buildQuery(cfg, opts)), opts.output)
}

func runDeleteCommand(cfg *config.Config, opts options, logger *log.Logger) {
	if opts.load == "" {
		log.Fatalf("-load is required for delete")
	}
	if err := openStore(cfg, logger).Delete(opts.load); err != nil {
		log.Fatalf("Failed to delete %q: %v", opts.load, err)
	}
	fmt.Printf("Deleted %s\n", opts.load)
}

func runConfigCommand(cfg *config.Config, output string) {
	if output == "json" {
		outputJSON(cfg)
		return
	}

	fmt.Println("Current Configuration:")
	fmt.Printf("Source URL: %s\n", cfg.Source.BaseURL)
	fmt.Printf("Pages: up to %d x %d\n", cfg.Source.MaxPages, cfg.Source.PerPage)
	fmt.Printf("Storage Backend: %s\n", cfg.Storage.Backend)
	fmt.Printf("Data Directory: %s\n", cfg.Storage.DataDir)
	fmt.Printf("Database URL: %s\n", maskString(cfg.Storage.SupabaseURL))
	fmt.Printf("Database Key: %s\n", maskString(cfg.Storage.SupabaseKey))
	fmt.Printf("Reference Currency: %s\n", cfg.Ranking.ReferenceCurrency)
	fmt.Printf("Collector Interval: %v\n", cfg.Collector.Interval)
}

func runSourcesCommand(cfg *config.Config, output string, logger *log.Logger) {
	s := scraper.NewScraper(sources.NewSourceManager(), scraper.RetryConfigFrom(cfg.Source), logger)
	s.InitializeSources(cfg.Source)
	sm := s.Sources()

	if output == "json" {
		configs := make(map[string]sources.SourceConfig)
		for _, name := range sm.Names() {
			sc, _ := sm.GetSourceConfig(name)
			configs[name] = sc
		}
		outputJSON(configs)
		return
	}

	fmt.Println("Available Vacancy Sources:")
	for _, name := range sm.Names() {
		source, _ := sm.GetSource(name)
		sc, _ := sm.GetSourceConfig(name)
		status := "disabled"
		if sc.Enabled {
			status = "enabled"
		}
		fmt.Printf("- %s: %s %s (rate limit: %d/min)\n", name, status, source.GetBaseURL(), sc.RateLimit)
	}
}

func buildQuery(cfg *config.Config, opts options) ranking.Query {
	q := ranking.Query{
		Keywords:    ranking.SplitKeywords(opts.filter),
		Phrase:      opts.phrase,
		SalaryRange: opts.salary,
		Ascending:   opts.ascending,
		Top:         opts.top,
	}

	sortKey := opts.sortKey
	if sortKey == "" && opts.top == 0 {
		sortKey = cfg.Ranking.SortKey
	}
	if sortKey != "" {
		key, err := ranking.ParseSortKey(sortKey)
		if err != nil {
			log.Fatalf("Invalid sort key: %v", err)
		}
		q.SortKey = key
	}
	return q
}

func openStore(cfg *config.Config, logger *log.Logger) storage.Store {
	store, err := storage.New(cfg.Storage.Backend, cfg.Storage.DataDir, cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, logger)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	return store
}

func output(vacancies []*models.Vacancy, format string) {
	if format == "json" {
		outputJSON(vacancies)
		return
	}
	if err := printer.PrintVacancies(os.Stdout, vacancies); err != nil {
		log.Printf("Failed to print vacancies: %v", err)
	}
}

func outputJSON(data interface{}) {
	if err := printer.PrintJSON(os.Stdout, data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

func printUsage() {
	fmt.Println("hh.ru Vacancies CLI Tool")
	fmt.Println("Usage:")
	fmt.Println("  vacancies-cli [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  -cmd search    - Search hh.ru and rank the result")
	fmt.Println("  -cmd load      - Rank a saved collection")
	fmt.Println("  -cmd delete    - Delete a saved collection")
	fmt.Println("  -cmd config    - Show configuration")
	fmt.Println("  -cmd sources   - List available sources")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config string   - Configuration file (default: config.json)")
	fmt.Println("  -keyword string  - Search query")
	fmt.Println("  -filter string   - Words every title must contain")
	fmt.Println("  -phrase string   - Phrase the title must contain")
	fmt.Println("  -salary string   - Salary range, e.g. 100000-200000")
	fmt.Println("  -sort string     - Sort key: salary, published_at")
	fmt.Println("  -asc             - Sort ascending")
	fmt.Println("  -top int         - Show only the top N by salary")
	fmt.Println("  -save string     - Save the result under this name")
	fmt.Println("  -load string     - Saved collection name")
	fmt.Println("  -output string   - Output format: console, json (default: console)")
	fmt.Println("  -help            - Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  vacancies-cli -cmd search -keyword python -salary 100000-300000 -top 5")
	fmt.Println("  vacancies-cli -cmd search -keyword golang -filter senior -save golang")
	fmt.Println("  vacancies-cli -cmd load -load golang -sort published_at")
}
