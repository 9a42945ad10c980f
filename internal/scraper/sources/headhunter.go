package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"hh-vacancies-go/internal/models"
	"hh-vacancies-go/pkg/httpclient"
)

const (
	HeadHunterName    = "hh"
	DefaultHHBaseURL  = "https://api.hh.ru/vacancies"
	DefaultHHPerPage  = 100
	DefaultHHMaxPages = 20
)

// StatusError reports a non-200 response from the API
type StatusError struct {
	StatusCode int
	Page       int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hh API returned status %d on page %d: %s", e.StatusCode, e.Page, e.Body)
}

// Retryable reports whether repeating the request can succeed. Client errors
// other than 429 Too Many Requests will fail the same way again.
func (e *StatusError) Retryable() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode < 400 || e.StatusCode >= 500
}

// Waiter paces outgoing requests; *rate.Limiter satisfies it
type Waiter interface {
	Wait(ctx context.Context) error
}

// HeadHunterOptions configures the hh.ru source
type HeadHunterOptions struct {
	BaseURL   string
	PerPage   int
	MaxPages  int
	Area      string
	RateLimit int // requests per minute, 0 for unlimited
}

// HeadHunterSource implements VacancySource for the hh.ru API
type HeadHunterSource struct {
	client   *httpclient.HttpClient
	limiter  Waiter
	logger   *log.Logger
	baseURL  string
	perPage  int
	maxPages int
	area     string
	rate     int
}

// NewHeadHunterSource creates a new hh.ru source. limiter may be nil.
func NewHeadHunterSource(client *httpclient.HttpClient, limiter Waiter, logger *log.Logger, opts HeadHunterOptions) *HeadHunterSource {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultHHBaseURL
	}
	if opts.PerPage <= 0 || opts.PerPage > DefaultHHPerPage {
		opts.PerPage = DefaultHHPerPage
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultHHMaxPages
	}
	if logger == nil {
		logger = log.Default()
	}

	return &HeadHunterSource{
		client:   client,
		limiter:  limiter,
		logger:   logger,
		baseURL:  opts.BaseURL,
		perPage:  opts.PerPage,
		maxPages: opts.MaxPages,
		area:     opts.Area,
		rate:     opts.RateLimit,
	}
}

func (h *HeadHunterSource) GetName() string {
	return HeadHunterName
}

func (h *HeadHunterSource) GetRateLimit() int {
	return h.rate
}

func (h *HeadHunterSource) GetBaseURL() string {
	return h.baseURL
}

// FetchPages walks the search result pages sequentially, up to the page cap. It
// stops early when a page has no items or the last page reported by the API
// has been read.
func (h *HeadHunterSource) FetchPages(ctx context.Context, keyword string) ([][]*models.Vacancy, error) {
	var batches [][]*models.Vacancy

	for page := 0; page < h.maxPages; page++ {
		if h.limiter != nil {
			if err := h.limiter.Wait(ctx); err != nil {
				return batches, fmt.Errorf("rate limit wait before page %d: %w", page, err)
			}
		}

		response, err := h.fetchPage(ctx, keyword, page)
		if err != nil {
			return batches, err
		}
		if len(response.Items) == 0 {
			break
		}

		vacancies, skipped := models.DecodeVacancies(response.Items)
		if skipped > 0 {
			h.logger.Printf("hh: skipped %d malformed vacancies on page %d", skipped, page)
		}
		batches = append(batches, vacancies)

		if response.Pages > 0 && page+1 >= response.Pages {
			break
		}
	}

	return batches, nil
}

func (h *HeadHunterSource) fetchPage(ctx context.Context, keyword string, page int) (*models.SearchResponse, error) {
	apiURL, err := h.buildURL(keyword, page)
	if err != nil {
		return nil, fmt.Errorf("build URL failed: %w", err)
	}

	resp, err := h.client.Get(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d from hh: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Page: page, Body: string(body)}
	}

	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse hh page %d: %w", page, err)
	}
	return &response, nil
}

func (h *HeadHunterSource) buildURL(keyword string, page int) (string, error) {
	u, err := url.Parse(h.baseURL)
	if err != nil {
		return "", err
	}

	query := u.Query()
	query.Set("text", keyword)
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(h.perPage))
	if h.area != "" {
		query.Set("area", h.area)
	}

	u.RawQuery = query.Encode()
	return u.String(), nil
}
