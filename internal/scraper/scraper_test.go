package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hh-vacancies-go/internal/models"
	"hh-vacancies-go/internal/scraper/sources"
)

// fakeSource replays a fixed sequence of responses, one per FetchPages call
type fakeSource struct {
	responses []fakeResponse
	calls     int
	fetches   int
}

type fakeResponse struct {
	batches [][]*models.Vacancy
	err     error
}

func (f *fakeSource) GetName() string    { return "fake" }
func (f *fakeSource) GetRateLimit() int  { return 0 }
func (f *fakeSource) GetBaseURL() string { return "http://fake" }

func (f *fakeSource) FetchPages(ctx context.Context, keyword string) ([][]*models.Vacancy, error) {
	f.fetches++
	r := f.responses[f.calls]
	if f.calls < len(f.responses)-1 {
		f.calls++
	}
	return r.batches, r.err
}

func batch(names ...string) []*models.Vacancy {
	out := make([]*models.Vacancy, 0, len(names))
	for _, n := range names {
		out = append(out, &models.Vacancy{Name: n})
	}
	return out
}

func newTestScraper(src sources.VacancySource, retries int) (*Scraper, *bytes.Buffer) {
	sm := sources.NewSourceManager()
	sm.RegisterSource(src, sources.SourceConfig{Enabled: true})

	var logs bytes.Buffer
	s := NewScraper(sm, RetryConfig{MaxRetries: retries, InitialDelay: time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}, log.New(&logs, "", 0))
	s.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return s, &logs
}

func TestSearchSuccess(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{{batches: [][]*models.Vacancy{batch("a", "b"), batch("c")}}}}
	s, _ := newTestScraper(src, 3)

	result := s.Search(context.Background(), "fake", "go")
	require.NoError(t, result.Error)
	assert.Equal(t, 3, result.Vacancies())
	assert.Equal(t, "go", result.Keyword)

	m := s.GetMetrics()
	assert.Equal(t, int64(1), m.TotalSearches)
	assert.Equal(t, int64(3), m.TotalVacancies)
	assert.Equal(t, int64(2), m.TotalPages)
	assert.Equal(t, int64(0), m.TotalErrors)
	assert.Equal(t, int64(3), m.SourcePerformance["fake"].Vacancies)
}

func TestSearchRetriesThenSucceeds(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{
		{err: errors.New("timeout")},
		{batches: [][]*models.Vacancy{batch("a")}},
	}}
	s, logs := newTestScraper(src, 3)

	result := s.Search(context.Background(), "fake", "go")
	require.NoError(t, result.Error)
	assert.Equal(t, 1, result.Vacancies())
	assert.Contains(t, logs.String(), "Attempt 1 failed for fake: timeout")
	assert.Contains(t, logs.String(), "Retrying fake (attempt 2/4)")
}

func TestSearchKeepsPartialResults(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{
		{batches: [][]*models.Vacancy{batch("a"), batch("b")}, err: errors.New("page 2 failed")},
		{batches: [][]*models.Vacancy{batch("a")}, err: errors.New("page 1 failed")},
	}}
	s, _ := newTestScraper(src, 1)

	result := s.Search(context.Background(), "fake", "go")
	require.Error(t, result.Error)
	assert.Equal(t, 2, result.Vacancies())
	assert.Equal(t, int64(1), s.GetMetrics().TotalErrors)
}

func TestSearchUnknownSource(t *testing.T) {
	s, _ := newTestScraper(&fakeSource{responses: []fakeResponse{{}}}, 0)

	result := s.Search(context.Background(), "nope", "go")
	assert.Error(t, result.Error)
	assert.Equal(t, int64(1), s.GetMetrics().SourcePerformance["nope"].Errors)
}

func TestSearchStopsOnCancelledContext(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{{err: context.Canceled}}}
	s, _ := newTestScraper(src, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := s.Search(ctx, "fake", "go")
	assert.ErrorIs(t, result.Error, context.Canceled)
	assert.Equal(t, 1, src.fetches)
}

func TestSearchDoesNotRetryClientErrors(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{
		{batches: [][]*models.Vacancy{batch("a")}, err: fmt.Errorf("page 1: %w", &sources.StatusError{StatusCode: http.StatusBadRequest, Page: 1, Body: "bad argument"})},
	}}
	s, logs := newTestScraper(src, 3)

	result := s.Search(context.Background(), "fake", "go")
	require.Error(t, result.Error)
	assert.Equal(t, 1, src.fetches)
	assert.Equal(t, 1, result.Vacancies())
	assert.NotContains(t, logs.String(), "Retrying")
}

func TestSearchRetriesTooManyRequestsAndServerErrors(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		src := &fakeSource{responses: []fakeResponse{
			{err: &sources.StatusError{StatusCode: code}},
			{batches: [][]*models.Vacancy{batch("a")}},
		}}
		s, _ := newTestScraper(src, 3)

		result := s.Search(context.Background(), "fake", "go")
		require.NoError(t, result.Error, "status %d", code)
		assert.Equal(t, 2, src.fetches, "status %d", code)
	}
}

func TestCalculateBackoffDelay(t *testing.T) {
	s := NewScraper(sources.NewSourceManager(), DefaultRetryConfig(), nil)
	assert.Equal(t, 2*time.Second, s.calculateBackoffDelay(1))
	assert.Equal(t, 4*time.Second, s.calculateBackoffDelay(2))
	assert.Equal(t, 30*time.Second, s.calculateBackoffDelay(100))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter()

	first := rl.For("hh", 60)
	assert.Same(t, first, rl.For("hh", 60))
	assert.NotSame(t, first, rl.For("hh", 120))
	assert.Equal(t, 1, first.Burst())

	// first token is available immediately
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, rl.Wait(ctx, "other", 60))

	// the next one is a second away, past the deadline
	assert.Error(t, rl.Wait(ctx, "other", 60))

	// unlimited
	for i := 0; i < 10; i++ {
		require.NoError(t, rl.Wait(context.Background(), "free", 0))
	}
}
