package httpclient

import (
	"context"
	"net/http"
	"time"
)

type HttpClient struct {
	client    *http.Client
	userAgent string
}

func NewHttpClient(timeout time.Duration, userAgent string) *HttpClient {
	return &HttpClient{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Get issues a GET request bound to ctx. The configured User-Agent is sent when set;
// hh.ru rejects requests without one.
func (h *HttpClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	return h.client.Do(req)
}

func (h *HttpClient) UserAgent() string {
	return h.userAgent
}
