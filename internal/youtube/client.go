package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// MaxIDsPerQuery is the most video IDs videos.list accepts in one call.
const MaxIDsPerQuery = 50

// ErrQuotaExceeded reports a request rejected for quota or key reasons.
var ErrQuotaExceeded = errors.New("youtube quota exceeded")

// Lister retrieves video metadata by ID.
type Lister interface {
	ListVideos(ctx context.Context, ids []string) ([]Video, error)
}

// Client provides access to the YouTube Data API.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

var _ Lister = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit overrides request pacing. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.rateLimiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.rateLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a YouTube client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("youtube api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("youtube base url required")
	}
	client := &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		rateLimiter: rate.NewLimiter(rate.Limit(5), 2),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ListVideos fetches snippet and statistics for up to MaxIDsPerQuery videos.
// Unknown IDs are simply absent from the result.
func (c *Client) ListVideos(ctx context.Context, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxIDsPerQuery {
		return nil, fmt.Errorf("youtube accepts at most %d ids per query, got %d", MaxIDsPerQuery, len(ids))
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	endpoint, err := url.Parse(c.baseURL + "/videos")
	if err != nil {
		return nil, fmt.Errorf("parse youtube url: %w", err)
	}
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, latency)
	}

	var payload ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode youtube response: %w", err)
	}
	return payload.Items, nil
}

func statusError(resp *http.Response, latency time.Duration) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	detail := ""
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		detail = apiErr.Error.Message
		if len(apiErr.Error.Errors) > 0 && apiErr.Error.Errors[0].Reason != "" {
			detail = apiErr.Error.Errors[0].Reason + ": " + detail
		}
	}
	if resp.StatusCode == http.StatusForbidden {
		if detail != "" {
			return fmt.Errorf("%w (latency=%v): %s", ErrQuotaExceeded, latency, detail)
		}
		return fmt.Errorf("%w (latency=%v)", ErrQuotaExceeded, latency)
	}
	if detail != "" {
		return fmt.Errorf("youtube videos.list returned %d (latency=%v): %s", resp.StatusCode, latency, detail)
	}
	return fmt.Errorf("youtube videos.list returned %d (latency=%v)", resp.StatusCode, latency)
}
