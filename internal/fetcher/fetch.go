package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/voyagen/livecatalog/internal/metrics"
	"github.com/voyagen/livecatalog/internal/models"
)

// DefaultTimeout bounds a single playlist fetch, including reading the body.
const DefaultTimeout = 30 * time.Second

// MaxBodySize caps the size of an upstream playlist. Larger bodies are
// rejected rather than parsed partially.
const MaxBodySize = 64 << 20

// FetchError is returned when a playlist cannot be retrieved: transport
// failure, timeout, or a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int    // 0 when no response was received
	Status     string // reason phrase, e.g. "Not Found"
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch playlist: HTTP %d: %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("fetch playlist: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches and parses M3U playlists.
type Client struct {
	http    *http.Client
	timeout time.Duration
	maxBody int64
}

// NewClient returns a Client whose fetches are bounded by timeout
// (DefaultTimeout when timeout <= 0).
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		maxBody: MaxBodySize,
	}
}

// Timeout returns the per-fetch bound.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Fetch retrieves url and parses it as an M3U playlist.
// userAgent is sent only when non-empty. The result may be empty.
func (c *Client) Fetch(ctx context.Context, url string, userAgent string) ([]models.Channel, error) {
	start := time.Now()
	defer func() { metrics.PlaylistFetchDuration.Observe(time.Since(start).Seconds()) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		metrics.PlaylistFetches.WithLabelValues("transport_error").Inc()
		return nil, &FetchError{URL: url, Err: fmt.Errorf("NewRequest: %w", err)}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.PlaylistFetches.WithLabelValues("transport_error").Inc()
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.PlaylistFetches.WithLabelValues("http_error").Inc()
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     reasonPhrase(resp),
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		metrics.PlaylistFetches.WithLabelValues("transport_error").Inc()
		return nil, &FetchError{URL: url, Err: fmt.Errorf("ReadAll: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		metrics.PlaylistFetches.WithLabelValues("too_large").Inc()
		return nil, &FetchError{URL: url, Err: fmt.Errorf("playlist exceeds %d bytes", c.maxBody)}
	}
	metrics.PlaylistFetches.WithLabelValues("ok").Inc()
	return ParseM3U(string(body)), nil
}

// reasonPhrase strips the status code from resp.Status ("404 Not Found" -> "Not Found").
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		return http.StatusText(resp.StatusCode)
	}
	return reason
}
