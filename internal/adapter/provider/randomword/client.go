// Package randomword fetches random word tokens from a random-word-api compatible service.
package randomword

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/heartmarshall/wordbrowser/internal/config"
)

const (
	defaultBaseURL = "https://random-word-api.herokuapp.com/word"
	defaultTimeout = 10 * time.Second
)

// Client requests batches of random words. It never retries: the call is
// atomic and a failed batch is reported as a whole.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client from the words configuration.
func NewClient(cfg config.WordsConfig, logger *slog.Logger) *Client {
	baseURL := cfg.RandomWordURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "randomword"),
	}
}

// NewClientWithURL creates a Client with a custom base URL (for testing).
func NewClientWithURL(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger.With("adapter", "randomword"),
	}
}

// FetchWords requests exactly count words.
func (c *Client) FetchWords(ctx context.Context, count int) ([]string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("randomword: parse base url: %w", err)
	}
	q := u.Query()
	q.Set("number", strconv.Itoa(count))
	u.RawQuery = q.Encode()

	c.log.DebugContext(ctx, "randomword request", slog.Int("count", count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("randomword: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("randomword: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("randomword: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("randomword: read body: %w", err)
	}

	var words []string
	if err := json.Unmarshal(body, &words); err != nil {
		return nil, fmt.Errorf("randomword: decode json: %w", err)
	}

	c.log.DebugContext(ctx, "randomword response",
		slog.Int("requested", count),
		slog.Int("received", len(words)),
	)

	return words, nil
}
