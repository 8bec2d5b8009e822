package freedict

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heartmarshall/wordbrowser/internal/config"
	"github.com/heartmarshall/wordbrowser/internal/domain"
	"github.com/heartmarshall/wordbrowser/internal/provider"
)

const (
	defaultBaseURL    = "https://api.dictionaryapi.dev/api/v2/entries/en"
	defaultTimeout    = 10 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
)

// Provider fetches dictionary data from the FreeDictionary API.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	log        *slog.Logger
}

// NewProvider creates a Provider from the words configuration.
func NewProvider(cfg config.WordsConfig, logger *slog.Logger) *Provider {
	baseURL := cfg.DictionaryURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		retries:    cfg.DictionaryRetries,
		retryDelay: cfg.RetryDelay,
		log:        logger.With("adapter", "freedict"),
	}
}

// NewProviderWithURL creates a Provider with a custom base URL (for testing).
// It retries once, like the default configuration.
func NewProviderWithURL(baseURL string, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		retries:    1,
		retryDelay: defaultRetryDelay,
		log:        logger.With("adapter", "freedict"),
	}
}

// FetchDefinition fetches the dictionary entries for word and returns the first one.
// A 404 or an empty entry list yields an error wrapping domain.ErrNotFound.
func (p *Provider) FetchDefinition(ctx context.Context, word string) (*provider.RawDefinition, error) {
	reqURL := p.baseURL + "/" + url.PathEscape(word)

	p.log.DebugContext(ctx, "freedict request", slog.String("word", word))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("freedict: create request: %w", err)
	}

	resp, err := p.doWithRetry(ctx, req, word)
	if err != nil {
		return nil, fmt.Errorf("freedict: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("freedict: %q: %w", word, domain.ErrNotFound)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("freedict: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("freedict: read body: %w", err)
	}

	var entries []apiEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("freedict: decode json: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("freedict: %q: no entries: %w", word, domain.ErrNotFound)
	}

	result := mapEntry(entries[0])

	p.log.DebugContext(ctx, "freedict response",
		slog.String("word", word),
		slog.Int("status", resp.StatusCode),
		slog.Int("entries", len(entries)),
		slog.Int("meanings", len(result.Meanings)),
	)

	return result, nil
}

// doWithRetry executes the request, retrying up to p.retries times on 5xx or
// network errors. A 404 is an answer, not a failure, and is never retried.
func (p *Provider) doWithRetry(ctx context.Context, req *http.Request, word string) (*http.Response, error) {
	resp, err := p.httpClient.Do(req)

	for attempt := 0; attempt < p.retries; attempt++ {
		shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
		if !shouldRetry {
			return resp, err
		}

		// Don't retry if context is already cancelled.
		if ctx.Err() != nil {
			break
		}

		reason := "network error"
		if err == nil && resp != nil {
			reason = fmt.Sprintf("status %d", resp.StatusCode)
		}
		p.log.WarnContext(ctx, "freedict retry",
			slog.String("word", word),
			slog.String("reason", reason),
			slog.Int("attempt", attempt+1),
		)

		// Close body from the failed attempt before retrying.
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.retryDelay):
		}

		resp, err = p.httpClient.Do(req)
	}

	return resp, err
}

// mapEntry converts one API entry into a provider.RawDefinition.
// Nil related-word lists become empty slices.
func mapEntry(entry apiEntry) *provider.RawDefinition {
	def := &provider.RawDefinition{
		Word:      entry.Word,
		Phonetic:  entry.Phonetic,
		Phonetics: make([]provider.Phonetic, 0, len(entry.Phonetics)),
		Meanings:  make([]provider.MeaningGroup, 0, len(entry.Meanings)),
		Origin:    entry.Origin,
	}

	for _, ph := range entry.Phonetics {
		def.Phonetics = append(def.Phonetics, provider.Phonetic{Text: ph.Text, Audio: ph.Audio})
	}

	for _, m := range entry.Meanings {
		group := provider.MeaningGroup{
			PartOfSpeech: m.PartOfSpeech,
			Definitions:  make([]provider.DefinitionEntry, 0, len(m.Definitions)),
		}
		for _, d := range m.Definitions {
			group.Definitions = append(group.Definitions, provider.DefinitionEntry{
				Definition: d.Definition,
				Example:    d.Example,
				Synonyms:   nonNil(d.Synonyms),
				Antonyms:   nonNil(d.Antonyms),
			})
		}
		def.Meanings = append(def.Meanings, group)
	}

	return def
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
