// Package wordfeed composes the random-word and dictionary services into
// batches of normalized words.
package wordfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/wordbrowser/internal/config"
	"github.com/heartmarshall/wordbrowser/internal/domain"
	"github.com/heartmarshall/wordbrowser/internal/provider"
)

const (
	defaultBatchSize = 10
	defaultMaxBatch  = 50
)

type wordSource interface {
	FetchWords(ctx context.Context, count int) ([]string, error)
}

type dictionaryProvider interface {
	FetchDefinition(ctx context.Context, word string) (*provider.RawDefinition, error)
}

// Service implements the word acquisition pipeline.
type Service struct {
	log       *slog.Logger
	words     wordSource
	dict      dictionaryProvider
	batchSize int
	maxBatch  int
}

// NewService creates a new word feed service.
func NewService(
	logger *slog.Logger,
	words wordSource,
	dict dictionaryProvider,
	cfg config.WordsConfig,
) *Service {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxBatch := cfg.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}
	return &Service{
		log:       logger.With("service", "wordfeed"),
		words:     words,
		dict:      dict,
		batchSize: batchSize,
		maxBatch:  maxBatch,
	}
}

// Result is the outcome of acquiring one word token: either a normalized
// word or the error that excluded it from the batch.
type Result struct {
	Token string
	Word  domain.Word
	Err   error
}

// OK reports whether the token produced a usable word.
func (r Result) OK() bool { return r.Err == nil }

// FetchRandomWords requests count word tokens. A count of zero or less uses
// the configured batch size.
func (s *Service) FetchRandomWords(ctx context.Context, count int) ([]string, error) {
	count, err := s.resolveCount(count)
	if err != nil {
		return nil, err
	}

	tokens, err := s.words.FetchWords(ctx, count)
	if err != nil {
		s.log.ErrorContext(ctx, "random word fetch failed",
			slog.Int("count", count),
			slog.String("error", err.Error()),
		)
		return nil, &FetchError{Op: ErrRandomWordFetch, Err: err}
	}
	return tokens, nil
}

// FetchDefinition returns the first dictionary entry for word.
func (s *Service) FetchDefinition(ctx context.Context, word string) (*provider.RawDefinition, error) {
	def, err := s.dict.FetchDefinition(ctx, word)
	if err != nil {
		return nil, &FetchError{Op: ErrDefinitionFetch, Word: word, Err: err}
	}
	if def == nil {
		return nil, &FetchError{Op: ErrDefinitionFetch, Word: word, Err: domain.ErrNotFound}
	}
	return def, nil
}

// FetchOne acquires and normalizes a single token. A definition that
// normalizes to no meanings counts as a missing definition.
func (s *Service) FetchOne(ctx context.Context, token string) Result {
	def, err := s.FetchDefinition(ctx, token)
	if err != nil {
		return Result{Token: token, Err: err}
	}

	word := Normalize(token, def)
	if len(word.Meanings) == 0 {
		return Result{Token: token, Err: &FetchError{
			Op:   ErrDefinitionFetch,
			Word: token,
			Err:  fmt.Errorf("%q has no definitions: %w", token, domain.ErrNotFound),
		}}
	}

	return Result{Token: token, Word: word}
}

// FetchResults fetches count tokens and then acquires each one strictly in
// order, one request at a time. It fails only when the token fetch fails or
// ctx is done; per-word failures are reported in the results.
func (s *Service) FetchResults(ctx context.Context, count int) ([]Result, error) {
	tokens, err := s.FetchRandomWords(ctx, count)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return nil, err
		}
		return nil, &FetchError{Op: ErrBatchFetch, Err: err}
	}

	results := make([]Result, 0, len(tokens))
	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch batch: %w", err)
		}

		r := s.FetchOne(ctx, token)
		if !r.OK() {
			s.log.InfoContext(ctx, "skipping word without definition",
				slog.String("word", token),
				slog.String("error", causeText(r.Err)),
			)
		}
		results = append(results, r)
	}

	return results, nil
}

// FetchBatch returns the normalized words of one batch, in token order,
// with words lacking a definition left out. It fails with ErrEmptyBatch
// when no token yields a definition.
func (s *Service) FetchBatch(ctx context.Context, count int) ([]domain.Word, error) {
	results, err := s.FetchResults(ctx, count)
	if err != nil {
		return nil, err
	}

	words, err := Successes(results)
	if err != nil {
		s.log.ErrorContext(ctx, "batch has no usable words",
			slog.Int("tokens", len(results)),
		)
		return nil, err
	}

	s.log.InfoContext(ctx, "batch fetched",
		slog.Int("tokens", len(results)),
		slog.Int("words", len(words)),
	)
	return words, nil
}

// Successes keeps the words of successful results in order. It returns an
// ErrEmptyBatch FetchError, joining every per-word cause, when none succeeded.
func Successes(results []Result) ([]domain.Word, error) {
	words := make([]domain.Word, 0, len(results))
	var errs []error
	for _, r := range results {
		if r.OK() {
			words = append(words, r.Word)
			continue
		}
		errs = append(errs, r.Err)
	}

	if len(words) == 0 {
		return nil, &FetchError{Op: ErrEmptyBatch, Err: errors.Join(errs...)}
	}
	return words, nil
}

func (s *Service) resolveCount(count int) (int, error) {
	if count <= 0 {
		return s.batchSize, nil
	}
	if count > s.maxBatch {
		return 0, domain.NewValidationError("count", fmt.Sprintf("must be at most %d", s.maxBatch))
	}
	return count, nil
}

func causeText(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Err != nil {
		return fe.Err.Error()
	}
	return err.Error()
}
