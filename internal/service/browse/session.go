package browse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/heartmarshall/wordbrowser/internal/config"
	"github.com/heartmarshall/wordbrowser/internal/domain"
)

const (
	defaultPrefetchThreshold = 2
	defaultPrefetchTimeout   = 2 * time.Minute
)

type batchFetcher interface {
	FetchBatch(ctx context.Context, count int) ([]domain.Word, error)
}

type snapshotLoader interface {
	Load(ctx context.Context) Snapshot
}

// Session drives a Store: foreground refreshes that surface loading and
// error state, and background prefetches that silently replace the batch
// when the cursor nears its end.
type Session struct {
	log        *slog.Logger
	store      *Store
	feed       batchFetcher
	loader     snapshotLoader
	threshold  int
	timeout    time.Duration
	staleGuard bool

	// base is the parent of every prefetch; Close cancels it.
	base   context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	generation  uint64 // last ticket issued
	floor       uint64 // tickets below floor are superseded
	applied     uint64 // ticket of the batch currently shown
	foreground  int
	prefetchEnd chan struct{} // non-nil while a prefetch runs
}

// NewSession creates a session over store. loader may be nil, in which case
// Restore only performs the initial load.
func NewSession(
	logger *slog.Logger,
	store *Store,
	feed batchFetcher,
	loader snapshotLoader,
	cfg config.BrowseConfig,
) *Session {
	threshold := cfg.PrefetchThreshold
	if threshold < 0 {
		threshold = defaultPrefetchThreshold
	}
	timeout := cfg.PrefetchTimeout
	if timeout <= 0 {
		timeout = defaultPrefetchTimeout
	}

	base, cancel := context.WithCancel(context.Background())
	return &Session{
		log:        logger.With("service", "browse"),
		store:      store,
		feed:       feed,
		loader:     loader,
		threshold:  threshold,
		timeout:    timeout,
		staleGuard: cfg.StaleGuard,
		base:       base,
		cancel:     cancel,
	}
}

// Store returns the underlying store.
func (s *Session) Store() *Store { return s.store }

// Restore loads the saved snapshot into the store. When the restored batch
// is empty a foreground load runs and its error is returned; otherwise the
// prefetch policy is evaluated against the restored cursor.
func (s *Session) Restore(ctx context.Context) error {
	if s.loader != nil {
		snap := s.loader.Load(ctx)
		s.store.Restore(snap)
		s.log.InfoContext(ctx, "state restored",
			slog.Int("words", len(snap.Words)),
			slog.Int("bookmarks", len(snap.BookmarkedWords)),
		)
	}

	if n, _ := s.store.Len(); n > 0 {
		s.maybePrefetch(ctx)
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh fetches a new batch in the foreground. The error flag is cleared
// first and set to the failure message if the fetch fails. Once loading
// ends the prefetch policy is evaluated, covering moves that were skipped
// while the load ran.
func (s *Session) Refresh(ctx context.Context) error {
	ticket := s.begin(true)
	s.store.SetError("")
	s.store.SetLoading(true)

	words, err := s.feed.FetchBatch(ctx, 0)

	s.mu.Lock()
	s.foreground--
	stillLoading := s.foreground > 0
	s.mu.Unlock()

	if err != nil {
		if s.current(ticket) {
			s.store.SetError(err.Error())
		}
		s.log.ErrorContext(ctx, "foreground fetch failed", slog.String("error", err.Error()))
	} else {
		s.apply(ctx, ticket, words, "foreground")
	}

	s.store.SetLoading(stillLoading)
	s.maybePrefetch(ctx)
	return err
}

// Next advances the cursor and evaluates the prefetch policy.
func (s *Session) Next(ctx context.Context) error {
	return s.Move(ctx, DirectionNext)
}

// Previous moves the cursor back and evaluates the prefetch policy.
func (s *Session) Previous(ctx context.Context) error {
	return s.Move(ctx, DirectionPrevious)
}

// Move moves the cursor in dir and starts a prefetch when the cursor is
// within the threshold of the batch end.
func (s *Session) Move(ctx context.Context, dir Direction) error {
	if err := s.store.Advance(dir); err != nil {
		return err
	}
	s.maybePrefetch(ctx)
	return nil
}

// Wait blocks until no prefetch is running.
func (s *Session) Wait() {
	s.mu.Lock()
	end := s.prefetchEnd
	s.mu.Unlock()

	if end != nil {
		<-end
	}
}

// Close cancels any running prefetch and waits for it to finish.
func (s *Session) Close() {
	s.cancel()
	s.Wait()
}

func (s *Session) maybePrefetch(ctx context.Context) {
	n, cursor := s.store.Len()
	if n == 0 || cursor < n-s.threshold {
		return
	}

	s.mu.Lock()
	if s.foreground > 0 || s.prefetchEnd != nil || s.base.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.generation++
	ticket := s.generation
	end := make(chan struct{})
	s.prefetchEnd = end
	s.mu.Unlock()

	s.log.DebugContext(ctx, "prefetch started", slog.Int("cursor", cursor), slog.Int("words", n))
	go s.prefetch(ticket, end)
}

func (s *Session) prefetch(ticket uint64, end chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.prefetchEnd = nil
		s.mu.Unlock()
		close(end)
	}()

	ctx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	words, err := s.feed.FetchBatch(ctx, 0)
	if err != nil {
		s.log.Warn("prefetch failed", slog.String("error", err.Error()))
		return
	}
	// The policy is not re-evaluated here: a short replacement batch would
	// otherwise chain prefetches back to back.
	s.apply(ctx, ticket, words, "prefetch")
}

// begin issues a ticket. A foreground ticket supersedes every older one.
func (s *Session) begin(foreground bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if foreground {
		s.foreground++
		s.floor = s.generation
	}
	return s.generation
}

func (s *Session) current(ticket uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.staleGuard || ticket >= s.floor
}

// apply installs words unless the ticket has been superseded. mu is held
// across SetWords so two results cannot interleave.
func (s *Session) apply(ctx context.Context, ticket uint64, words []domain.Word, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staleGuard && (ticket < s.floor || ticket < s.applied) {
		s.log.InfoContext(ctx, "discarding stale batch",
			slog.String("source", source),
			slog.Uint64("ticket", ticket),
			slog.Uint64("floor", s.floor),
		)
		return
	}
	s.applied = ticket
	s.store.SetWords(words)
}
