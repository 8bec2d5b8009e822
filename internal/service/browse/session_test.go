package browse

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/wordbrowser/internal/domain"
)

// ---------------------------------------------------------------------------
// Manual mocks (moq-style with func fields)
// ---------------------------------------------------------------------------

type mockBatchFetcher struct {
	FetchBatchFunc func(ctx context.Context, count int) ([]domain.Word, error)
	calls          atomic.Int32
}

func (m *mockBatchFetcher) FetchBatch(ctx context.Context, count int) ([]domain.Word, error) {
	m.calls.Add(1)
	return m.FetchBatchFunc(ctx, count)
}

type mockSnapshotLoader struct {
	LoadFunc func(ctx context.Context) Snapshot
}

func (m *mockSnapshotLoader) Load(ctx context.Context) Snapshot {
	return m.LoadFunc(ctx)
}

func fixedBatch(words []domain.Word) *mockBatchFetcher {
	return &mockBatchFetcher{
		FetchBatchFunc: func(_ context.Context, _ int) ([]domain.Word, error) {
			return words, nil
		},
	}
}

// gatedBatch blocks each fetch until a batch is sent on release.
type gatedBatch struct {
	started chan struct{}
	release chan []domain.Word
}

func newGatedBatch() (*gatedBatch, *mockBatchFetcher) {
	g := &gatedBatch{started: make(chan struct{}, 8), release: make(chan []domain.Word)}
	return g, &mockBatchFetcher{
		FetchBatchFunc: func(ctx context.Context, _ int) ([]domain.Word, error) {
			g.started <- struct{}{}
			select {
			case words := <-g.release:
				return words, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
}

func newTestSession(store *Store, feed batchFetcher) *Session {
	return NewSession(slog.Default(), store, feed, nil, browseConfig())
}

func waitStarted(t *testing.T, g *gatedBatch) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not start")
	}
}

func wordIDs(words []domain.Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.ID
	}
	return out
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestSession_Refresh_Success(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.SetError("previous failure")
	feed := fixedBatch(seqWords(5))
	sess := newTestSession(store, feed)

	require.NoError(t, sess.Refresh(context.Background()))
	sess.Wait()

	st := store.State()
	assert.Equal(t, wordIDs(seqWords(5)), wordIDs(st.Words))
	assert.Equal(t, int32(1), feed.calls.Load(), "cursor 0 of 5 is outside the threshold")
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Error)
}

func TestSession_Refresh_FailureSetsError(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.SetWords(makeWords("keep", "k2", "k3"))
	feed := &mockBatchFetcher{
		FetchBatchFunc: func(_ context.Context, _ int) ([]domain.Word, error) {
			return nil, errors.New("could not find any words with definitions")
		},
	}
	sess := newTestSession(store, feed)

	err := sess.Refresh(context.Background())

	require.Error(t, err)
	st := store.State()
	assert.Equal(t, "could not find any words with definitions", st.Error)
	assert.False(t, st.IsLoading)
	assert.Equal(t, []string{"keep", "k2", "k3"}, wordIDs(st.Words))
}

func TestSession_Refresh_EventOrder(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	events, unsubscribe := store.Subscribe()
	defer unsubscribe()
	sess := newTestSession(store, fixedBatch(seqWords(5)))

	require.NoError(t, sess.Refresh(context.Background()))

	var kinds []EventKind
	for range 4 {
		kinds = append(kinds, (<-events).Kind)
	}
	assert.Equal(t, []EventKind{EventError, EventLoading, EventWords, EventLoading}, kinds)
}

func TestSession_Refresh_LoadingWhileInFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	gate, feed := newGatedBatch()
	sess := newTestSession(store, feed)

	done := make(chan error, 1)
	go func() { done <- sess.Refresh(context.Background()) }()
	waitStarted(t, gate)

	assert.True(t, store.State().IsLoading)
	gate.release <- seqWords(5)
	require.NoError(t, <-done)
	assert.False(t, store.State().IsLoading)
}

// ---------------------------------------------------------------------------
// Prefetch
// ---------------------------------------------------------------------------

func TestSession_Move_PrefetchNearEnd(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.SetWords(makeWords("a", "b", "c", "d", "e"))
	feed := fixedBatch(makeWords("f", "g", "h", "i", "j"))
	sess := newTestSession(store, feed)
	ctx := context.Background()

	require.NoError(t, sess.Next(ctx))
	require.NoError(t, sess.Next(ctx))
	sess.Wait()
	assert.Zero(t, feed.calls.Load(), "cursor 2 of 5 is outside the threshold")

	require.NoError(t, sess.Next(ctx))
	sess.Wait()

	assert.Equal(t, int32(1), feed.calls.Load())
	st := store.State()
	assert.Equal(t, []string{"f", "g", "h", "i", "j"}, wordIDs(st.Words))
	assert.Equal(t, 3, st.CurrentIndex, "cursor still fits the new batch")
	assert.False(t, st.IsLoading, "prefetch never touches the loading flag")
}

func TestSession_Move_PreviousAlsoPrefetches(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.SetWords(makeWords("a", "b", "c", "d", "e"))
	feed := fixedBatch(makeWords("x"))
	sess := newTestSession(store, feed)

	require.NoError(t, sess.Previous(context.Background()))
	sess.Wait()

	assert.Equal(t, int32(1), feed.calls.Load())
	assert.Equal(t, 0, store.State().CurrentIndex, "cursor 4 does not fit a batch of 1")
}

func TestSession_Move_SinglePrefetchInFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.SetWords(makeWords("a", "b", "c"))
	gate, feed := newGatedBatch()
	sess := newTestSession(store, feed)
	ctx := context.Background()

	require.NoError(t, sess.Next(ctx))
	waitStarted(t, gate)
	require.NoError(t, sess.Next(ctx))
	require.NoError(t, sess.Previous(ctx))

	assert.Equal(t, int32(1), feed.calls.Load())
	gate.release <- makeWords("x", "y", "z")
	sess.Wait()

	require.NoError(t, sess.Next(ctx))
	waitStarted(t, gate)
	assert.Equal(t, int32(2), feed.calls.Load(), "a new prefetch may start once the previous one ended")
	gate.release <- makeWords("x", "y", "z")
	sess.Wait()
}

func TestSession_Move_NoPrefetchDuringForeground(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.SetWords(makeWords("a", "b"))
	gate, feed := newGatedBatch()
	sess := newTestSession(store, feed)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- sess.Refresh(ctx) }()
	waitStarted(t, gate)

	require.NoError(t, sess.Next(ctx))
	sess.Wait()
	assert.Equal(t, int32(1), feed.calls.Load())

	gate.release <- makeWords("c", "d", "e", "f", "g", "h")
	require.NoError(t, <-done)
}

func TestSession_Move_PrefetchFailureIsSilent(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.SetWords(makeWords("a", "b"))
	feed := &mockBatchFetcher{
		FetchBatchFunc: func(_ context.Context, _ int) ([]domain.Word, error) {
			return nil, errors.New("failed to get words with definitions")
		},
	}
	sess := newTestSession(store, feed)

	require.NoError(t, sess.Next(context.Background()))
	sess.Wait()

	st := store.State()
	assert.Equal(t, int32(1), feed.calls.Load())
	assert.Empty(t, st.Error)
	assert.False(t, st.IsLoading)
	assert.Equal(t, []string{"a", "b"}, wordIDs(st.Words))
}

func TestSession_Move_EmptyBatchNoPrefetch(t *testing.T) {
	t.Parallel()

	feed := fixedBatch(makeWords("a"))
	sess := newTestSession(NewStore(nil), feed)

	require.NoError(t, sess.Next(context.Background()))
	sess.Wait()

	assert.Zero(t, feed.calls.Load())
}

func TestSession_Move_InvalidDirection(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.SetWords(makeWords("a", "b"))
	feed := fixedBatch(nil)
	sess := newTestSession(store, feed)

	err := sess.Move(context.Background(), Direction("up"))

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, feed.calls.Load())
}

func TestSession_Refresh_ShortBatchPrefetches(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	var calls atomic.Int32
	feed := &mockBatchFetcher{
		FetchBatchFunc: func(_ context.Context, _ int) ([]domain.Word, error) {
			if calls.Add(1) == 1 {
				return makeWords("a", "b"), nil
			}
			return makeWords("c", "d"), nil
		},
	}
	sess := newTestSession(store, feed)

	require.NoError(t, sess.Refresh(context.Background()))
	sess.Wait()

	assert.Equal(t, int32(2), feed.calls.Load(), "cursor 0 of 2 is within the threshold")
	st := store.State()
	assert.Equal(t, []string{"c", "d"}, wordIDs(st.Words))
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Error)
}

func TestSession_Refresh_PrefetchesForMovesDuringLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.SetWords(seqWords(5))
	gate, feed := newGatedBatch()
	sess := newTestSession(store, feed)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- sess.Refresh(ctx) }()
	waitStarted(t, gate)

	for range 3 {
		require.NoError(t, sess.Next(ctx))
	}
	assert.Equal(t, int32(1), feed.calls.Load(), "no prefetch while the load runs")

	gate.release <- makeWords("f", "g", "h", "i", "j")
	require.NoError(t, <-done)

	waitStarted(t, gate)
	assert.Equal(t, int32(2), feed.calls.Load(), "cursor 3 of 5 triggers a prefetch once loading ends")
	gate.release <- makeWords("k", "l", "m", "n", "o")
	sess.Wait()

	st := store.State()
	assert.Equal(t, []string{"k", "l", "m", "n", "o"}, wordIDs(st.Words))
	assert.Equal(t, 3, st.CurrentIndex)
}

// ---------------------------------------------------------------------------
// Stale guard
// ---------------------------------------------------------------------------

// staleRace starts a prefetch, completes a foreground refresh with batch
// "fresh", and then lets the prefetch finish with batch "stale".
func staleRace(t *testing.T, guard bool) []string {
	t.Helper()

	store := NewStore(nil)
	store.SetWords(makeWords("a", "b"))

	gate, prefetchFeed := newGatedBatch()
	var foreground atomic.Bool
	feed := &mockBatchFetcher{
		FetchBatchFunc: func(ctx context.Context, count int) ([]domain.Word, error) {
			if foreground.Load() {
				return makeWords("fresh"), nil
			}
			return prefetchFeed.FetchBatchFunc(ctx, count)
		},
	}

	cfg := browseConfig()
	cfg.StaleGuard = guard
	sess := NewSession(slog.Default(), store, feed, nil, cfg)
	ctx := context.Background()

	require.NoError(t, sess.Next(ctx))
	waitStarted(t, gate)

	foreground.Store(true)
	require.NoError(t, sess.Refresh(ctx))
	require.Equal(t, []string{"fresh"}, wordIDs(store.State().Words))

	gate.release <- makeWords("stale")
	sess.Wait()

	return wordIDs(store.State().Words)
}

func TestSession_StaleGuard_DiscardsSupersededPrefetch(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"fresh"}, staleRace(t, true))
}

func TestSession_StaleGuard_DisabledIsLastWriteWins(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"stale"}, staleRace(t, false))
}

// ---------------------------------------------------------------------------
// Restore / Close
// ---------------------------------------------------------------------------

func TestSession_Restore_WithBatchSkipsFetch(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	feed := fixedBatch(makeWords("new"))
	loader := &mockSnapshotLoader{
		LoadFunc: func(_ context.Context) Snapshot {
			return Snapshot{Words: makeWords("saved", "s2", "s3", "s4"), BookmarkedWords: makeWords("mark")}
		},
	}
	sess := NewSession(slog.Default(), store, feed, loader, browseConfig())

	require.NoError(t, sess.Restore(context.Background()))
	sess.Wait()

	assert.Zero(t, feed.calls.Load())
	assert.Equal(t, []string{"saved", "s2", "s3", "s4"}, wordIDs(store.State().Words))
	assert.True(t, store.IsBookmarked("mark"))
}

func TestSession_Restore_EmptyBatchLoads(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	feed := fixedBatch(makeWords("new", "n2", "n3"))
	loader := &mockSnapshotLoader{
		LoadFunc: func(_ context.Context) Snapshot {
			return Snapshot{Words: []domain.Word{}, BookmarkedWords: makeWords("mark")}
		},
	}
	sess := NewSession(slog.Default(), store, feed, loader, browseConfig())

	require.NoError(t, sess.Restore(context.Background()))
	sess.Wait()

	assert.Equal(t, int32(1), feed.calls.Load())
	assert.Equal(t, []string{"new", "n2", "n3"}, wordIDs(store.State().Words))
	assert.True(t, store.IsBookmarked("mark"), "bookmarks survive the initial load")
}

func TestSession_Restore_InitialLoadFailure(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	feed := &mockBatchFetcher{
		FetchBatchFunc: func(_ context.Context, _ int) ([]domain.Word, error) {
			return nil, errors.New("failed to get words with definitions")
		},
	}
	sess := newTestSession(store, feed)

	err := sess.Restore(context.Background())

	require.Error(t, err)
	assert.Equal(t, "failed to get words with definitions", store.State().Error)
}

func TestSession_Restore_ShortBatchPrefetches(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	feed := fixedBatch(makeWords("new", "n2", "n3", "n4"))
	loader := &mockSnapshotLoader{
		LoadFunc: func(_ context.Context) Snapshot {
			return Snapshot{Words: makeWords("saved"), BookmarkedWords: []domain.Word{}}
		},
	}
	sess := NewSession(slog.Default(), store, feed, loader, browseConfig())

	require.NoError(t, sess.Restore(context.Background()))
	sess.Wait()

	assert.Equal(t, int32(1), feed.calls.Load())
	st := store.State()
	assert.Equal(t, []string{"new", "n2", "n3", "n4"}, wordIDs(st.Words))
	assert.False(t, st.IsLoading, "a restored batch is replaced in the background")
}

func TestSession_Close_CancelsPrefetch(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.SetWords(makeWords("a", "b"))
	gate, feed := newGatedBatch()
	sess := newTestSession(store, feed)

	require.NoError(t, sess.Next(context.Background()))
	waitStarted(t, gate)

	closed := make(chan struct{})
	go func() {
		sess.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.Equal(t, []string{"a", "b"}, wordIDs(store.State().Words))

	require.NoError(t, sess.Next(context.Background()))
	assert.Equal(t, int32(1), feed.calls.Load(), "no prefetch after Close")
}
