package browse

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/heartmarshall/wordbrowser/internal/config"
	"github.com/heartmarshall/wordbrowser/internal/domain"
)

// SnapshotVersion is the envelope version written and accepted on restore.
const SnapshotVersion = 1

// KV is the string-keyed store the snapshot is persisted to.
// Get returns domain.ErrNotFound for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Snapshot is the persisted subset of the browsing state.
type Snapshot struct {
	BookmarkedWords []domain.Word `json:"bookmarkedWords"`
	Words           []domain.Word `json:"words"`
}

type envelope struct {
	State   Snapshot `json:"state"`
	Version int      `json:"version"`
}

// Persister writes snapshots to a KV in the background and loads them back.
// Writes are coalesced: while one write is running only the most recent
// snapshot is kept, so an older snapshot never lands after a newer one.
type Persister struct {
	log          *slog.Logger
	kv           KV
	key          string
	persistBatch bool
	timeout      time.Duration

	mu      sync.Mutex
	pending *Snapshot
	done    chan struct{} // non-nil while a writer goroutine runs
}

// NewPersister creates a persister for the configured storage key.
func NewPersister(logger *slog.Logger, kv KV, cfg config.BrowseConfig) *Persister {
	timeout := cfg.PersistTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Persister{
		log:          logger.With("component", "persister"),
		kv:           kv,
		key:          cfg.StorageKey,
		persistBatch: cfg.PersistBatch,
		timeout:      timeout,
	}
}

// Record schedules snap to be written. It never blocks on the KV.
func (p *Persister) Record(snap Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = &snap
	if p.done != nil {
		return
	}
	p.done = make(chan struct{})
	go p.drain(p.done)
}

// Flush waits until every recorded snapshot has been written or ctx is done.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Persister) drain(done chan struct{}) {
	for {
		p.mu.Lock()
		snap := p.pending
		p.pending = nil
		if snap == nil {
			p.done = nil
			p.mu.Unlock()
			close(done)
			return
		}
		p.mu.Unlock()

		p.write(*snap)
	}
}

func (p *Persister) write(snap Snapshot) {
	env := envelope{
		State: Snapshot{
			BookmarkedWords: orEmpty(snap.BookmarkedWords),
			Words:           []domain.Word{},
		},
		Version: SnapshotVersion,
	}
	if p.persistBatch {
		env.State.Words = orEmpty(snap.Words)
	}

	data, err := json.Marshal(env)
	if err != nil {
		p.log.Error("encode snapshot", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.kv.Set(ctx, p.key, string(data)); err != nil {
		p.log.Error("persist snapshot failed",
			slog.String("key", p.key),
			slog.String("error", err.Error()),
		)
		return
	}
	p.log.Debug("snapshot persisted",
		slog.Int("bookmarks", len(env.State.BookmarkedWords)),
		slog.Int("words", len(env.State.Words)),
	)
}

// Load reads the snapshot. A missing key, an unreadable store, malformed
// JSON or an unknown version all yield an empty snapshot.
func (p *Persister) Load(ctx context.Context) Snapshot {
	empty := Snapshot{BookmarkedWords: []domain.Word{}, Words: []domain.Word{}}

	raw, err := p.kv.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			p.log.InfoContext(ctx, "no saved snapshot", slog.String("key", p.key))
		} else {
			p.log.WarnContext(ctx, "read snapshot failed", slog.String("error", err.Error()))
		}
		return empty
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		p.log.WarnContext(ctx, "discarding malformed snapshot", slog.String("error", err.Error()))
		return empty
	}
	if env.Version != SnapshotVersion {
		p.log.WarnContext(ctx, "discarding snapshot with unknown version", slog.Int("version", env.Version))
		return empty
	}

	return Snapshot{
		BookmarkedWords: orEmpty(env.State.BookmarkedWords),
		Words:           orEmpty(env.State.Words),
	}
}

func orEmpty(words []domain.Word) []domain.Word {
	if words == nil {
		return []domain.Word{}
	}
	return words
}
