// Package browse holds the browsing state of a word batch: the cursor,
// bookmarks, loading and error flags, and the background prefetch that keeps
// the batch fresh.
package browse

import (
	"fmt"
	"sync"

	"github.com/heartmarshall/wordbrowser/internal/domain"
)

const eventBuffer = 64

// Direction is a cursor movement.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// ParseDirection validates a direction received from a client.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionNext, DirectionPrevious:
		return d, nil
	default:
		return "", domain.NewValidationError("direction", fmt.Sprintf("unknown direction %q", s))
	}
}

// EventKind names the part of the state a mutation touched.
type EventKind string

const (
	EventWords     EventKind = "words"
	EventCursor    EventKind = "cursor"
	EventBookmarks EventKind = "bookmarks"
	EventLoading   EventKind = "loading"
	EventError     EventKind = "error"
	EventRestored  EventKind = "restored"
)

// State is a point-in-time copy of the browsing state.
type State struct {
	Words           []domain.Word `json:"words"`
	CurrentIndex    int           `json:"currentIndex"`
	BookmarkedWords []domain.Word `json:"bookmarkedWords"`
	IsLoading       bool          `json:"isLoading"`
	Error           string        `json:"error,omitempty"`
}

// Event is delivered to subscribers after every mutation.
type Event struct {
	Kind  EventKind `json:"kind"`
	State State     `json:"state"`
}

// Card is the word under the cursor together with its bookmark flag.
type Card struct {
	Word         domain.Word `json:"word"`
	Index        int         `json:"index"`
	Total        int         `json:"total"`
	IsBookmarked bool        `json:"isBookmarked"`
}

// snapshotRecorder receives the persisted subset after words or bookmarks change.
// Record must not block.
type snapshotRecorder interface {
	Record(Snapshot)
}

// Store is the single observable container of browsing state.
// All methods are safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	words     []domain.Word
	cursor    int
	bookmarks []domain.Word
	loading   bool
	errMsg    string

	recorder snapshotRecorder

	subsMu sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewStore creates an empty store. recorder may be nil.
func NewStore(recorder snapshotRecorder) *Store {
	return &Store{
		words:     []domain.Word{},
		bookmarks: []domain.Word{},
		recorder:  recorder,
		subs:      make(map[int]chan Event),
	}
}

// SetWords replaces the batch wholesale. The cursor is reset to 0 only when
// it no longer fits the new batch.
func (s *Store) SetWords(words []domain.Word) {
	s.mu.Lock()
	s.words = domain.CloneWords(words)
	if s.cursor >= len(s.words) {
		s.cursor = 0
	}
	s.record()
	state := s.stateLocked()
	s.mu.Unlock()

	s.publish(EventWords, state)
}

// Advance moves the cursor one step, wrapping at both ends.
// It is a no-op on an empty batch.
func (s *Store) Advance(dir Direction) error {
	if _, err := ParseDirection(string(dir)); err != nil {
		return err
	}

	s.mu.Lock()
	n := len(s.words)
	if n == 0 {
		s.mu.Unlock()
		return nil
	}
	if dir == DirectionNext {
		s.cursor = (s.cursor + 1) % n
	} else {
		s.cursor = (s.cursor - 1 + n) % n
	}
	state := s.stateLocked()
	s.mu.Unlock()

	s.publish(EventCursor, state)
	return nil
}

// ToggleBookmark removes the bookmark with the word's id if present and
// appends the word otherwise. It reports whether the word is bookmarked
// afterwards.
func (s *Store) ToggleBookmark(word domain.Word) bool {
	s.mu.Lock()
	bookmarked := true
	if i := indexOf(s.bookmarks, word.ID); i >= 0 {
		s.bookmarks = append(s.bookmarks[:i:i], s.bookmarks[i+1:]...)
		bookmarked = false
	} else {
		s.bookmarks = append(s.bookmarks, word.Clone())
	}
	s.record()
	state := s.stateLocked()
	s.mu.Unlock()

	s.publish(EventBookmarks, state)
	return bookmarked
}

// SetLoading sets the foreground loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	state := s.stateLocked()
	s.mu.Unlock()

	s.publish(EventLoading, state)
}

// SetError sets the foreground error message. An empty message clears it.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	state := s.stateLocked()
	s.mu.Unlock()

	s.publish(EventError, state)
}

// Restore replaces words and bookmarks with a loaded snapshot and resets the
// cursor. Nothing is recorded back to storage.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	s.words = domain.CloneWords(snap.Words)
	s.bookmarks = dedupe(snap.BookmarkedWords)
	s.cursor = 0
	state := s.stateLocked()
	s.mu.Unlock()

	s.publish(EventRestored, state)
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

// Current returns the word under the cursor, or false on an empty batch.
func (s *Store) Current() (Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.words) == 0 {
		return Card{}, false
	}
	w := s.words[s.cursor]
	return Card{
		Word:         w.Clone(),
		Index:        s.cursor,
		Total:        len(s.words),
		IsBookmarked: indexOf(s.bookmarks, w.ID) >= 0,
	}, true
}

// IsBookmarked reports whether a word with the given id is bookmarked.
func (s *Store) IsBookmarked(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.bookmarks, id) >= 0
}

// Bookmarks returns the bookmarked words in insertion order.
func (s *Store) Bookmarks() []domain.Word {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneWords(s.bookmarks)
}

// Lookup finds a word by id in the batch and then among the bookmarks.
func (s *Store) Lookup(id string) (domain.Word, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOf(s.words, id); i >= 0 {
		return s.words[i].Clone(), true
	}
	if i := indexOf(s.bookmarks, id); i >= 0 {
		return s.bookmarks[i].Clone(), true
	}
	return domain.Word{}, false
}

// Len returns the number of words in the batch and the cursor position.
func (s *Store) Len() (n, cursor int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words), s.cursor
}

// Subscribe returns a channel that receives an Event after every mutation,
// and a function that unsubscribes and closes the channel. Events are
// dropped for a subscriber whose buffer is full.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Event, eventBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(kind EventKind, state State) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	event := Event{Kind: kind, State: state}
	for _, ch := range s.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// record must be called with mu held so snapshots reach the recorder in
// mutation order.
func (s *Store) record() {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(Snapshot{
		BookmarkedWords: domain.CloneWords(s.bookmarks),
		Words:           domain.CloneWords(s.words),
	})
}

func (s *Store) stateLocked() State {
	return State{
		Words:           domain.CloneWords(s.words),
		CurrentIndex:    s.cursor,
		BookmarkedWords: domain.CloneWords(s.bookmarks),
		IsLoading:       s.loading,
		Error:           s.errMsg,
	}
}

func indexOf(words []domain.Word, id string) int {
	for i, w := range words {
		if w.ID == id {
			return i
		}
	}
	return -1
}

func dedupe(words []domain.Word) []domain.Word {
	out := make([]domain.Word, 0, len(words))
	for _, w := range words {
		if indexOf(out, w.ID) < 0 {
			out = append(out, w.Clone())
		}
	}
	return out
}
