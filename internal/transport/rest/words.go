package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/wordbrowser/internal/domain"
	"github.com/heartmarshall/wordbrowser/internal/service/browse"
)

type browseSession interface {
	Refresh(ctx context.Context) error
	Move(ctx context.Context, dir browse.Direction) error
}

type browseStore interface {
	State() browse.State
	Current() (browse.Card, bool)
	Bookmarks() []domain.Word
	Lookup(id string) (domain.Word, bool)
	ToggleBookmark(word domain.Word) bool
}

// WordsHandler serves the browsing endpoints.
type WordsHandler struct {
	session        browseSession
	store          browseStore
	log            *slog.Logger
	refreshTimeout time.Duration
}

// NewWordsHandler creates a WordsHandler. A refresh keeps running for up to
// refreshTimeout even if the client goes away.
func NewWordsHandler(session browseSession, store browseStore, logger *slog.Logger, refreshTimeout time.Duration) *WordsHandler {
	if refreshTimeout <= 0 {
		refreshTimeout = 2 * time.Minute
	}
	return &WordsHandler{
		session:        session,
		store:          store,
		log:            logger.With("handler", "words"),
		refreshTimeout: refreshTimeout,
	}
}

type bookmarkResponse struct {
	ID         string `json:"id"`
	Bookmarked bool   `json:"bookmarked"`
}

// State returns the full browsing state.
// GET /api/v1/state
func (h *WordsHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.State())
}

// Current returns the card under the cursor.
// GET /api/v1/words/current
func (h *WordsHandler) Current(w http.ResponseWriter, r *http.Request) {
	h.writeCurrent(w)
}

// Move advances the cursor and returns the new current card.
// POST /api/v1/words/{direction}
func (h *WordsHandler) Move(w http.ResponseWriter, r *http.Request) {
	dir, err := browse.ParseDirection(r.PathValue("direction"))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	if err := h.session.Move(r.Context(), dir); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	h.writeCurrent(w)
}

// Refresh runs a foreground fetch and returns the new state.
// POST /api/v1/words/refresh
func (h *WordsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.refreshTimeout)
	defer cancel()

	if err := h.session.Refresh(ctx); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, h.store.State())
}

// Bookmarks lists bookmarked words in insertion order.
// GET /api/v1/bookmarks
func (h *WordsHandler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Bookmarks())
}

// ToggleBookmark flips the bookmark of a word from the batch or the bookmark list.
// POST /api/v1/bookmarks/{id}
func (h *WordsHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	word, ok := h.store.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "word not found")
		return
	}

	bookmarked := h.store.ToggleBookmark(word)
	h.log.InfoContext(r.Context(), "bookmark toggled",
		slog.String("word", id),
		slog.Bool("bookmarked", bookmarked),
	)

	writeJSON(w, http.StatusOK, bookmarkResponse{ID: id, Bookmarked: bookmarked})
}

func (h *WordsHandler) writeCurrent(w http.ResponseWriter) {
	card, ok := h.store.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "no words loaded")
		return
	}
	writeJSON(w, http.StatusOK, card)
}
