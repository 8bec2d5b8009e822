package rest

import (
	"net/http"

	"github.com/heartmarshall/wordbrowser/internal/transport/middleware"
)

// Routes groups the handlers mounted by NewRouter.
type Routes struct {
	Health *HealthHandler
	Words  *WordsHandler
	Events *EventsHandler
	// Refresh wraps the foreground refresh endpoint. May be nil.
	Refresh middleware.Middleware
}

// NewRouter builds the HTTP mux. Health probes sit at the root; the browsing
// API lives under /api/v1.
func NewRouter(routes Routes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", routes.Health.Live)
	mux.HandleFunc("GET /ready", routes.Health.Ready)
	mux.HandleFunc("GET /health", routes.Health.Health)

	limited := middleware.Chain(routes.Refresh)

	mux.HandleFunc("GET /api/v1/state", routes.Words.State)
	mux.HandleFunc("GET /api/v1/words/current", routes.Words.Current)
	mux.Handle("POST /api/v1/words/refresh", limited(http.HandlerFunc(routes.Words.Refresh)))
	mux.HandleFunc("POST /api/v1/words/{direction}", routes.Words.Move)
	mux.HandleFunc("GET /api/v1/bookmarks", routes.Words.Bookmarks)
	mux.HandleFunc("POST /api/v1/bookmarks/{id}", routes.Words.ToggleBookmark)
	mux.HandleFunc("GET /api/v1/events", routes.Events.Stream)

	return mux
}
