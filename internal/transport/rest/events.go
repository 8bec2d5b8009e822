package rest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/wordbrowser/internal/service/browse"
)

const defaultHeartbeat = 25 * time.Second

type eventSource interface {
	Subscribe() (<-chan browse.Event, func())
	State() browse.State
}

// EventsHandler streams store events as Server-Sent Events.
type EventsHandler struct {
	source    eventSource
	log       *slog.Logger
	heartbeat time.Duration
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(source eventSource, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		source:    source,
		log:       logger.With("handler", "events"),
		heartbeat: defaultHeartbeat,
	}
}

// Stream sends the current state as a "snapshot" event and then one event
// per store mutation until the client disconnects.
// GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut long-lived streams.
	_ = rc.SetWriteDeadline(time.Time{})

	events, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "snapshot", h.source.State()); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.log.WarnContext(r.Context(), "streaming unsupported", slog.String("error", err.Error()))
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, string(ev.Kind), ev.State); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, state browse.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
