package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"
)

// handleEvents streams registry events to the client as server-sent events.
// The subscription is dropped when the client disconnects.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, open := <-events:
			if !open {
				return
			}

			payload, err := json.Marshal(evt)
			if err != nil {
				slog.ErrorContext(ctx, "could not marshal event", slog.Any("error", errors.WithStack(err)))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.EventName(), payload)
			flusher.Flush()
		}
	}
}
