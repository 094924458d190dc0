package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// StreamLogs handles GET /api/v1/logs/stream - Server-Sent Events
// endpoint for live log tailing. Filter criteria come from query
// parameters; with none present the stored filter applies.
func (h *Handlers) StreamLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	criteria, explicit, err := parseCriteriaParams(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !explicit {
		criteria = h.controller.Criteria()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	id, events := h.controller.Watch(criteria)
	defer h.controller.Unwatch(id)

	h.log.Debug("sse client connected", zap.String("watcher", id))
	defer h.log.Debug("sse client disconnected", zap.String("watcher", id))

	// Initial comment so clients know the stream is live
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ToLogEntryResponse(entry))
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: log\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
