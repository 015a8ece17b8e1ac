package webui

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// handleSSEActivity streams console events over Server-Sent Events.
// An optional ?events= query lists comma-separated event types to
// subscribe to; no filter means every event.
func (s *Server) handleSSEActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	var filters []string
	if raw := r.URL.Query().Get("events"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				filters = append(filters, f)
			}
		}
	}

	client, err := s.sseManager.RegisterClient(uuid.New().String(), filters)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer s.sseManager.UnregisterClient(client.ID)

	// Initial event so the browser knows the stream is live
	connected, err := json.Marshal(map[string]string{
		"client_id": client.ID,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if err == nil {
		if _, err := w.Write(formatSSEMessage(EventTypeConnected, connected)); err != nil {
			return
		}
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.Done:
			return
		case msg, ok := <-client.Events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
