package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const keepAliveInterval = 25 * time.Second

// handleSessionEvents streams engine change notifications as server-sent
// events. Each event carries the full snapshot, so a client that misses one
// is corrected by the next.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	changes, cancel := s.Session.Subscribe()
	defer cancel()

	send := func(event string) {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, mustJSON(s.Session.Snapshot()))
		flusher.Flush()
	}
	send("snapshot")

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case c, ok := <-changes:
			if !ok {
				return
			}
			send(string(c))
		}
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{}`
	}
	return string(b)
}
