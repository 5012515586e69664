package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/phillipkujawa/wemo-controller/internal/events"
)

// handleEvents serves the Server-Sent Events stream.
//
// Each connection gets its own broadcaster subscription: events
// published before the connection are never replayed, and a slow
// reader loses events rather than slowing anyone else down. An idle
// stream emits a keepalive on the configured interval so proxies and
// clients can tell a quiet stream from a dead one.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeInternalError(w, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(sub)

	s.logger.Debug("sse client connected", "subscribers", s.broadcaster.SubscriberCount())
	defer s.logger.Debug("sse client disconnected")

	if err := writeSSE(w, events.TypeConnected, map[string]string{"message": "Connected to event stream"}); err != nil {
		return
	}
	flusher.Flush()

	keepalive := time.NewTicker(time.Duration(s.eventsCfg.KeepaliveInterval) * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeSSE(w, ev.Type, ev.Data); err != nil {
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if err := writeSSE(w, events.TypeKeepalive, map[string]string{"timestamp": uuid.NewString()}); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSE writes one event in text/event-stream framing.
func writeSSE(w io.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
