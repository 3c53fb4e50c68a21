package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/okian/wikiline/internal/adapters/realtime"
)

const keepAliveInterval = 25 * time.Second

// StreamHandler pushes game events to the browser as server-sent events.
type StreamHandler struct {
	deps      GameDependencies
	hub       Subscriber
	keepAlive time.Duration
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps GameDependencies, hub Subscriber) *StreamHandler {
	return &StreamHandler{deps: deps, hub: hub, keepAlive: keepAliveInterval}
}

// HandleStream handles GET /api/stream. The first event is always the
// current state so a reconnecting client never has to poll.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind("stream", ErrUnavailable))
		return
	}

	snap, err := h.deps.State(r.Context())
	if err != nil {
		writeServiceError(w, "stream", err)
		return
	}
	initial, err := json.Marshal(snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap("stream", err))
		return
	}

	// The server write timeout would otherwise cut the stream.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeSSE(w, "state", string(initial))
	flusher.Flush()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-sub:
			if !ok {
				return
			}
			writeSSE(w, msg.Event, string(msg.Data))
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event, data string) {
	_, _ = w.Write([]byte("event: " + event + "\n"))
	for _, line := range strings.Split(data, "\n") {
		_, _ = w.Write([]byte("data: " + line + "\n"))
	}
	_, _ = w.Write([]byte("\n"))
}

var _ Subscriber = (*realtime.Broadcaster)(nil)
