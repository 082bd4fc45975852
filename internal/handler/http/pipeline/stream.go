package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"newsmood/internal/observability/metrics"
	"newsmood/internal/usecase/analyze"
)

const streamKeepAlive = 30 * time.Second

// StreamHandler serves live classification results over Server-Sent
// Events. Each successfully classified article arrives as one
// `data: {"url","title","sentiment"}` event.
type StreamHandler struct {
	Broker *analyze.Broker
}

func (h StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.Broker.Subscribe()
	defer h.Broker.Unsubscribe(sub)

	metrics.SSESubscribers.Inc()
	defer metrics.SSESubscribers.Dec()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			// SSE comment line, keeps proxies from closing the stream.
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-sub:
			payload, err := json.Marshal(ev)
			if err != nil {
				slog.Error("could not encode stream event", slog.Any("error", err))
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
