// internal/realtime/sse.go
package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kitchenops/internal/logger"
)

// Stream serves topic's events as Server-Sent Events until the client goes
// away or the broker closes.
func (b *Broker) Stream(w http.ResponseWriter, r *http.Request, topic string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cancel := b.Subscribe(topic)
	defer cancel()

	clientIP := logger.GetClientIP(r)
	logger.LogInfo("SSE client %s subscribed to %s", clientIP, topic)
	defer logger.LogInfo("SSE client %s left %s", clientIP, topic)

	if err := writeEvent(w, "connected", Event{Topic: topic, Type: "connected"}); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(b.pingInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, ev.Type, ev); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, name string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}
