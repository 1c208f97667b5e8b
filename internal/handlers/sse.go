package handlers

import (
	"fmt"
	"net/http"
)

// SSEHandler streams custody events to connected clients.
func (h *Handler) SSEHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	pubsub := h.Cache.Subscribe(r.Context())
	defer pubsub.Close()

	ch := pubsub.Channel()

	fmt.Fprintf(w, "data: %s\n\n", "connected")
	w.(http.Flusher).Flush()

	for {
		select {
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			w.(http.Flusher).Flush()
		case <-r.Context().Done():
			return
		}
	}
}
