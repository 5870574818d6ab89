package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/kozaktomas/attendance/internal/attendance"
)

// EventHub fans session events out to connected SSE clients. Slow clients
// drop events instead of blocking the session loop.
type EventHub struct {
	mu        sync.RWMutex
	listeners map[string]chan attendance.Event
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{
		listeners: make(map[string]chan attendance.Event),
	}
}

// Publish delivers an event to all listeners. Safe to use as Session.Notify.
func (h *EventHub) Publish(event attendance.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- event:
		default: // listener is behind, drop the event
		}
	}
}

// AddListener registers a new client and returns its ID and event channel.
func (h *EventHub) AddListener() (string, <-chan attendance.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := uuid.New().String()
	ch := make(chan attendance.Event, 16)
	h.listeners[id] = ch
	return id, ch
}

// RemoveListener unregisters a client.
func (h *EventHub) RemoveListener(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		close(ch)
		delete(h.listeners, id)
	}
}

// ListenerCount returns the number of connected clients.
func (h *EventHub) ListenerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// EventsHandler streams attendance events via SSE.
type EventsHandler struct {
	hub *EventHub
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(hub *EventHub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream sends attendance events to the client until it disconnects.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	id, events := h.hub.AddListener()
	defer h.hub.RemoveListener(id)

	sendSSEEvent(w, flusher, "connected", map[string]string{"client_id": id})

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
