package sse

import (
	"sync"
)

// Event represents an SSE event to be sent to subscribers
type Event struct {
	Feed  string
	Event string
	Data  interface{}
}

// Hub manages SSE subscribers per feed and event broadcasting
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber for a feed and returns the event channel and cleanup function
func (h *Hub) Subscribe(feed string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)

	if h.subscribers[feed] == nil {
		h.subscribers[feed] = make(map[chan Event]struct{})
	}
	h.subscribers[feed][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[feed], ch)
			close(ch)
			if len(h.subscribers[feed]) == 0 {
				delete(h.subscribers, feed)
			}
		})
	}

	return ch, cleanup
}

// Publish sends an event to all subscribers of a feed
func (h *Hub) Publish(feed string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Feed = feed
	if subs, ok := h.subscribers[feed]; ok {
		for ch := range subs {
			select {
			case ch <- event:
			default:
				// Skip if channel is full (non-blocking to prevent deadlock)
			}
		}
	}
}

// PublishToMany sends an event to several feeds
func (h *Hub) PublishToMany(feeds []string, event Event) {
	for _, feed := range feeds {
		h.Publish(feed, event)
	}
}

// SubscriberCount returns the number of active subscribers for a feed
func (h *Hub) SubscriberCount(feed string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[feed]; ok {
		return len(subs)
	}
	return 0
}

// TotalSubscribers returns the total number of active subscribers across all feeds
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}
