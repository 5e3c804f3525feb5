package feed

import (
	"context"
	"sync"
)

// Hub is an in-process Broadcaster. It is used on its own when the
// service runs as a single instance and as the local fan-out behind
// RedisBroadcaster.
type Hub struct {
	mu        sync.RWMutex
	next      uint64
	listeners map[string]map[uint64]func(Update)
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{listeners: make(map[string]map[uint64]func(Update))}
}

func (h *Hub) Publish(_ context.Context, u Update) error {
	h.dispatch(u)
	return nil
}

func (h *Hub) Listen(_ context.Context, dateKey string, fn func(Update)) (func(), error) {
	id := h.add(dateKey, fn)
	var once sync.Once
	return func() { once.Do(func() { h.remove(dateKey, id) }) }, nil
}

// Listeners returns the number of listeners registered for dateKey.
func (h *Hub) Listeners(dateKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[dateKey])
}

func (h *Hub) add(dateKey string, fn func(Update)) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	m, ok := h.listeners[dateKey]
	if !ok {
		m = make(map[uint64]func(Update))
		h.listeners[dateKey] = m
	}
	m[h.next] = fn
	return h.next
}

// remove drops a listener, and the date entry once it has none left.
func (h *Hub) remove(dateKey string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.listeners[dateKey]
	delete(m, id)
	if len(m) == 0 {
		delete(h.listeners, dateKey)
	}
}

// dispatch calls listeners outside the lock so a slow listener cannot
// block registration.
func (h *Hub) dispatch(u Update) {
	h.mu.RLock()
	fns := make([]func(Update), 0, len(h.listeners[u.DateKey]))
	for _, fn := range h.listeners[u.DateKey] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(u)
	}
}
