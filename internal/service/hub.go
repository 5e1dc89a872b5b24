package service

import (
	"sync"

	"tilt_cover/internal/models"
)

const subscriberBuffer = 16

// StateHub fans state reports out to any number of subscribers. Slow
// subscribers miss reports instead of blocking the control loop.
type StateHub struct {
	mu      sync.RWMutex
	clients map[chan models.CoverState]struct{}
}

func NewStateHub() *StateHub {
	return &StateHub{clients: make(map[chan models.CoverState]struct{})}
}

// Subscribe returns a report channel and the function that releases it.
func (h *StateHub) Subscribe() (<-chan models.CoverState, func()) {
	ch := make(chan models.CoverState, subscriberBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

func (h *StateHub) Broadcast(s models.CoverState) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- s:
		default:
		}
	}
}
