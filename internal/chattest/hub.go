package chattest

import (
	"log"
	"sync"
)

type member struct {
	conn     conn
	outgoing chan []byte
}

// hub tracks connected members and fans chunks out to them.
type hub struct {
	members map[*member]bool
	mu      sync.RWMutex
}

func newHub() *hub {
	return &hub{members: make(map[*member]bool)}
}

func (h *hub) register(m *member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.members[m] = true
}

// unregister removes m and closes its outgoing queue. Nothing sends to the
// queue afterwards because broadcast holds the read lock while sending.
func (h *hub) unregister(m *member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.members[m] {
		delete(h.members, m)
		close(m.outgoing)
	}
}

func (h *hub) broadcast(from *member, data []byte, echo bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for m := range h.members {
		if m == from && !echo {
			continue
		}
		select {
		case m.outgoing <- data:
		default:
			log.Printf("chattest: dropping %d bytes for slow member", len(data))
		}
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

func (h *hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for m := range h.members {
		m.conn.Close()
	}
}
