package core

import "sync"

// Group is the set of sessions that receive fan-out events. Handlers run
// on their own connection goroutines, so membership is mutex-guarded.
// Delivery is best-effort, at-most-once per call: a slow or just-closed
// session simply misses the event.
type Group struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewGroup constructs a group with no clients.
func NewGroup() *Group {
	return &Group{clients: make(map[*Client]struct{})}
}

// Add inserts a client into the group. Returns true if newly added.
func (g *Group) Add(c *Client) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.clients[c]; exists {
		return false
	}
	g.clients[c] = struct{}{}
	return true
}

// Remove deletes a client from the group. Returns true if removed.
func (g *Group) Remove(c *Client) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.clients[c]; !exists {
		return false
	}
	delete(g.clients, c)
	return true
}

// Broadcast sends an event to all clients in the group.
func (g *Group) Broadcast(ev *Event) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for client := range g.clients {
		client.Send(ev)
	}
}

// BroadcastExcept sends an event to all clients except the given one.
func (g *Group) BroadcastExcept(except *Client, ev *Event) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for client := range g.clients {
		if client == except {
			continue
		}
		client.Send(ev)
	}
}

// Len returns the number of clients currently in the group.
func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}
