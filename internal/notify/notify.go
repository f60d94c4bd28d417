// Package notify provides a minimal subscribe/publish hub so a UI layer
// can re-render on engine state changes without the engines knowing
// anything about the binding mechanism.
package notify

import "sync"

// Kind classifies a change notification
type Kind string

// Notification kinds
const (
	KindSkillUnlocked Kind = "skill_unlocked"
	KindSkillsReset   Kind = "skills_reset"
	KindQuestsChanged Kind = "quests_changed"
	KindLedgerChanged Kind = "ledger_changed"
)

// Event is a single change notification. Field carries the affected
// skill or tree id where one applies.
type Event struct {
	Kind  Kind
	Field string
}

// Hub fans change events out to subscribers. Safe for concurrent use.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(Event))}
}

// Subscribe registers a callback and returns a function that removes it
func (h *Hub) Subscribe(fn func(Event)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Publish delivers the event to every subscriber. Callbacks run on the
// publishing goroutine, outside the hub lock.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	fns := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
