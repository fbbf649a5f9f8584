package identity

import "sync"

// Hub broadcasts auth-state changes to subscribers: a non-nil Principal on
// sign-in, nil on sign-out. It mirrors the identity provider's
// subscribe/unsubscribe contract: unsubscribing is single-shot and no callback
// is retained (or invoked) afterwards.
type Hub struct {
	mu      sync.Mutex
	subs    map[int]func(*Principal)
	nextID  int
	current *Principal
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(*Principal))}
}

// Subscribe registers `onChange` and immediately invokes it with the current
// auth state. The returned function unsubscribes; calling it more than once
// is a no-op.
func (h *Hub) Subscribe(onChange func(*Principal)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = onChange
	current := h.current
	h.mu.Unlock()

	onChange(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// SignIn records `p` as the current principal and notifies subscribers.
func (h *Hub) SignIn(p Principal) {
	h.broadcast(&p)
}

// SignOut clears the current principal and notifies subscribers.
func (h *Hub) SignOut() {
	h.broadcast(nil)
}

func (h *Hub) broadcast(p *Principal) {
	h.mu.Lock()
	h.current = p
	subs := make([]func(*Principal), 0, len(h.subs))
	for _, cb := range h.subs {
		subs = append(subs, cb)
	}
	h.mu.Unlock()

	for _, cb := range subs {
		cb(p)
	}
}
