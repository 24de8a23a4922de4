package store

import "sync"

type Wishlist struct {
	mu      sync.RWMutex
	ids     []string
	members map[string]struct{}
}

func NewWishlist() *Wishlist {
	return &Wishlist{members: make(map[string]struct{})}
}

// Toggle flips membership of id and returns the new state.
func (w *Wishlist) Toggle(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.members[id]; ok {
		delete(w.members, id)
		for i, existing := range w.ids {
			if existing == id {
				w.ids = append(w.ids[:i], w.ids[i+1:]...)
				break
			}
		}
		return false
	}

	w.members[id] = struct{}{}
	w.ids = append(w.ids, id)
	return true
}

func (w *Wishlist) Contains(id string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.members[id]
	return ok
}

// IDs returns saved ids in the order they were added.
func (w *Wishlist) IDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]string, len(w.ids))
	copy(out, w.ids)
	return out
}

func (w *Wishlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.ids)
}

func (w *Wishlist) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ids = nil
	w.members = make(map[string]struct{})
}
