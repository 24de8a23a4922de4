package session

import (
	"context"
	"sync"
	"time"

	"storefront/internal/checkout"
	"storefront/internal/store"
)

// State is everything owned by one signed-in shopper. Nothing in it is shared
// with any other session.
type State struct {
	Session  store.Session
	Cart     *store.Cart
	Wishlist *store.Wishlist
	Shopper  *store.Shopper

	mu       sync.Mutex
	checkout *checkout.Machine
}

func newState(sess store.Session) *State {
	cart := store.NewCart()
	wishlist := store.NewWishlist()
	return &State{
		Session:  sess,
		Cart:     cart,
		Wishlist: wishlist,
		Shopper:  store.NewShopper(&sess, cart, wishlist),
	}
}

// Checkout returns the open checkout, or nil when there is none.
func (s *State) Checkout() *checkout.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkout != nil && s.checkout.Closed() {
		s.checkout = nil
	}
	return s.checkout
}

// BeginCheckout installs m as the active checkout, abandoning any previous one.
func (s *State) BeginCheckout(m *checkout.Machine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkout != nil {
		s.checkout.Cancel()
	}
	s.checkout = m
}

// EndCheckout cancels and forgets the active checkout.
func (s *State) EndCheckout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkout != nil {
		s.checkout.Cancel()
		s.checkout = nil
	}
}

func (s *State) close() {
	s.EndCheckout()
	s.Shopper.Logout()
}

type RegistryOption func(*Registry)

// WithIdleTimeout makes the registry forget a shopper who has not been seen for d.
// Use the token TTL: once every token of a user has expired the state goes with it.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idle = d }
}

func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

type entry struct {
	state    *State
	lastSeen time.Time
}

// Registry maps user ids to their session state.
type Registry struct {
	mu     sync.Mutex
	states map[string]*entry
	idle   time.Duration
	now    func() time.Time
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		states: make(map[string]*entry),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns the state for sess.UserID, creating an empty one on first use or
// when the previous one has gone idle.
func (r *Registry) Open(sess store.Session) *State {
	r.mu.Lock()
	now := r.now()
	var stale *State

	e, ok := r.states[sess.UserID]
	if ok && r.expired(e, now) {
		stale = e.state
		ok = false
	}
	if !ok {
		e = &entry{state: newState(sess)}
		r.states[sess.UserID] = e
	}
	e.lastSeen = now
	st := e.state
	r.mu.Unlock()

	if stale != nil {
		stale.close()
	}
	return st
}

func (r *Registry) Get(userID string) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.states[userID]
	if !ok || r.expired(e, r.now()) {
		return nil, false
	}
	return e.state, true
}

// Close ends the session for userID: the checkout is abandoned and the cart
// and wishlist are cleared.
func (r *Registry) Close(userID string) {
	r.mu.Lock()
	e, ok := r.states[userID]
	delete(r.states, userID)
	r.mu.Unlock()

	if ok {
		e.state.close()
	}
}

// Sweep closes every idle state and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	now := r.now()
	var stale []*State
	for id, e := range r.states {
		if r.expired(e, now) {
			stale = append(stale, e.state)
			delete(r.states, id)
		}
	}
	r.mu.Unlock()

	for _, st := range stale {
		st.close()
	}
	return len(stale)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.idle > 0 && now.Sub(e.lastSeen) > r.idle
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
