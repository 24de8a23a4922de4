package store

import (
	"sync"

	"storefront/internal/models"
)

// Shopper binds a session to its cart and wishlist and applies the access gate.
// A Shopper built with a nil session rejects every gated mutation.
// Gated mutations hold a read lock across the gate and the store update, so a
// concurrent Logout either happens before them (and they are rejected) or after.
type Shopper struct {
	mu       sync.RWMutex
	session  *Session
	cart     *Cart
	wishlist *Wishlist
}

func NewShopper(session *Session, cart *Cart, wishlist *Wishlist) *Shopper {
	return &Shopper{
		session:  session,
		cart:     cart,
		wishlist: wishlist,
	}
}

func (s *Shopper) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Shopper) AddToCart(p models.Product) (CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := RequireSession(s.session); err != nil {
		return CartLine{}, err
	}
	return s.cart.Add(p), nil
}

// RemoveFromCart is not gated: without a session there is no cart to remove from.
func (s *Shopper) RemoveFromCart(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cart == nil {
		return false
	}
	return s.cart.Remove(id)
}

func (s *Shopper) ToggleWishlist(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := RequireSession(s.session); err != nil {
		return false, err
	}
	return s.wishlist.Toggle(id), nil
}

// Logout drops the session and clears the personal state scoped to it.
func (s *Shopper) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	if s.cart != nil {
		s.cart.Clear()
	}
	if s.wishlist != nil {
		s.wishlist.Clear()
	}
}
