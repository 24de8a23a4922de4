package store

import (
	"fmt"
	"sync"

	"storefront/internal/models"
)

type CartLine struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

func (l CartLine) Subtotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// Cart keeps at most one line per product id, in insertion order.
// The running total is maintained on every mutation.
type Cart struct {
	mu    sync.RWMutex
	lines []CartLine
	total int64
	open  bool
}

func NewCart() *Cart {
	return &Cart{}
}

// Add merges the product into the cart and returns the resulting line.
// A product without an id or with a negative price is a programming error and panics.
func (c *Cart) Add(p models.Product) CartLine {
	if p.ID == "" || p.Price < 0 {
		panic(fmt.Sprintf("store: malformed product %+v", p))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = true
	c.total += p.Price

	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity++
			return c.lines[i]
		}
	}

	line := CartLine{Product: p, Quantity: 1}
	c.lines = append(c.lines, line)
	return line
}

// Remove deletes the line for id. It reports whether a line was removed.
func (c *Cart) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, line := range c.lines {
		if line.Product.ID == id {
			c.total -= line.Subtotal()
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Total() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []CartLine {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Snapshot returns the lines and total read under one lock.
func (c *Cart) Snapshot() ([]CartLine, int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out, c.total
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines) == 0
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	c.total = 0
	c.open = false
}

// IsOpen reports whether the cart drawer should be shown.
func (c *Cart) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

func (c *Cart) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
}

func (c *Cart) recomputeTotal() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sum int64
	for _, line := range c.lines {
		sum += line.Subtotal()
	}
	return sum
}
