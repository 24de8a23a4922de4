package checkout

import (
	"time"

	"storefront/internal/store"
)

const Currency = "KES"

type SnapshotLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
}

// CartSnapshot is the cart as it was when checkout started. It is what gets charged.
type CartSnapshot struct {
	Lines      []SnapshotLine `json:"lines"`
	Total      int64          `json:"total"`
	Currency   string         `json:"currency"`
	CapturedAt time.Time      `json:"captured_at"`
}

func snapshotCart(cart *store.Cart, now time.Time) CartSnapshot {
	lines, total := cart.Snapshot()

	snap := CartSnapshot{
		Lines:      make([]SnapshotLine, 0, len(lines)),
		Total:      total,
		Currency:   Currency,
		CapturedAt: now,
	}
	for _, l := range lines {
		snap.Lines = append(snap.Lines, SnapshotLine{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.Price,
			Subtotal:    l.Subtotal(),
		})
	}
	return snap
}

func (s CartSnapshot) clone() CartSnapshot {
	out := s
	out.Lines = make([]SnapshotLine, len(s.Lines))
	copy(out.Lines, s.Lines)
	return out
}

// Receipt describes a settled checkout handed to the order recorder.
type Receipt struct {
	OrderID     string       `json:"order_id"`
	CheckoutID  string       `json:"checkout_id"`
	UserID      string       `json:"user_id"`
	Method      Method       `json:"method"`
	Reference   string       `json:"reference"`
	Snapshot    CartSnapshot `json:"snapshot"`
	CompletedAt time.Time    `json:"completed_at"`
}
