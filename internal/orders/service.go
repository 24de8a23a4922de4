package orders

import (
	"context"

	"storefront/internal/checkout"
	"storefront/internal/logger"
	"storefront/internal/models"
)

// Service persists settled checkouts and announces them.
type Service struct {
	repo      *Repository
	publisher Publisher
	logger    *logger.Logger
}

func NewService(repo *Repository, publisher Publisher, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher, logger: log}
}

// RecordOrder saves the receipt as an order. A failed publish is logged and does not
// fail the order: rewards can be replayed from the stored orders.
func (s *Service) RecordOrder(ctx context.Context, receipt checkout.Receipt) error {
	order := OrderFromReceipt(receipt)
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return err
	}

	event := OrderEvent{
		Type:      EventOrderPlaced,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Total:     order.Total,
		Timestamp: receipt.CompletedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Order %s saved but event not published: %v", order.ID, err)
	}

	s.logger.Info("Recorded order %s for user %s (KSh %d)", order.ID, order.UserID, order.Total)
	return nil
}

func (s *Service) History(ctx context.Context, userID string) ([]models.Order, error) {
	return s.repo.LoadOrders(ctx, userID)
}

func (s *Service) Profile(ctx context.Context, userID string) (ProfileSummary, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return ProfileSummary{}, err
	}
	orders, err := s.repo.LoadOrders(ctx, userID)
	if err != nil {
		return ProfileSummary{}, err
	}
	return Summarize(*p, len(orders)), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (ProfileSummary, error) {
	if _, err := s.repo.UpdateProfile(ctx, userID, update); err != nil {
		return ProfileSummary{}, err
	}
	return s.Profile(ctx, userID)
}

func OrderFromReceipt(r checkout.Receipt) *models.Order {
	items := make([]models.OrderItem, 0, len(r.Snapshot.Lines))
	for _, l := range r.Snapshot.Lines {
		items = append(items, models.OrderItem{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		})
	}

	currency := r.Snapshot.Currency
	if currency == "" {
		currency = checkout.Currency
	}

	return &models.Order{
		ID:         r.OrderID,
		CheckoutID: r.CheckoutID,
		UserID:     r.UserID,
		Method:     string(r.Method),
		Reference:  r.Reference,
		Total:      r.Snapshot.Total,
		Currency:   currency,
		Items:      items,
		Status:     models.OrderStatusProcessing,
		CreatedAt:  r.CompletedAt,
	}
}
