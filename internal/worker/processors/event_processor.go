package processors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/orders"
)

// ErrPermanent marks events that can never succeed and should not be retried.
var ErrPermanent = errors.New("permanent failure")

// OrderStore is the order bookkeeping the processor drives.
type OrderStore interface {
	RewardOrder(ctx context.Context, orderID string, at time.Time) (*models.Profile, bool, error)
	MarkDelivered(ctx context.Context, orderID string) error
}

type EventProcessor struct {
	orders OrderStore
	logger *logger.Logger
	now    func() time.Time
}

func NewEventProcessor(store OrderStore, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		orders: store,
		logger: logger,
		now:    time.Now,
	}
}

func (ep *EventProcessor) Process(ctx context.Context, event orders.OrderEvent) error {
	switch event.Type {
	case orders.EventOrderPlaced:
		return ep.rewardOrder(ctx, event)
	case orders.EventOrderDelivered:
		return ep.markDelivered(ctx, event)
	default:
		ep.logger.Debug("Ignoring event type %q", event.Type)
		return nil
	}
}

func (ep *EventProcessor) rewardOrder(ctx context.Context, event orders.OrderEvent) error {
	if event.OrderID == "" {
		return fmt.Errorf("%w: event has no order id", ErrPermanent)
	}

	profile, awarded, err := ep.orders.RewardOrder(ctx, event.OrderID, ep.now())
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return err
	}

	if !awarded {
		ep.logger.Debug("Order %s already rewarded", event.OrderID)
		return nil
	}

	level := orders.LevelForXP(profile.XP)
	ep.logger.Info("Awarded %d XP to %s for order %s (level %d, %s)",
		orders.XPForTotal(event.Total), profile.UserID, event.OrderID, level, orders.RankForLevel(level).Name)
	return nil
}

func (ep *EventProcessor) markDelivered(ctx context.Context, event orders.OrderEvent) error {
	if event.OrderID == "" {
		return fmt.Errorf("%w: event has no order id", ErrPermanent)
	}

	err := ep.orders.MarkDelivered(ctx, event.OrderID)
	if errors.Is(err, orders.ErrOrderNotFound) || errors.Is(err, orders.ErrInvalidTransition) {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	if err != nil {
		return err
	}

	ep.logger.Info("Order %s delivered", event.OrderID)
	return nil
}
