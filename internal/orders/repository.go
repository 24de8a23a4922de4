package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

type ProfileUpdate struct {
	Callsign *string `json:"callsign"`
	Avatar   *string `json:"avatar"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) SaveOrder(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	return nil
}

// LoadOrders returns a user's orders, newest first.
func (r *Repository) LoadOrders(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// MarkDelivered moves a PROCESSING order to DELIVERED. Delivering twice is a no-op.
func (r *Repository) MarkDelivered(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		switch order.Status {
		case models.OrderStatusDelivered:
			return nil
		case models.OrderStatusProcessing:
		default:
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, models.OrderStatusDelivered)
		}

		if err := tx.Model(&order).Update("status", models.OrderStatusDelivered).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return nil
	})
}

// GetProfile returns the user's profile, creating a blank one on first access.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return getOrCreateProfile(r.db.WithContext(ctx), userID)
}

func (r *Repository) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.Profile, error) {
	var profile *models.Profile

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := getOrCreateProfile(tx, userID)
		if err != nil {
			return err
		}
		if update.Callsign != nil {
			p.Callsign = strings.TrimSpace(*update.Callsign)
		}
		if update.Avatar != nil {
			p.Avatar = strings.TrimSpace(*update.Avatar)
		}
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// AwardXP adds xp to the user's balance.
func (r *Repository) AwardXP(ctx context.Context, userID string, xp int64) (*models.Profile, error) {
	var profile *models.Profile

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := addXP(tx, userID, xp)
		profile = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// RewardOrder credits the XP earned by an order exactly once. The second and later
// calls for the same order are no-ops and report awarded=false.
func (r *Repository) RewardOrder(ctx context.Context, orderID string, at time.Time) (profile *models.Profile, awarded bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if order.RewardedAt != nil {
			p, err := getOrCreateProfile(tx, order.UserID)
			profile = p
			return err
		}

		p, err := addXP(tx, order.UserID, XPForTotal(order.Total))
		if err != nil {
			return err
		}
		if err := tx.Model(&order).Update("rewarded_at", at).Error; err != nil {
			return fmt.Errorf("failed to mark order rewarded: %w", err)
		}
		profile = p
		awarded = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return profile, awarded, nil
}

func getOrCreateProfile(db *gorm.DB, userID string) (*models.Profile, error) {
	profile := models.Profile{UserID: userID}
	if err := db.Where(models.Profile{UserID: userID}).FirstOrCreate(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

func addXP(tx *gorm.DB, userID string, xp int64) (*models.Profile, error) {
	if _, err := getOrCreateProfile(tx, userID); err != nil {
		return nil, err
	}
	err := tx.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("xp", gorm.Expr("xp + ?", xp)).Error
	if err != nil {
		return nil, fmt.Errorf("failed to award xp: %w", err)
	}
	return getOrCreateProfile(tx, userID)
}
