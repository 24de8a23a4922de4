package models

import (
	"time"
)

type Order struct {
	ID         string      `json:"id" gorm:"primaryKey"`
	CheckoutID string      `json:"checkout_id" gorm:"uniqueIndex;not null"`
	UserID     string      `json:"user_id" gorm:"index;not null"`
	Method     string      `json:"method" gorm:"not null"`
	Reference  string      `json:"reference"`
	Total      int64       `json:"total" gorm:"not null"`
	Currency   string      `json:"currency" gorm:"default:KES"`
	Items      []OrderItem `json:"items" gorm:"serializer:json"`
	Status     OrderStatus `json:"status" gorm:"default:PROCESSING"`
	RewardedAt *time.Time  `json:"rewarded_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
}

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)
