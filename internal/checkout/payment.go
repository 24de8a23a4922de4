package checkout

import (
	"context"
	"strings"
)

// PaymentDetails carries the method-specific input collected in SELECTION.
type PaymentDetails struct {
	Phone         string `json:"phone,omitempty"`
	CardNumber    string `json:"card_number,omitempty"`
	CardExpiry    string `json:"card_expiry,omitempty"`
	CardCVC       string `json:"card_cvc,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

func (d PaymentDetails) Validate(m Method) error {
	fields := map[string]string{}

	switch m {
	case MethodMobileMoney:
		if strings.TrimSpace(d.Phone) == "" {
			fields["phone"] = "required for mobile money"
		}
	case MethodCard:
		if strings.TrimSpace(d.CardNumber) == "" {
			fields["card_number"] = "required for card payments"
		}
	case MethodCrypto:
		if strings.TrimSpace(d.WalletAddress) == "" {
			fields["wallet_address"] = "required for crypto payments"
		}
	default:
		fields["method"] = "unknown payment method"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

type SettlementStatus string

const (
	SettlementSettled  SettlementStatus = "SETTLED"
	SettlementDeclined SettlementStatus = "DECLINED"
	SettlementTimeout  SettlementStatus = "TIMEOUT"
	SettlementError    SettlementStatus = "ERROR"
)

type SettlementResult struct {
	Status    SettlementStatus `json:"status"`
	Reference string           `json:"reference,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}

type PaymentRequest struct {
	CheckoutID string
	UserID     string
	Method     Method
	Amount     int64
	Details    PaymentDetails
}

// Gateway settles a payment with an external provider. Declines and timeouts reported by
// the provider come back as results; errors mean the provider could not be reached.
type Gateway interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (SettlementResult, error)
}

// OrderRecorder persists a completed purchase.
type OrderRecorder interface {
	RecordOrder(ctx context.Context, receipt Receipt) error
}
