package checkout

import (
	"fmt"
	"strings"
)

type Step string

const (
	StepSelection  Step = "SELECTION"
	StepProcessing Step = "PROCESSING"
	StepSuccess    Step = "SUCCESS"
	StepFailed     Step = "FAILED"
)

// IsTerminal reports whether the settlement attempt is over.
// FAILED is terminal for the attempt but can be retried.
func (s Step) IsTerminal() bool {
	return s == StepSuccess || s == StepFailed
}

// String representation (for logging)
func (s Step) String() string {
	return string(s)
}

var transitions = map[Step][]Step{
	StepSelection:  {StepProcessing},
	StepProcessing: {StepSuccess, StepFailed},
	StepFailed:     {StepSelection},
}

func CanTransitionTo(from, to Step) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Method string

const (
	MethodMobileMoney Method = "MOBILE_MONEY"
	MethodCard        Method = "CARD"
	MethodCrypto      Method = "CRYPTO"
)

// ParseMethod accepts the canonical names and the short forms used by the storefront UI.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mobile_money", "mpesa", "m-pesa":
		return MethodMobileMoney, nil
	case "card":
		return MethodCard, nil
	case "crypto":
		return MethodCrypto, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Provider is the settlement network shown to the shopper while processing.
func (m Method) Provider() string {
	switch m {
	case MethodMobileMoney:
		return "Safaricom"
	case MethodCard:
		return "Stripe"
	case MethodCrypto:
		return "GX-Chain"
	}
	return "unknown"
}
