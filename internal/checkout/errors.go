package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition  = errors.New("illegal transition of checkout step")
	ErrUnknownMethod      = errors.New("unknown payment method")
	ErrClosed             = errors.New("checkout is closed")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// ValidationError lists the payment fields that block leaving SELECTION.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid payment details: " + strings.Join(parts, ", ")
}

func illegal(from, to Step) error {
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
