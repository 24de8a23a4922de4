package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/logger"

	"github.com/sony/gobreaker/v2"
)

// BreakerGateway stops calling a provider that keeps failing. Declines are answers,
// not failures, so only transport errors count toward tripping.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[SettlementResult]
}

func NewBreakerGateway(next Gateway, failureThreshold uint32, openFor time.Duration, log *logger.Logger) *BreakerGateway {
	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &BreakerGateway{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[SettlementResult](settings),
	}
}

func (g *BreakerGateway) InitiatePayment(ctx context.Context, req PaymentRequest) (SettlementResult, error) {
	result, err := g.cb.Execute(func() (SettlementResult, error) {
		return g.next.InitiatePayment(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return SettlementResult{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return result, err
}

func (g *BreakerGateway) State() gobreaker.State {
	return g.cb.State()
}
