package checkout

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

var declineReasons = map[Method]string{
	MethodMobileMoney: "request cancelled on handset",
	MethodCard:        "card declined by issuer",
	MethodCrypto:      "transaction not confirmed",
}

// SimulatedGateway stands in for the mobile money, card and crypto networks.
// It waits for latency, then settles or declines at the configured rate.
type SimulatedGateway struct {
	latency     time.Duration
	declineRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatedGateway(latency time.Duration, declineRate float64) *SimulatedGateway {
	return NewSeededGateway(latency, declineRate, time.Now().UnixNano())
}

func NewSeededGateway(latency time.Duration, declineRate float64, seed int64) *SimulatedGateway {
	return &SimulatedGateway{
		latency:     latency,
		declineRate: declineRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (g *SimulatedGateway) InitiatePayment(ctx context.Context, req PaymentRequest) (SettlementResult, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return SettlementResult{}, ctx.Err()
		}
	}

	if g.roll() < g.declineRate {
		return SettlementResult{
			Status: SettlementDeclined,
			Reason: declineReasons[req.Method],
		}, nil
	}

	return SettlementResult{
		Status:    SettlementSettled,
		Reference: "TXN-" + uuid.NewString(),
	}, nil
}

func (g *SimulatedGateway) roll() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}
