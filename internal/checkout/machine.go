package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/store"

	"github.com/google/uuid"
)

const defaultSettlementTimeout = 30 * time.Second

// Status is a read-only view of a checkout. Payment details are never exposed.
type Status struct {
	ID         string            `json:"id"`
	Step       Step              `json:"step"`
	Method     Method            `json:"method"`
	Provider   string            `json:"provider"`
	Snapshot   CartSnapshot      `json:"snapshot"`
	Total      int64             `json:"total"`
	OrderID    string            `json:"order_id,omitempty"`
	Settlement *SettlementResult `json:"settlement,omitempty"`
	Failure    string            `json:"failure,omitempty"`
	Attempts   int               `json:"attempts"`
	Closed     bool              `json:"closed"`
}

type Option func(*Machine)

// WithTimeout bounds how long PROCESSING waits for the gateway.
func WithTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithRecorder(r OrderRecorder) Option {
	return func(m *Machine) { m.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func WithOrderIDs(next func() string) Option {
	return func(m *Machine) { m.newOrderID = next }
}

// Machine drives one purchase attempt: SELECTION -> PROCESSING -> SUCCESS | FAILED.
// The live cart is only touched by Finish; every other path leaves it as it was.
type Machine struct {
	mu sync.Mutex

	id         string
	userID     string
	cart       *store.Cart
	gateway    Gateway
	recorder   OrderRecorder
	timeout    time.Duration
	now        func() time.Time
	newOrderID func() string

	step       Step
	method     Method
	details    PaymentDetails
	snapshot   CartSnapshot
	orderID    string
	settlement *SettlementResult
	failure    string
	attempts   int
	closed     bool
	finishing  bool

	settled chan struct{}
	cancel  context.CancelFunc
}

// New starts a checkout for the given cart, capturing its contents and total.
func New(userID string, cart *store.Cart, gateway Gateway, opts ...Option) (*Machine, error) {
	m := &Machine{
		id:         uuid.NewString(),
		userID:     userID,
		cart:       cart,
		gateway:    gateway,
		timeout:    defaultSettlementTimeout,
		now:        time.Now,
		newOrderID: NewOrderID,
		step:       StepSelection,
		method:     MethodMobileMoney,
	}
	for _, opt := range opts {
		opt(m)
	}

	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	m.snapshot = snapshotCart(cart, m.now())

	return m, nil
}

// NewOrderID returns a shopper-facing order number such as GX-3FA85F64.
func NewOrderID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "GX-" + strings.ToUpper(raw[:8])
}

func (m *Machine) ID() string {
	return m.id
}

func (m *Machine) UserID() string {
	return m.userID
}

// SelectMethod records the payment method and its input. Only allowed in SELECTION.
func (m *Machine) SelectMethod(method Method, details PaymentDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.step != StepSelection {
		return fmt.Errorf("%w: cannot change method in %s", ErrIllegalTransition, m.step)
	}
	switch method {
	case MethodMobileMoney, MethodCard, MethodCrypto:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	m.method = method
	m.details = details
	return nil
}

// Submit validates the selection and settles the payment before returning.
// Validation and transition problems are returned as errors; a declined or timed out
// payment is not an error, it is reported through the FAILED step.
func (m *Machine) Submit(ctx context.Context) (Status, error) {
	settleCtx, req, done, err := m.begin(ctx)
	if err != nil {
		return m.Status(), err
	}
	m.settle(settleCtx, req, done)
	return m.Status(), nil
}

// SubmitAsync moves to PROCESSING and settles in the background. The settlement
// outlives ctx cancellation but keeps its values; use Cancel to abandon it.
func (m *Machine) SubmitAsync(ctx context.Context) (Status, error) {
	settleCtx, req, done, err := m.begin(context.WithoutCancel(ctx))
	if err != nil {
		return m.Status(), err
	}
	go m.settle(settleCtx, req, done)
	return m.Status(), nil
}

// Wait blocks until the current settlement finishes or ctx is done.
func (m *Machine) Wait(ctx context.Context) (Status, error) {
	m.mu.Lock()
	done := m.settled
	m.mu.Unlock()

	if done == nil {
		return m.Status(), nil
	}

	select {
	case <-done:
		return m.Status(), nil
	case <-ctx.Done():
		return m.Status(), ctx.Err()
	}
}

func (m *Machine) begin(ctx context.Context) (context.Context, PaymentRequest, chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, PaymentRequest{}, nil, ErrClosed
	}
	if !CanTransitionTo(m.step, StepProcessing) {
		return nil, PaymentRequest{}, nil, illegal(m.step, StepProcessing)
	}
	if err := m.details.Validate(m.method); err != nil {
		return nil, PaymentRequest{}, nil, err
	}

	settleCtx, cancel := context.WithTimeout(ctx, m.timeout)
	m.cancel = cancel
	m.settled = make(chan struct{})
	m.step = StepProcessing
	m.attempts++
	m.failure = ""
	m.settlement = nil

	req := PaymentRequest{
		CheckoutID: m.id,
		UserID:     m.userID,
		Method:     m.method,
		Amount:     m.snapshot.Total,
		Details:    m.details,
	}
	return settleCtx, req, m.settled, nil
}

func (m *Machine) settle(ctx context.Context, req PaymentRequest, done chan struct{}) {
	result, err := m.gateway.InitiatePayment(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	defer close(done)

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.closed {
		// abandoned while processing
		return
	}

	if err != nil {
		result = resultFromError(ctx, err)
	}
	m.settlement = &result

	if result.Status == SettlementSettled {
		m.step = StepSuccess
		m.orderID = m.newOrderID()
		return
	}

	m.step = StepFailed
	m.failure = result.Reason
	if m.failure == "" {
		m.failure = strings.ToLower(string(result.Status))
	}
}

func resultFromError(ctx context.Context, err error) SettlementResult {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return SettlementResult{Status: SettlementTimeout, Reason: "payment provider did not respond in time"}
	}
	if errors.Is(err, ErrGatewayUnavailable) {
		return SettlementResult{Status: SettlementError, Reason: "payment provider unavailable, try again shortly"}
	}
	return SettlementResult{Status: SettlementError, Reason: err.Error()}
}

// Retry returns a FAILED checkout to SELECTION so the shopper can try again.
func (m *Machine) Retry() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if !CanTransitionTo(m.step, StepSelection) {
		return illegal(m.step, StepSelection)
	}

	m.step = StepSelection
	m.settlement = nil
	m.failure = ""
	return nil
}

// Cancel abandons the checkout. Any in-flight settlement is cancelled and its result
// discarded. The live cart is left exactly as it is. Cancel is a no-op while Finish
// is recording the order.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.finishing {
		return
	}
	m.closed = true
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Finish records the order and clears the live cart. Only allowed in SUCCESS.
// The recorder runs without the machine lock so status reads are not held up by it.
// While it runs, Cancel and a second Finish are refused. If recording fails nothing
// changes and Finish may be called again.
func (m *Machine) Finish(ctx context.Context) (Receipt, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Receipt{}, ErrClosed
	}
	if m.step != StepSuccess {
		m.mu.Unlock()
		return Receipt{}, fmt.Errorf("%w: cannot finish in %s", ErrIllegalTransition, m.step)
	}
	if m.finishing {
		m.mu.Unlock()
		return Receipt{}, fmt.Errorf("%w: finish already in progress", ErrIllegalTransition)
	}

	receipt := Receipt{
		OrderID:     m.orderID,
		CheckoutID:  m.id,
		UserID:      m.userID,
		Method:      m.method,
		Snapshot:    m.snapshot.clone(),
		CompletedAt: m.now(),
	}
	if m.settlement != nil {
		receipt.Reference = m.settlement.Reference
	}
	m.finishing = true
	recorder := m.recorder
	m.mu.Unlock()

	var err error
	if recorder != nil {
		err = recorder.RecordOrder(ctx, receipt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishing = false

	if err != nil {
		return Receipt{}, fmt.Errorf("failed to record order %s: %w", m.orderID, err)
	}

	m.cart.Clear()
	m.closed = true
	return receipt, nil
}

func (m *Machine) Step() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

func (m *Machine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		ID:       m.id,
		Step:     m.step,
		Method:   m.method,
		Provider: m.method.Provider(),
		Snapshot: m.snapshot.clone(),
		Total:    m.snapshot.Total,
		OrderID:  m.orderID,
		Failure:  m.failure,
		Attempts: m.attempts,
		Closed:   m.closed,
	}
	if m.settlement != nil {
		s := *m.settlement
		st.Settlement = &s
	}
	return st
}
