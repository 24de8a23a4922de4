package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	m      sync.Mutex
	result SettlementResult
	err    error
	calls  []PaymentRequest
	block  chan struct{}
}

func (g *stubGateway) InitiatePayment(ctx context.Context, req PaymentRequest) (SettlementResult, error) {
	g.m.Lock()
	g.calls = append(g.calls, req)
	block := g.block
	result, err := g.result, g.err
	g.m.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return SettlementResult{}, ctx.Err()
		}
	}
	return result, err
}

func (g *stubGateway) set(result SettlementResult, err error) {
	g.m.Lock()
	defer g.m.Unlock()
	g.result = result
	g.err = err
}

func (g *stubGateway) callCount() int {
	g.m.Lock()
	defer g.m.Unlock()
	return len(g.calls)
}

func (g *stubGateway) lastCall() PaymentRequest {
	g.m.Lock()
	defer g.m.Unlock()
	return g.calls[len(g.calls)-1]
}

type mockRecorder struct {
	m        sync.Mutex
	receipts []Receipt
	err      error
}

func (r *mockRecorder) RecordOrder(_ context.Context, receipt Receipt) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return r.err
	}
	r.receipts = append(r.receipts, receipt)
	return nil
}

var (
	productA = models.Product{ID: "A", Name: "Phantom GPU", Category: models.CategoryComponents, Price: 100}
	productB = models.Product{ID: "B", Name: "XLR Mic", Category: models.CategoryAudio, Price: 250}
)

func settled() SettlementResult {
	return SettlementResult{Status: SettlementSettled, Reference: "TXN-1"}
}

func cartWith(products ...models.Product) *store.Cart {
	c := store.NewCart()
	for _, p := range products {
		c.Add(p)
	}
	return c
}

func TestNew_EmptyCart(t *testing.T) {
	_, err := New("u1", store.NewCart(), &stubGateway{})
	require.ErrorIs(t, err, ErrEmptyCart)

	_, err = New("u1", nil, &stubGateway{})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestNew_CapturesSnapshot(t *testing.T) {
	captured := time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC)
	m, err := New("u1", cartWith(productA, productA, productB), &stubGateway{}, WithClock(func() time.Time { return captured }))
	require.NoError(t, err)

	st := m.Status()
	assert.Equal(t, StepSelection, st.Step)
	assert.Equal(t, MethodMobileMoney, st.Method)
	assert.Equal(t, int64(450), st.Total)
	assert.Equal(t, Currency, st.Snapshot.Currency)
	assert.Equal(t, captured, st.Snapshot.CapturedAt)
	require.Len(t, st.Snapshot.Lines, 2)
	assert.Equal(t, SnapshotLine{ProductID: "A", ProductName: "Phantom GPU", Quantity: 2, UnitPrice: 100, Subtotal: 200}, st.Snapshot.Lines[0])
}

func TestSubmit_ValidationBlocksTransition(t *testing.T) {
	gw := &stubGateway{result: settled()}
	m, err := New("u1", cartWith(productA), gw)
	require.NoError(t, err)

	tests := []struct {
		method  Method
		details PaymentDetails
		field   string
	}{
		{MethodMobileMoney, PaymentDetails{Phone: "   "}, "phone"},
		{MethodCard, PaymentDetails{Phone: "0712345678"}, "card_number"},
		{MethodCrypto, PaymentDetails{}, "wallet_address"},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			require.NoError(t, m.SelectMethod(tt.method, tt.details))

			st, err := m.Submit(context.Background())
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Equal(t, StepSelection, st.Step)
		})
	}
	assert.Zero(t, gw.callCount())
}

func TestSubmit_Success(t *testing.T) {
	gw := &stubGateway{result: settled()}
	m, err := New("u1", cartWith(productA, productA), gw, WithOrderIDs(func() string { return "GX-TEST" }))
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodCard, PaymentDetails{CardNumber: "4444 4444 4444 4444", CardExpiry: "12/29", CardCVC: "123"}))

	st, err := m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, st.Step)
	assert.Equal(t, "GX-TEST", st.OrderID)
	assert.Equal(t, 1, st.Attempts)
	require.NotNil(t, st.Settlement)
	assert.Equal(t, "TXN-1", st.Settlement.Reference)

	call := gw.lastCall()
	assert.Equal(t, int64(200), call.Amount)
	assert.Equal(t, MethodCard, call.Method)
	assert.Equal(t, m.ID(), call.CheckoutID)
}

func TestSubmit_DeclineThenRetry(t *testing.T) {
	gw := &stubGateway{result: SettlementResult{Status: SettlementDeclined, Reason: "card declined by issuer"}}
	cart := cartWith(productA)
	m, err := New("u1", cart, gw)
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodCard, PaymentDetails{CardNumber: "4000"}))

	st, err := m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepFailed, st.Step)
	assert.Equal(t, "card declined by issuer", st.Failure)
	assert.Empty(t, st.OrderID)
	assert.False(t, cart.IsEmpty(), "a failed payment leaves the cart alone")

	_, err = m.Finish(context.Background())
	require.ErrorIs(t, err, ErrIllegalTransition)

	require.NoError(t, m.Retry())
	assert.Equal(t, StepSelection, m.Step())
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0712345678"}))

	gw.set(settled(), nil)
	st, err = m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, st.Step)
	assert.Equal(t, 2, st.Attempts)
	assert.Empty(t, st.Failure)
}

func TestSubmit_GatewayErrorFails(t *testing.T) {
	gw := &stubGateway{err: errors.New("connection refused")}
	m, err := New("u1", cartWith(productA), gw)
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0700"}))

	st, err := m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepFailed, st.Step)
	require.NotNil(t, st.Settlement)
	assert.Equal(t, SettlementError, st.Settlement.Status)
	assert.Contains(t, st.Failure, "connection refused")
}

func TestSubmit_Timeout(t *testing.T) {
	gw := &stubGateway{result: settled(), block: make(chan struct{})}
	m, err := New("u1", cartWith(productA), gw, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0700"}))

	st, err := m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepFailed, st.Step)
	require.NotNil(t, st.Settlement)
	assert.Equal(t, SettlementTimeout, st.Settlement.Status)
}

func TestSubmit_IllegalWhileNotSelecting(t *testing.T) {
	gw := &stubGateway{result: settled()}
	m, err := New("u1", cartWith(productA), gw)
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0700"}))

	_, err = m.Submit(context.Background())
	require.NoError(t, err)

	_, err = m.Submit(context.Background())
	require.ErrorIs(t, err, ErrIllegalTransition)
	require.ErrorIs(t, m.SelectMethod(MethodCard, PaymentDetails{CardNumber: "1"}), ErrIllegalTransition)
	require.ErrorIs(t, m.Retry(), ErrIllegalTransition)
}

func TestSelectMethod_Unknown(t *testing.T) {
	m, err := New("u1", cartWith(productA), &stubGateway{})
	require.NoError(t, err)

	require.ErrorIs(t, m.SelectMethod(Method("BARTER"), PaymentDetails{}), ErrUnknownMethod)
}

func TestSubmitAsync_ProcessingThenWait(t *testing.T) {
	gw := &stubGateway{result: settled(), block: make(chan struct{})}
	m, err := New("u1", cartWith(productA), gw)
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0700"}))

	ctx, cancel := context.WithCancel(context.Background())
	st, err := m.SubmitAsync(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepProcessing, st.Step)

	// the request context ending must not abort the settlement
	cancel()
	require.ErrorIs(t, m.SelectMethod(MethodCard, PaymentDetails{CardNumber: "1"}), ErrIllegalTransition)

	close(gw.block)
	st, err = m.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, st.Step)
}

func TestWait_ContextDone(t *testing.T) {
	gw := &stubGateway{result: settled(), block: make(chan struct{})}
	m, err := New("u1", cartWith(productA), gw)
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0700"}))
	_, err = m.SubmitAsync(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	st, err := m.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StepProcessing, st.Step)

	m.Cancel()
}

func TestSnapshotIsolation(t *testing.T) {
	gw := &stubGateway{result: settled(), block: make(chan struct{})}
	cart := cartWith(productA, productA)
	m, err := New("u1", cart, gw)
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0700"}))

	_, err = m.SubmitAsync(context.Background())
	require.NoError(t, err)

	cart.Remove("A")
	cart.Add(productB)

	close(gw.block)
	st, err := m.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, st.Step)
	assert.Equal(t, int64(200), st.Total)
	assert.Equal(t, int64(200), gw.lastCall().Amount)
	require.Len(t, st.Snapshot.Lines, 1)
	assert.Equal(t, "A", st.Snapshot.Lines[0].ProductID)
}

func TestCancel_DuringProcessingRollsBack(t *testing.T) {
	gw := &stubGateway{result: settled(), block: make(chan struct{})}
	cart := cartWith(productA, productB)
	m, err := New("u1", cart, gw)
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0700"}))
	_, err = m.SubmitAsync(context.Background())
	require.NoError(t, err)

	m.Cancel()
	st, err := m.Wait(context.Background())
	require.NoError(t, err)

	assert.True(t, st.Closed)
	assert.Equal(t, StepProcessing, st.Step, "the abandoned result is discarded")
	assert.Equal(t, int64(350), cart.Total())
	assert.Len(t, cart.Lines(), 2)

	_, err = m.Finish(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, m.Retry(), ErrClosed)
}

func TestCancel_AfterSuccessKeepsCart(t *testing.T) {
	cart := cartWith(productA)
	m, err := New("u1", cart, &stubGateway{result: settled()})
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0700"}))
	_, err = m.Submit(context.Background())
	require.NoError(t, err)

	m.Cancel()
	m.Cancel()
	assert.False(t, cart.IsEmpty())
}

func TestFinish_RecordsOrderAndClearsCart(t *testing.T) {
	rec := &mockRecorder{}
	cart := cartWith(productA, productB)
	m, err := New("u1", cart, &stubGateway{result: settled()}, WithRecorder(rec), WithOrderIDs(func() string { return "GX-42" }))
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0700"}))
	_, err = m.Submit(context.Background())
	require.NoError(t, err)

	receipt, err := m.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GX-42", receipt.OrderID)
	assert.Equal(t, "u1", receipt.UserID)
	assert.Equal(t, "TXN-1", receipt.Reference)
	assert.Equal(t, int64(350), receipt.Snapshot.Total)

	assert.True(t, cart.IsEmpty())
	assert.True(t, m.Closed())
	require.Len(t, rec.receipts, 1)

	_, err = m.Finish(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	assert.Len(t, rec.receipts, 1)
}

func TestFinish_RecorderErrorKeepsCart(t *testing.T) {
	rec := &mockRecorder{err: errors.New("database error")}
	cart := cartWith(productA)
	m, err := New("u1", cart, &stubGateway{result: settled()}, WithRecorder(rec))
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0700"}))
	_, err = m.Submit(context.Background())
	require.NoError(t, err)

	_, err = m.Finish(context.Background())
	require.ErrorContains(t, err, "database error")
	assert.False(t, cart.IsEmpty())
	assert.False(t, m.Closed())

	rec.m.Lock()
	rec.err = nil
	rec.m.Unlock()

	_, err = m.Finish(context.Background())
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

type blockingRecorder struct {
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRecorder) RecordOrder(ctx context.Context, _ Receipt) error {
	close(r.entered)
	select {
	case <-r.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestFinish_SlowRecorderDoesNotBlockStatus(t *testing.T) {
	rec := &blockingRecorder{entered: make(chan struct{}), release: make(chan struct{})}
	cart := cartWith(productA)
	m, err := New("u1", cart, &stubGateway{result: settled()}, WithRecorder(rec))
	require.NoError(t, err)
	require.NoError(t, m.SelectMethod(MethodMobileMoney, PaymentDetails{Phone: "0700"}))
	_, err = m.Submit(context.Background())
	require.NoError(t, err)

	type result struct {
		receipt Receipt
		err     error
	}
	done := make(chan result, 1)
	go func() {
		receipt, err := m.Finish(context.Background())
		done <- result{receipt, err}
	}()

	select {
	case <-rec.entered:
	case <-time.After(time.Second):
		t.Fatal("recorder was not called")
	}

	statusCh := make(chan Status, 1)
	go func() { statusCh <- m.Status() }()
	select {
	case st := <-statusCh:
		assert.Equal(t, StepSuccess, st.Step)
		assert.False(t, st.Closed)
	case <-time.After(time.Second):
		t.Fatal("Status blocked while the order was being recorded")
	}

	_, err = m.Finish(context.Background())
	require.ErrorIs(t, err, ErrIllegalTransition)
	m.Cancel()
	assert.False(t, m.Closed())
	assert.False(t, cart.IsEmpty())

	close(rec.release)
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, "u1", res.receipt.UserID)
	case <-time.After(time.Second):
		t.Fatal("Finish did not return")
	}
	assert.True(t, cart.IsEmpty())
	assert.True(t, m.Closed())
}

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, CanTransitionTo(StepSelection, StepProcessing))
	assert.True(t, CanTransitionTo(StepProcessing, StepSuccess))
	assert.True(t, CanTransitionTo(StepProcessing, StepFailed))
	assert.True(t, CanTransitionTo(StepFailed, StepSelection))

	assert.False(t, CanTransitionTo(StepSelection, StepSuccess))
	assert.False(t, CanTransitionTo(StepSuccess, StepSelection))
	assert.False(t, CanTransitionTo(StepProcessing, StepSelection))
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{"mpesa": MethodMobileMoney, "MOBILE_MONEY": MethodMobileMoney, " card ": MethodCard, "crypto": MethodCrypto} {
		got, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseMethod("cheque")
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestNewOrderID(t *testing.T) {
	id := NewOrderID()
	assert.Regexp(t, `^GX-[0-9A-F]{8}$`, id)
	assert.NotEqual(t, id, NewOrderID())
}
