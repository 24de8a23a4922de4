package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"storefront/internal/advisor"
	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/orders"
	"storefront/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedGateway struct {
	status checkout.SettlementStatus
}

func (g fixedGateway) InitiatePayment(_ context.Context, _ checkout.PaymentRequest) (checkout.SettlementResult, error) {
	if g.status == checkout.SettlementSettled {
		return checkout.SettlementResult{Status: g.status, Reference: "TXN-test"}, nil
	}
	return checkout.SettlementResult{Status: g.status, Reason: "insufficient funds"}, nil
}

type testServer struct {
	router   *gin.Engine
	sessions *session.Registry
}

func newTestServer(t *testing.T, gw checkout.Gateway) *testServer {
	t.Helper()

	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := catalog.LoadCatalog("")
	require.NoError(t, err)

	log := logger.NewNop()
	sessions := session.NewRegistry()
	cfg := &config.Config{CORSOrigins: []string{"*"}, PaymentTimeout: 5 * time.Second, Env: "test"}

	srv := New(cfg, log, Dependencies{
		Catalog:  index,
		Auth:     auth.NewLocalProvider(db.DB),
		Tokens:   session.NewMemoryTokenStore(time.Hour),
		Sessions: sessions,
		Gateway:  gw,
		Orders:   orders.NewService(orders.NewRepository(db.DB), nil, log),
		Advisor:  advisor.StaticAdvisor{},
	})
	return &testServer{router: srv.GetRouter(), sessions: sessions}
}

type envelope struct {
	Data   json.RawMessage   `json:"data"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": email, "password": "hunter22!"})
	require.Equal(t, http.StatusCreated, code, env.Error)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func productIDs(t *testing.T, env envelope) []string {
	t.Helper()
	var products []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","products":10,"sessions":0}`, w.Body.String())
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})

	code, env := s.do(t, http.MethodGet, "/api/v1/catalog", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, productIDs(t, env), 10)

	code, env = s.do(t, http.MethodGet, "/api/v1/catalog?view=search&category=Audio&q=mic", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"4", "10"}, productIDs(t, env))

	// the market view ignores the search term
	code, env = s.do(t, http.MethodGet, "/api/v1/catalog?view=market&q=mic", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, productIDs(t, env), 10)

	code, env = s.do(t, http.MethodGet, "/api/v1/catalog?view=arcade", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "unknown view")

	code, _ = s.do(t, http.MethodGet, "/api/v1/catalog?view=wishlist", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/catalog/categories", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "All", decode[[]string](t, env)[0])

	code, _ = s.do(t, http.MethodGet, "/api/v1/catalog/5", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/catalog/999", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAnonymousMutationsAreGated(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})

	code, env := s.do(t, http.MethodPost, "/api/v1/cart/items", "", gin.H{"product_id": "1"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Authentication required", env.Error)

	code, _ = s.do(t, http.MethodPost, "/api/v1/wishlist/1/toggle", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodDelete, "/api/v1/cart/items/1", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"removed":false}`, string(env.Data))

	code, _ = s.do(t, http.MethodPost, "/api/v1/checkout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthFailures(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})
	s.signUp(t, "ace@gx.example")

	code, _ := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": "ace@gx.example", "password": "hunter22!"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ace@gx.example", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ace@gx.example"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ace@gx.example", "password": "hunter22!"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"token"`)
}

func TestWishlistAndCatalogView(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})
	token := s.signUp(t, "ace@gx.example")

	code, env := s.do(t, http.MethodPost, "/api/v1/wishlist/7/toggle", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"product_id":"7","saved":true}`, string(env.Data))
	s.do(t, http.MethodPost, "/api/v1/wishlist/2/toggle", token, nil)

	code, env = s.do(t, http.MethodGet, "/api/v1/wishlist", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"7", "2"}, productIDs(t, env))

	code, env = s.do(t, http.MethodGet, "/api/v1/catalog?view=wishlist&category=Audio", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"2", "7"}, productIDs(t, env), "catalog order, category ignored")

	code, env = s.do(t, http.MethodPost, "/api/v1/wishlist/7/toggle", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"product_id":"7","saved":false}`, string(env.Data))

	code, _ = s.do(t, http.MethodPost, "/api/v1/wishlist/999/toggle", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCheckoutHappyPath(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})
	token := s.signUp(t, "ace@gx.example")

	code, _ := s.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "1", "quantity": 2})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "3"})
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, code)
	cart := decode[struct {
		Total int64 `json:"total"`
		Count int   `json:"count"`
	}](t, env)
	assert.Equal(t, int64(2*215000+15800), cart.Total)
	assert.Equal(t, 3, cart.Count)

	code, env = s.do(t, http.MethodPost, "/api/v1/checkout", token, nil)
	require.Equal(t, http.StatusCreated, code)
	st := decode[checkout.Status](t, env)
	assert.Equal(t, checkout.StepSelection, st.Step)
	assert.Equal(t, cart.Total, st.Total)

	code, env = s.do(t, http.MethodPut, "/api/v1/checkout/method", token, gin.H{"method": "mpesa"})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/checkout/submit?wait=true", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Fields, "phone")

	code, _ = s.do(t, http.MethodPut, "/api/v1/checkout/method", token, gin.H{"method": "mpesa", "phone": "0712345678"})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/checkout/submit?wait=true", token, nil)
	require.Equal(t, http.StatusOK, code)
	st = decode[checkout.Status](t, env)
	assert.Equal(t, checkout.StepSuccess, st.Step)
	assert.Regexp(t, `^GX-[0-9A-F]{8}$`, st.OrderID)
	assert.Equal(t, "Safaricom", st.Provider)

	code, env = s.do(t, http.MethodPost, "/api/v1/checkout/finish", token, nil)
	require.Equal(t, http.StatusOK, code)
	receipt := decode[checkout.Receipt](t, env)
	assert.Equal(t, st.OrderID, receipt.OrderID)
	assert.Equal(t, "TXN-test", receipt.Reference)

	code, env = s.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"count":0`)

	code, _ = s.do(t, http.MethodGet, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/profile/orders", token, nil)
	require.Equal(t, http.StatusOK, code)
	history := decode[[]struct {
		ID    string `json:"id"`
		Total int64  `json:"total"`
	}](t, env)
	require.Len(t, history, 1)
	assert.Equal(t, receipt.OrderID, history[0].ID)
	assert.Equal(t, cart.Total, history[0].Total)
}

func TestCheckoutCancelKeepsCart(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})
	token := s.signUp(t, "ace@gx.example")

	code, _ := s.do(t, http.MethodPost, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusBadRequest, code, "empty cart")

	s.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "9"})
	code, _ = s.do(t, http.MethodPost, "/api/v1/checkout", token, nil)
	require.Equal(t, http.StatusCreated, code)

	// cart changes after checkout starts do not affect the charged total
	s.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "2"})
	code, env := s.do(t, http.MethodGet, "/api/v1/checkout", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(55000), decode[checkout.Status](t, env).Total)

	code, _ = s.do(t, http.MethodDelete, "/api/v1/checkout", token, nil)
	require.Equal(t, http.StatusNoContent, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total":79500`)
}

func TestCheckoutDeclineAndRetry(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementDeclined})
	token := s.signUp(t, "ace@gx.example")

	s.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "4"})
	s.do(t, http.MethodPost, "/api/v1/checkout", token, nil)
	s.do(t, http.MethodPut, "/api/v1/checkout/method", token, gin.H{"method": "card", "card_number": "4242424242424242"})

	code, env := s.do(t, http.MethodPost, "/api/v1/checkout/submit?wait=true", token, nil)
	require.Equal(t, http.StatusOK, code)
	st := decode[checkout.Status](t, env)
	assert.Equal(t, checkout.StepFailed, st.Step)
	assert.Equal(t, "insufficient funds", st.Failure)

	code, _ = s.do(t, http.MethodPost, "/api/v1/checkout/finish", token, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/checkout/retry", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, checkout.StepSelection, decode[checkout.Status](t, env).Step)

	code, _ = s.do(t, http.MethodPut, "/api/v1/checkout/method", token, gin.H{"method": "paypal"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCheckoutSubmitAsync(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})
	token := s.signUp(t, "ace@gx.example")

	s.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "8"})
	s.do(t, http.MethodPost, "/api/v1/checkout", token, nil)
	s.do(t, http.MethodPut, "/api/v1/checkout/method", token, gin.H{"method": "crypto", "wallet_address": "0xabc"})

	code, _ := s.do(t, http.MethodPost, "/api/v1/checkout/submit", token, nil)
	require.Equal(t, http.StatusAccepted, code)

	require.Eventually(t, func() bool {
		_, env := s.do(t, http.MethodGet, "/api/v1/checkout", token, nil)
		return decode[checkout.Status](t, env).Step == checkout.StepSuccess
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLogoutClearsState(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})
	token := s.signUp(t, "ace@gx.example")

	s.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "1"})
	s.do(t, http.MethodPost, "/api/v1/wishlist/1/toggle", token, nil)
	assert.Equal(t, 1, s.sessions.Len())

	code, _ := s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, 0, s.sessions.Len())

	code, _ = s.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ace@gx.example", "password": "hunter22!"})
	require.Equal(t, http.StatusOK, code)
	fresh := decode[struct {
		Token string `json:"token"`
	}](t, env).Token

	code, env = s.do(t, http.MethodGet, "/api/v1/cart", fresh, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"count":0`)

	code, env = s.do(t, http.MethodGet, "/api/v1/wishlist", fresh, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, productIDs(t, env))
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})
	alice := s.signUp(t, "alice@gx.example")
	bob := s.signUp(t, "bob@gx.example")

	s.do(t, http.MethodPost, "/api/v1/cart/items", alice, gin.H{"product_id": "5"})

	_, env := s.do(t, http.MethodGet, "/api/v1/cart", bob, nil)
	assert.Contains(t, string(env.Data), `"count":0`)

	_, env = s.do(t, http.MethodGet, "/api/v1/cart", alice, nil)
	assert.Contains(t, string(env.Data), `"count":1`)
}

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})
	token := s.signUp(t, "ace@gx.example")

	code, env := s.do(t, http.MethodPut, "/api/v1/profile", token, gin.H{"callsign": "Nightfall"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"callsign":"Nightfall"`)

	code, env = s.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	data := decode[struct {
		Email   string `json:"email"`
		Profile struct {
			Level int `json:"level"`
			Rank  struct {
				Name string `json:"name"`
			} `json:"rank"`
		} `json:"profile"`
	}](t, env)
	assert.Equal(t, "ace@gx.example", data.Email)
	assert.Equal(t, 1, data.Profile.Level)
	assert.Equal(t, "Recruit", data.Profile.Rank.Name)
}

func TestAssistant(t *testing.T) {
	s := newTestServer(t, fixedGateway{checkout.SettlementSettled})

	code, env := s.do(t, http.MethodPost, "/api/v1/assistant", "", gin.H{"message": "best gaming laptop?"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Titan-X Gaming Laptop")

	code, _ = s.do(t, http.MethodPost, "/api/v1/assistant", "", gin.H{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
}
